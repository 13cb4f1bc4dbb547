package archive

import (
	"errors"

	"github.com/klauspost/compress/zip"
	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// LoadZIP reads the central directory of a zip file. Quake III pk3 files
// are plain zip files.
func LoadZIP(fsys vfs.FileSystem, path string) (*Package, error) {
	const op = "load zip package"

	f, size, err := open(fsys, op, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zip.NewReader(f, size)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, result.New(result.FileType, op, path, err)
		}
		return nil, readError(op, path, err)
	}

	pkg := New(path, 0, "")
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}

		var c Compression
		switch zf.Method {
		case zip.Store:
			c = Stored
		case zip.Deflate:
			c = Deflate
		default:
			return nil, result.Errorf(result.Unsupported, op, path, "%q uses compression method %d", zf.Name, zf.Method)
		}

		offset, err := zf.DataOffset()
		if err != nil {
			return nil, readError(op, path, err)
		}

		pkg.Table = append(pkg.Table, Index{
			Name:           zf.Name,
			Offset:         offset,
			Size:           int64(zf.UncompressedSize64),
			CompressedSize: int64(zf.CompressedSize64),
			Compression:    c,
		})
	}

	return pkg, nil
}
