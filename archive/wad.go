package archive

import (
	"encoding/binary"
	"io"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

type wadHeader struct {
	Identification [4]byte
	NumLumps       int32
	InfoTableOfs   int32
}

type wadLump struct {
	FilePos int32
	Size    int32
	Name    [8]byte
}

const wadLumpSize = 16

// LoadWAD reads an id Tech 1 IWAD or PWAD file.
func LoadWAD(fsys vfs.FileSystem, path string) (*Package, error) {
	const op = "load wad package"

	f, size, err := open(fsys, op, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var header wadHeader
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, readError(op, path, err)
	}
	switch string(header.Identification[:]) {
	case "IWAD", "PWAD":
	default:
		return nil, result.Errorf(result.FileType, op, path, "invalid identifier %q", header.Identification[:])
	}
	if header.NumLumps < 0 || header.InfoTableOfs < 0 {
		return nil, result.Errorf(result.FileType, op, path, "negative directory %d at %d", header.NumLumps, header.InfoTableOfs)
	}
	if int64(header.InfoTableOfs)+int64(header.NumLumps)*wadLumpSize > size {
		return nil, result.Errorf(result.FileRead, op, path, "directory of %d lumps extends past end of file", header.NumLumps)
	}

	if _, err := f.Seek(int64(header.InfoTableOfs), io.SeekStart); err != nil {
		return nil, readError(op, path, err)
	}

	lumps := make([]wadLump, header.NumLumps)
	if err := binary.Read(f, binary.LittleEndian, lumps); err != nil {
		return nil, readError(op, path, err)
	}

	pkg := New(path, len(lumps), "")
	for i, lump := range lumps {
		if lump.FilePos < 0 || lump.Size < 0 || int64(lump.FilePos)+int64(lump.Size) > size {
			return nil, result.Errorf(result.FileType, op, path, "lump %d has invalid extent %d+%d", i, lump.FilePos, lump.Size)
		}

		pkg.Table[i] = Index{
			Name:   cString(lump.Name[:]),
			Offset: int64(lump.FilePos),
			Size:   int64(lump.Size),
		}
	}

	return pkg, nil
}
