package archive

import (
	"encoding/binary"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// MAD files have no header. The directory sits at the start of the file
// and the data of the first entry immediately follows it, so the first
// offset gives the number of entries.

type madIndex struct {
	Name   [16]byte
	Offset uint32
	Length uint32
}

const madIndexSize = 24

// LoadMAD reads a Hogs of War MAD/MTD package.
func LoadMAD(fsys vfs.FileSystem, path string) (*Package, error) {
	const op = "load mad package"

	f, size, err := open(fsys, op, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var first madIndex
	if err := binary.Read(f, binary.LittleEndian, &first); err != nil {
		return nil, readError(op, path, err)
	}
	if first.Offset == 0 || first.Offset%madIndexSize != 0 {
		return nil, result.Errorf(result.FileType, op, path, "unexpected first offset %d", first.Offset)
	}
	if int64(first.Offset) > size {
		return nil, result.Errorf(result.FileRead, op, path, "directory of %d bytes extends past end of file", first.Offset)
	}

	indices := make([]madIndex, first.Offset/madIndexSize)
	indices[0] = first
	if err := binary.Read(f, binary.LittleEndian, indices[1:]); err != nil {
		return nil, readError(op, path, err)
	}

	pkg := New(path, len(indices), "")
	for i, idx := range indices {
		if idx.Offset < first.Offset || int64(idx.Offset)+int64(idx.Length) > size {
			return nil, result.Errorf(result.FileType, op, path, "entry %d has invalid extent %d+%d", i, idx.Offset, idx.Length)
		}

		pkg.Table[i] = Index{
			Name:   cString(idx.Name[:]),
			Offset: int64(idx.Offset),
			Size:   int64(idx.Length),
		}
	}

	return pkg, nil
}
