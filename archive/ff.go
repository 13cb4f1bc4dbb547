package archive

import (
	"encoding/binary"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// The FF directory is a count followed by one record per entry. Sizes are
// not stored; each is the distance to the next entry's offset and the last
// entry runs to the end of the file.

const ffNameLength = 40

type ffIndex struct {
	Offset uint32
	Name   [ffNameLength]byte
}

const ffIndexSize = 4 + ffNameLength

// LoadFF reads an Outwars FF package.
func LoadFF(fsys vfs.FileSystem, path string) (*Package, error) {
	const op = "load ff package"

	f, size, err := open(fsys, op, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var count uint32
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, readError(op, path, err)
	}
	if count == 0 {
		return nil, result.Errorf(result.FileRead, op, path, "invalid number of indices in package")
	}
	if int64(count)*ffIndexSize > size-4 {
		return nil, result.Errorf(result.FileRead, op, path, "failed to read indices, %d declared", count)
	}

	indices := make([]ffIndex, count)
	if err := binary.Read(f, binary.LittleEndian, indices); err != nil {
		return nil, readError(op, path, err)
	}

	pkg := New(path, len(indices), "")
	for i, idx := range indices {
		end := size
		if i+1 < len(indices) {
			end = int64(indices[i+1].Offset)
		}
		if end < int64(idx.Offset) {
			return nil, result.Errorf(result.FileType, op, path, "entry %d at %d ends before it starts", i, idx.Offset)
		}

		pkg.Table[i] = Index{
			Name:   cString(idx.Name[:]),
			Offset: int64(idx.Offset),
			Size:   end - int64(idx.Offset),
		}
	}

	return pkg, nil
}
