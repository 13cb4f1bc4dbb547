package archive

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// A VSR package is a sequence of chunks:
//
//	1RSV  32 byte header
//	CRID  directory, a count and 40 byte {offset, length, 8 reserved words}
//	      records
//	????  12 bytes, unused
//	TRTS  string table, a count, one offset per string and then the
//	      NUL-terminated names

const (
	vsrMagicHeader    = "1RSV"
	vsrMagicDirectory = "CRID"
	vsrMagicStrings   = "TRTS"

	vsrSkippedChunk = 12
	vsrMaxName      = 256
	vsrIndexSize    = 40
)

type vsrChunkHeader struct {
	Identifier [4]byte
	Length     uint32
}

type vsrHeader struct {
	Header      vsrChunkHeader
	Unknown0    uint32
	Unknown1    uint32 // always 4
	Unknown2    uint32
	DataLength  uint32
	NumIndices  uint32
	NumIndices2 uint32
}

type vsrDirectoryChunk struct {
	Header     vsrChunkHeader
	NumIndices uint32
}

type vsrDirectoryIndex struct {
	Offset   uint32
	Length   uint32
	Reserved [8]uint32
}

type vsrStringChunk struct {
	Header     vsrChunkHeader
	NumIndices uint32
}

func readVSRName(r *bufio.Reader) (string, bool, error) {
	var b [vsrMaxName]byte
	for i := range b {
		c, err := r.ReadByte()
		if err != nil {
			return "", false, err
		}
		if c == 0 {
			return string(b[:i]), true, nil
		}
		b[i] = c
	}
	return string(b[:]), false, nil
}

// LoadVSR reads a Sentient VSR package.
func LoadVSR(fsys vfs.FileSystem, path string) (*Package, error) {
	const op = "load vsr package"

	f, size, err := open(fsys, op, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var header vsrHeader
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, readError(op, path, err)
	}
	if string(header.Header.Identifier[:]) != vsrMagicHeader {
		return nil, result.Errorf(result.FileType, op, path, "failed to read %s header", vsrMagicHeader)
	}

	var directory vsrDirectoryChunk
	if err := binary.Read(f, binary.LittleEndian, &directory); err != nil {
		return nil, readError(op, path, err)
	}
	if string(directory.Header.Identifier[:]) != vsrMagicDirectory {
		return nil, result.Errorf(result.FileType, op, path, "failed to read %s header", vsrMagicDirectory)
	}
	if int64(directory.NumIndices)*vsrIndexSize > size {
		return nil, result.Errorf(result.FileRead, op, path, "failed to read indices, %d declared", directory.NumIndices)
	}

	indices := make([]vsrDirectoryIndex, directory.NumIndices)
	if err := binary.Read(f, binary.LittleEndian, indices); err != nil {
		return nil, readError(op, path, err)
	}

	if _, err := f.Seek(vsrSkippedChunk, io.SeekCurrent); err != nil {
		return nil, readError(op, path, err)
	}

	var stringTable vsrStringChunk
	if err := binary.Read(f, binary.LittleEndian, &stringTable); err != nil {
		return nil, readError(op, path, err)
	}
	if string(stringTable.Header.Identifier[:]) != vsrMagicStrings {
		return nil, result.Errorf(result.FileType, op, path, "failed to read %s header", vsrMagicStrings)
	}
	if stringTable.NumIndices < directory.NumIndices {
		return nil, result.Errorf(result.FileType, op, path, "%d names for %d indices", stringTable.NumIndices, directory.NumIndices)
	}

	// Skip the string offsets, the names are read sequentially instead
	if _, err := f.Seek(int64(stringTable.NumIndices)*4, io.SeekCurrent); err != nil {
		return nil, readError(op, path, err)
	}

	pkg := New(path, len(indices), "")
	r := bufio.NewReader(f)
	for i, idx := range indices {
		name, ok, err := readVSRName(r)
		if err != nil {
			return nil, readError(op, path, err)
		}
		if !ok {
			return nil, result.Errorf(result.FileType, op, path, "name %d is longer than %d bytes", i, vsrMaxName-1)
		}

		pkg.Table[i] = Index{
			Name:   name,
			Offset: int64(idx.Offset),
			Size:   int64(idx.Length),
		}
	}

	return pkg, nil
}
