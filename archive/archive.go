/*
Package archive implements readers for the package (archive) formats used by
a number of late 90s games.

Every format is decoded into the same Package: a flat, ordered directory of
named byte ranges. The directory is read once when the package is loaded;
entry data is only read when an entry is opened.

The following formats are supported:

	FF    Outwars
	VSR   Sentient
	WAD   Doom and other id Tech 1 games
	MAD   Hogs of War
	CUE   CD images described by a cue sheet, one entry per track file
	ZIP   zip files and Quake III pk3 files

All multi-byte integers are little-endian.
*/
package archive

import (
	"bytes"
	"errors"
	"io"
	"io/fs"

	"github.com/klauspost/compress/flate"
	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// Compression is the method used to store an entry.
type Compression int

const (
	Stored Compression = iota
	Deflate
)

func (c Compression) String() string {
	switch c {
	case Stored:
		return "stored"
	case Deflate:
		return "deflate"
	}
	return "unknown"
}

// Index describes a single entry in a package.
type Index struct {
	Name   string
	Offset int64
	// Size is the uncompressed size in bytes
	Size           int64
	CompressedSize int64
	Compression    Compression
	// DataPath overrides the package data file for this entry
	DataPath string
}

// Package is a loaded package directory.
type Package struct {
	// Path is the file the directory was read from
	Path string
	// DataPath, if set, is the file holding entry data
	DataPath string
	Table    []Index
}

// LoadFunc decodes the package at path.
type LoadFunc func(fsys vfs.FileSystem, path string) (*Package, error)

// New returns a package with n zeroed entries.
func New(path string, n int, dataPath string) *Package {
	return &Package{
		Path:     path,
		DataPath: dataPath,
		Table:    make([]Index, n),
	}
}

// Len returns the number of entries.
func (p *Package) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Table)
}

// Destroy releases the directory. It is safe to call on a nil or empty
// package and more than once.
func (p *Package) Destroy() {
	if p == nil {
		return
	}
	p.Table = nil
}

// Lookup returns the position of the entry called name. If a name appears
// more than once the last one wins.
func (p *Package) Lookup(name string) (int, bool) {
	for i := p.Len() - 1; i >= 0; i-- {
		if p.Table[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

func (p *Package) dataPath(idx *Index) string {
	switch {
	case idx.DataPath != "":
		return idx.DataPath
	case p.DataPath != "":
		return p.DataPath
	default:
		return p.Path
	}
}

type entryReader struct {
	io.Reader
	closers []io.Closer
}

func (r *entryReader) Close() error {
	var err error
	for _, c := range r.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open returns a reader over the data of entry i.
func (p *Package) Open(fsys vfs.FileSystem, i int) (io.ReadCloser, error) {
	const op = "open package entry"

	if i < 0 || i >= p.Len() {
		return nil, result.Errorf(result.FileNotFound, op, "", "index %d out of range", i)
	}
	idx := &p.Table[i]
	path := p.dataPath(idx)

	f, err := fsys.Open(path)
	if err != nil {
		return nil, openError(op, path, err)
	}

	switch idx.Compression {
	case Stored:
		return &entryReader{
			Reader:  io.NewSectionReader(f, idx.Offset, idx.Size),
			closers: []io.Closer{f},
		}, nil
	case Deflate:
		fr := flate.NewReader(io.NewSectionReader(f, idx.Offset, idx.CompressedSize))
		return &entryReader{
			Reader:  io.LimitReader(fr, idx.Size),
			closers: []io.Closer{fr, f},
		}, nil
	}

	f.Close()
	return nil, result.Errorf(result.Unsupported, op, path, "compression method %d", idx.Compression)
}

// ReadFile returns the contents of the entry called name.
func (p *Package) ReadFile(fsys vfs.FileSystem, name string) ([]byte, error) {
	i, ok := p.Lookup(name)
	if !ok {
		return nil, result.Errorf(result.FileNotFound, "read package entry", p.pathOrEmpty(), "no entry %q", name)
	}

	rc, err := p.Open(fsys, i)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, result.New(result.FileRead, "read package entry", name, err)
	}
	if int64(len(b)) != p.Table[i].Size {
		return nil, result.Errorf(result.FileRead, "read package entry", name, "got %d of %d bytes", len(b), p.Table[i].Size)
	}
	return b, nil
}

func (p *Package) pathOrEmpty() string {
	if p == nil {
		return ""
	}
	return p.Path
}

// cString returns b up to the first NUL. A field with no NUL is returned
// whole.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func openError(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return result.New(result.FileNotFound, op, path, err)
	}
	return result.New(result.FileRead, op, path, err)
}

func readError(op, path string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return result.New(result.FileRead, op, path, err)
}

// open opens path and returns the file with its size.
func open(fsys vfs.FileSystem, op, path string) (vfs.File, int64, error) {
	size, err := vfs.Size(fsys, path)
	if err != nil {
		return nil, 0, openError(op, path, err)
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, openError(op, path, err)
	}
	return f, size, nil
}
