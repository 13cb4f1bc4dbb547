/*
Package vfs is the file access layer used by every Hei loader.

Loaders never touch the operating system directly; they go through a
FileSystem so an application can serve assets from memory, from an embedded
filesystem or from disk.
*/
package vfs

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is an open, seekable, randomly accessible file.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
}

// FileSystem opens and describes files by path.
type FileSystem interface {
	Open(name string) (File, error)
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

type osFS struct{}

// OS returns a FileSystem backed by the host operating system.
func OS() FileSystem {
	return osFS{}
}

func (osFS) Open(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

type wrappedFS struct {
	fsys fs.FS
}

// FromFS adapts fsys. Files that cannot seek or read at an offset are
// buffered into memory when opened.
func FromFS(fsys fs.FS) FileSystem {
	return wrappedFS{fsys: fsys}
}

func clean(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "/")
	if name == "" {
		return "."
	}
	return name
}

func (w wrappedFS) Open(name string) (File, error) {
	f, err := w.fsys.Open(clean(name))
	if err != nil {
		return nil, err
	}
	if file, ok := f.(File); ok {
		return file, nil
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &memFile{Reader: bytes.NewReader(b)}, nil
}

func (w wrappedFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(w.fsys, clean(name))
}

func (w wrappedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(w.fsys, clean(name))
}

type memFile struct {
	*bytes.Reader
}

func (*memFile) Close() error {
	return nil
}

// Exists reports whether path names a regular file.
func Exists(fsys FileSystem, path string) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Size returns the size in bytes of the file at path.
func Size(fsys FileSystem, path string) (int64, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Extension returns the extension of path without the leading dot, or an
// empty string.
func Extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// ReadLine reads up to and including the next newline from r, returning at
// most max bytes. A line longer than max is returned truncated with the
// remainder left unread.
func ReadLine(r *bufio.Reader, max int) (string, error) {
	var b strings.Builder
	for b.Len() < max {
		c, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && b.Len() > 0 {
				return b.String(), nil
			}
			return b.String(), err
		}
		b.WriteByte(c)
		if c == '\n' {
			break
		}
	}
	return b.String(), nil
}

// SkipDir may be returned from a WalkFunc to skip the directory.
var SkipDir = fs.SkipDir

// WalkFunc is called for every entry visited by Walk.
type WalkFunc func(path string, d fs.DirEntry, err error) error

// Walk visits the tree rooted at root in lexical order, calling fn for each
// file or directory below it.
func Walk(fsys FileSystem, root string, fn WalkFunc) error {
	info, err := fsys.Stat(root)
	if err != nil {
		return fn(root, nil, err)
	}
	err = walk(fsys, root, fs.FileInfoToDirEntry(info), fn)
	if errors.Is(err, SkipDir) {
		return nil
	}
	return err
}

func walk(fsys FileSystem, path string, d fs.DirEntry, fn WalkFunc) error {
	if err := fn(path, d, nil); err != nil || !d.IsDir() {
		return err
	}

	entries, err := fsys.ReadDir(path)
	if err != nil {
		return fn(path, d, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if err := walk(fsys, filepath.Join(path, e.Name()), e, fn); err != nil {
			if errors.Is(err, SkipDir) && e.IsDir() {
				continue
			}
			return err
		}
	}
	return nil
}
