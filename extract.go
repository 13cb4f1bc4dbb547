package hei

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oldtimes-software/hei/archive"
	"github.com/oldtimes-software/hei/result"
	"golang.org/x/sync/errgroup"
)

const extractWorkers = 8

// entryPath maps an entry name onto a path below dir. Both slash and
// backslash separate directories; names escaping dir are rejected.
func entryPath(dir, name string) (string, error) {
	name = filepath.FromSlash(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimLeft(name, string(filepath.Separator))
	if name == "" || !filepath.IsLocal(name) {
		return "", result.Errorf(result.FileType, "extract package entry", name, "invalid entry name")
	}
	return filepath.Join(dir, name), nil
}

func (c *Catalog) extractEntry(pkg *archive.Package, i int, path string) (err error) {
	rc, err := pkg.Open(c.fsys, i)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return result.New(result.FileRead, "extract package entry", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return result.New(result.FileRead, "extract package entry", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = result.New(result.FileRead, "extract package entry", path, cerr)
		}
	}()

	n, err := io.Copy(f, rc)
	if err != nil {
		return result.New(result.FileRead, "extract package entry", path, err)
	}
	if n != pkg.Table[i].Size {
		return result.Errorf(result.FileRead, "extract package entry", path, "wrote %d of %d bytes", n, pkg.Table[i].Size)
	}

	c.logger.Printf("Extracted \"%s\"\n", path)

	return nil
}

// Extract writes every entry of pkg to its own file below dir. When a name
// appears more than once the last entry wins.
func (c *Catalog) Extract(ctx context.Context, pkg *archive.Package, dir string) error {
	paths := make(map[string]int, pkg.Len())
	for i := range pkg.Table {
		path, err := entryPath(dir, pkg.Table[i].Name)
		if err != nil {
			return err
		}
		paths[path] = i
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	for path, i := range paths {
		path, i := path, i
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return c.extractEntry(pkg, i, path)
		})
	}

	return g.Wait()
}
