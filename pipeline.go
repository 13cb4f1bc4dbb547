package hei

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

const scanWorkers = 10

func (c *Catalog) hasPackageLoader(path string) bool {
	extension := vfs.Extension(path)
	for _, e := range c.packages.Extensions() {
		if strings.EqualFold(e, extension) {
			return true
		}
	}
	return false
}

func (c *Catalog) findPackages(ctx context.Context, root string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- vfs.Walk(c.fsys, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return vfs.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !d.Type().IsRegular() || !c.hasPackageLoader(path) {
				return nil
			}

			select {
			case out <- path:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Catalog) packageWorker(ctx context.Context, db *AssetDB, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for path := range in {
			pkg, err := c.LoadPackage(path)
			if err != nil {
				c.logger.Printf("Skipping \"%s\": %s\n", path, err)
				continue
			}

			err = db.ImportPackage(c.fsys, pkg)
			pkg.Destroy()
			var rerr *result.Error
			switch {
			case err == nil:
				c.logger.Printf("Indexed \"%s\"\n", path)
			case errors.As(err, &rerr):
				// Unreadable entry data, the package is skipped
				c.logger.Printf("Skipping \"%s\": %s\n", path, err)
			default:
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the tree rooted at root and imports every package a loader
// is registered for into db. Files that fail to load are logged and
// skipped; a database error stops the scan.
func (c *Catalog) Scan(ctx context.Context, db *AssetDB, root string) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	paths, errc, err := c.findPackages(ctx, root)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < scanWorkers; i++ {
		errc, err := c.packageWorker(ctx, db, paths)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
