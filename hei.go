/*
Package hei is a library for loading the package (archive) and image formats
used by late 90s games.

A Catalog owns two ordered tables of loaders, one for images and one for
packages, keyed by file extension. Loading a file tries every loader
registered for its extension in turn until one succeeds. The standard
loaders are registered with RegisterStandardImageLoaders and
RegisterStandardPackageLoaders and plugins can add more through
InstallPlugin.

A Catalog must be configured before it is shared: registering or clearing
loaders while another goroutine loads is not safe. Once configured,
concurrent loads are fine.
*/
package hei

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/oldtimes-software/hei/archive"
	"github.com/oldtimes-software/hei/image"
	"github.com/oldtimes-software/hei/internal/registry"
	"github.com/oldtimes-software/hei/plugin"
	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// Catalog is a set of image and package loaders reading from a file system.
type Catalog struct {
	fsys     vfs.FileSystem
	images   *registry.Registry[image.Image]
	packages *registry.Registry[archive.Package]
	logger   *log.Logger
}

// New returns a Catalog with no loaders registered. A nil fsys reads from
// the operating system and a nil logger discards everything.
func New(fsys vfs.FileSystem, logger *log.Logger) *Catalog {
	if fsys == nil {
		fsys = vfs.OS()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Catalog{
		fsys:     fsys,
		images:   registry.New[image.Image]("image", logger),
		packages: registry.New[archive.Package]("package", logger),
		logger:   logger,
	}
}

// Close removes every loader.
func (c *Catalog) Close() error {
	c.ClearImageLoaders()
	c.ClearPackageLoaders()
	return nil
}

// FileSystem returns the file system the catalog reads from.
func (c *Catalog) FileSystem() vfs.FileSystem {
	return c.fsys
}

// RegisterImageLoader adds an image loader for extension.
func (c *Catalog) RegisterImageLoader(extension string, load image.LoadFunc) error {
	return c.images.Register(extension, load)
}

// RegisterPackageLoader adds a package loader for extension.
func (c *Catalog) RegisterPackageLoader(extension string, load archive.LoadFunc) error {
	return c.packages.Register(extension, load)
}

// ClearImageLoaders removes every image loader.
func (c *Catalog) ClearImageLoaders() {
	c.images.Clear()
}

// ClearPackageLoaders removes every package loader.
func (c *Catalog) ClearPackageLoaders() {
	c.packages.Clear()
}

// SupportedImageFormats returns the extensions with an image loader, in
// lookup order.
func (c *Catalog) SupportedImageFormats() []string {
	return c.images.Extensions()
}

// SupportedPackageFormats returns the extensions with a package loader, in
// lookup order.
func (c *Catalog) SupportedPackageFormats() []string {
	return c.packages.Extensions()
}

// LoadImage loads the image at path.
func (c *Catalog) LoadImage(path string) (*image.Image, error) {
	img, err := c.images.Load(c.fsys, path)
	if err != nil {
		return nil, err
	}
	img.Path = path
	return img, nil
}

// LoadPackage loads the package directory at path.
func (c *Catalog) LoadPackage(path string) (*archive.Package, error) {
	return c.packages.Load(c.fsys, path)
}

// WriteImage writes level 0 of img to path on the operating system. The
// output format is chosen by the extension of path.
func (c *Catalog) WriteImage(img *image.Image, path string) (err error) {
	const op = "write image"

	if path == "" {
		return result.Errorf(result.FileNotFound, op, path, "empty path")
	}
	if !isWriteExtension(vfs.Extension(path)) {
		return result.Errorf(result.FileType, op, path, "unrecognised file extension %q", vfs.Extension(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return result.New(result.FileRead, op, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = result.New(result.FileRead, op, path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err = image.Encode(f, img, vfs.Extension(path)); err != nil {
		var e *result.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = path
		}
		return err
	}

	return nil
}

func isWriteExtension(extension string) bool {
	for _, e := range image.WriteExtensions() {
		if strings.EqualFold(e, extension) {
			return true
		}
	}
	return false
}

// InstallPlugin queries p and, if it implements the same interface
// version, lets it register its loaders.
func (c *Catalog) InstallPlugin(p plugin.Plugin) error {
	if p == nil {
		return result.Errorf(result.Unsupported, "install plugin", "", "no plugin")
	}

	d := p.Query(plugin.InterfaceVersion)
	if err := plugin.Check(d); err != nil {
		return err
	}

	c.logger.Printf("Installing plugin \"%s\" version %s\n", d.Text, d.Version)

	return p.Initialize(&plugin.ExportTable{
		RegisterPackageLoader: c.RegisterPackageLoader,
		RegisterImageLoader:   c.RegisterImageLoader,
	})
}
