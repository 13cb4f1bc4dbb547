package hei

import (
	"fmt"
	"strings"

	"github.com/oldtimes-software/hei/archive"
	"github.com/oldtimes-software/hei/image"
	"github.com/oldtimes-software/hei/internal/registry"
	"github.com/oldtimes-software/hei/result"
)

// ImageFormat is a set of standard image loaders.
type ImageFormat uint

const (
	ImageTGA ImageFormat = 1 << iota
	ImagePNG
	ImageJPG
	ImageBMP
	ImageGIF
	ImageTIFF
	ImageWEBP
	Image3DF

	ImageAll ImageFormat = 1<<iota - 1
)

// PackageFormat is a set of standard package loaders.
type PackageFormat uint

const (
	PackageFF PackageFormat = 1 << iota
	PackageVSR
	PackageWAD
	PackageMAD
	PackageCUE
	PackageZIP

	PackageAll PackageFormat = 1<<iota - 1
)

var imageFormatNames = map[string]ImageFormat{
	"tga":  ImageTGA,
	"png":  ImagePNG,
	"jpg":  ImageJPG,
	"bmp":  ImageBMP,
	"gif":  ImageGIF,
	"tiff": ImageTIFF,
	"webp": ImageWEBP,
	"3df":  Image3DF,
	"all":  ImageAll,
}

var packageFormatNames = map[string]PackageFormat{
	"ff":  PackageFF,
	"vsr": PackageVSR,
	"wad": PackageWAD,
	"mad": PackageMAD,
	"cue": PackageCUE,
	"zip": PackageZIP,
	"all": PackageAll,
}

// ParseImageFormats returns the set of image formats named in names.
func ParseImageFormats(names []string) (ImageFormat, error) {
	var f ImageFormat
	for _, n := range names {
		v, ok := imageFormatNames[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown image format %q", n)
		}
		f |= v
	}
	return f, nil
}

// ParsePackageFormats returns the set of package formats named in names.
func ParsePackageFormats(names []string) (PackageFormat, error) {
	var f PackageFormat
	for _, n := range names {
		v, ok := packageFormatNames[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown package format %q", n)
		}
		f |= v
	}
	return f, nil
}

var standardImageLoaders = []struct {
	format    ImageFormat
	extension string
	load      image.LoadFunc
}{
	{ImageTGA, "tga", image.LoadRaster},
	{ImagePNG, "png", image.LoadRaster},
	{ImageJPG, "jpg", image.LoadRaster},
	{ImageJPG, "jpeg", image.LoadRaster},
	{ImageBMP, "bmp", image.LoadRaster},
	{ImageGIF, "gif", image.LoadRaster},
	{ImageTIFF, "tif", image.LoadRaster},
	{ImageTIFF, "tiff", image.LoadRaster},
	{ImageWEBP, "webp", image.LoadRaster},
	{Image3DF, "3df", image.Load3DF},
}

var standardPackageLoaders = []struct {
	format    PackageFormat
	extension string
	load      archive.LoadFunc
}{
	{PackageFF, "ff", archive.LoadFF},
	{PackageVSR, "vsr", archive.LoadVSR},
	{PackageWAD, "wad", archive.LoadWAD},
	{PackageMAD, "mad", archive.LoadMAD},
	{PackageCUE, "cue", archive.LoadCUE},
	{PackageZIP, "zip", archive.LoadZIP},
	{PackageZIP, "pk3", archive.LoadZIP},
}

// RegisterStandardImageLoaders registers the built in loader for every
// image format in formats. Nothing is registered if they would not all fit.
func (c *Catalog) RegisterStandardImageLoaders(formats ImageFormat) error {
	n := 0
	for _, l := range standardImageLoaders {
		if formats&l.format != 0 {
			n++
		}
	}
	if c.images.Len()+n > registry.MaxLoaders {
		return result.Errorf(result.EndOfQuota, "register standard image loaders", "", "%d loaders do not fit", n)
	}

	for _, l := range standardImageLoaders {
		if formats&l.format == 0 {
			continue
		}
		if err := c.RegisterImageLoader(l.extension, l.load); err != nil {
			return err
		}
	}
	return nil
}

// RegisterStandardPackageLoaders registers the built in loader for every
// package format in formats. Nothing is registered if they would not all fit.
func (c *Catalog) RegisterStandardPackageLoaders(formats PackageFormat) error {
	n := 0
	for _, l := range standardPackageLoaders {
		if formats&l.format != 0 {
			n++
		}
	}
	if c.packages.Len()+n > registry.MaxLoaders {
		return result.Errorf(result.EndOfQuota, "register standard package loaders", "", "%d loaders do not fit", n)
	}

	for _, l := range standardPackageLoaders {
		if formats&l.format == 0 {
			continue
		}
		if err := c.RegisterPackageLoader(l.extension, l.load); err != nil {
			return err
		}
	}
	return nil
}
