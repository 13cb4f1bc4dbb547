package image

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var rasterDecoders = map[string]func(io.Reader) (image.Image, error){
	"bmp":  bmp.Decode,
	"gif":  gif.Decode,
	"jpeg": jpeg.Decode,
	"jpg":  jpeg.Decode,
	"png":  png.Decode,
	"tga":  tga.Decode,
	"tif":  tiff.Decode,
	"tiff": tiff.Decode,
	"webp": webp.Decode,
}

// RasterExtensions lists the extensions understood by LoadRaster.
func RasterExtensions() []string {
	return []string{"tga", "png", "jpg", "jpeg", "bmp", "gif", "tif", "tiff", "webp"}
}

// FromImage converts m to a single level RGBA8 image.
func FromImage(m image.Image) (*Image, error) {
	b := m.Bounds()

	nrgba, ok := m.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != b.Dx()*4 {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), m, b.Min, draw.Src)
	}

	return New(nrgba.Pix, b.Dx(), b.Dy(), ColourRGBA, FormatRGBA8)
}

// DecodeRaster decodes a common raster format, chosen by extension, into a
// single level RGBA8 image.
func DecodeRaster(r io.Reader, extension string) (*Image, error) {
	const op = "decode image"

	decode, ok := rasterDecoders[strings.ToLower(extension)]
	if !ok {
		return nil, result.Errorf(result.Unsupported, op, "", "no decoder for %q", extension)
	}

	m, err := decode(r)
	if err != nil {
		return nil, result.Errorf(result.FileRead, op, "", "failed to read in image (%v)", err)
	}

	return FromImage(m)
}

// LoadRaster reads the whole file at path and decodes it with
// DecodeRaster.
func LoadRaster(fsys vfs.FileSystem, path string) (*Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, result.New(result.FileNotFound, "load image", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, result.New(result.FileRead, "load image", path, err)
	}

	img, err := DecodeRaster(bytes.NewReader(b), vfs.Extension(path))
	if err != nil {
		if e, ok := err.(*result.Error); ok {
			e.Path = path
		}
		return nil, err
	}
	return img, nil
}
