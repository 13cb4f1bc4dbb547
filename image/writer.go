package image

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/ftrvxmtrx/tga"
	"github.com/oldtimes-software/hei/result"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const (
	jpegQuality   = 90
	gifNumColours = 256
)

type encoder struct {
	w io.Writer
}

func (e *encoder) bmp(m image.Image) error {
	return bmp.Encode(e.w, m)
}

func (e *encoder) png(m image.Image) error {
	return png.Encode(e.w, m)
}

func (e *encoder) tga(m image.Image) error {
	return tga.Encode(e.w, m)
}

func (e *encoder) jpeg(m image.Image) error {
	// JPEG has no alpha so flatten onto black first
	b := m.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, b, m, b.Min, draw.Over)

	return jpeg.Encode(e.w, dst, &jpeg.Options{Quality: jpegQuality})
}

func (e *encoder) gif(m image.Image) error {
	return gif.Encode(e.w, m, &gif.Options{
		NumColors: gifNumColours,
		Quantizer: &quantize.MedianCutQuantizer{},
		Drawer:    draw.FloydSteinberg,
	})
}

func (e *encoder) encoderFor(extension string) func(image.Image) error {
	switch strings.ToLower(extension) {
	case "bmp":
		return e.bmp
	case "png":
		return e.png
	case "tga":
		return e.tga
	case "jpg", "jpeg":
		return e.jpeg
	case "gif":
		return e.gif
	}
	return nil
}

// WriteExtensions lists the extensions understood by Encode.
func WriteExtensions() []string {
	return []string{"bmp", "png", "tga", "jpg", "jpeg", "gif"}
}

// exportable returns img, or an RGBA8 copy of it if its pixel format does
// not have one byte per channel.
func exportable(img *Image) (*Image, error) {
	if BytesPerPixel(img.Format) == Channels(img.ColourFormat) {
		return img, nil
	}

	dup := *img
	dup.Data = img.Data[:1]
	if err := Convert(&dup, FormatRGBA8); err != nil {
		return nil, err
	}
	return &dup, nil
}

// Encode writes level 0 of img to w in the format named by extension.
func Encode(w io.Writer, img *Image, extension string) error {
	const op = "write image"

	if img.Levels() == 0 {
		return result.Errorf(result.Resolution, op, img.Path, "image has no levels")
	}
	if Channels(img.ColourFormat) == 0 {
		return result.Errorf(result.Unsupported, op, img.Path, "invalid colour format")
	}

	e := encoder{w: w}
	encode := e.encoderFor(extension)
	if encode == nil {
		return result.Errorf(result.FileType, op, img.Path, "unrecognised file extension %q", extension)
	}

	src, err := exportable(img)
	if err != nil {
		return err
	}

	m, err := src.ToImage(0)
	if err != nil {
		return err
	}

	if err := encode(m); err != nil {
		return result.New(result.FileRead, op, img.Path, err)
	}

	return nil
}
