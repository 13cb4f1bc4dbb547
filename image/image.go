/*
Package image implements the Hei image record and the operations that work
on it.

An Image holds one or more levels of raw pixel data. Level 0 is the full
resolution image; every following level halves both dimensions of the one
before it. The encoding of each pixel is described by a PixelFormat and the
order of its channels by a ColourFormat.

Decoders exist for the common raster formats, which are always returned as
8 bits per channel RGBA, and for the 3dfx 3DF texture format.
*/
package image

import (
	"image"
	"image/color"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// PixelFormat is the binary encoding of a single pixel.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	FormatRGBA4
	FormatRGB5A1
	FormatRGB565
	FormatRGB8
	FormatRGBA8
	FormatRGBA12
	FormatRGBA16
	FormatRGBA16F
	FormatRGBDXT1
	FormatRGBADXT1
	FormatRGBADXT3
	FormatRGBADXT5
)

var formatStrings = [...]string{
	FormatUnknown:  "unknown",
	FormatRGBA4:    "rgba4",
	FormatRGB5A1:   "rgb5a1",
	FormatRGB565:   "rgb565",
	FormatRGB8:     "rgb8",
	FormatRGBA8:    "rgba8",
	FormatRGBA12:   "rgba12",
	FormatRGBA16:   "rgba16",
	FormatRGBA16F:  "rgba16f",
	FormatRGBDXT1:  "rgb_dxt1",
	FormatRGBADXT1: "rgba_dxt1",
	FormatRGBADXT3: "rgba_dxt3",
	FormatRGBADXT5: "rgba_dxt5",
}

func (f PixelFormat) String() string {
	if f < 0 || int(f) >= len(formatStrings) {
		return formatStrings[FormatUnknown]
	}
	return formatStrings[f]
}

// ColourFormat is the order of the channels within a pixel.
type ColourFormat int

const (
	ColourUnknown ColourFormat = iota
	ColourRGBA
	ColourABGR
	ColourARGB
	ColourBGRA
	ColourRGB
	ColourBGR
)

var colourStrings = [...]string{
	ColourUnknown: "unknown",
	ColourRGBA:    "rgba",
	ColourABGR:    "abgr",
	ColourARGB:    "argb",
	ColourBGRA:    "bgra",
	ColourRGB:     "rgb",
	ColourBGR:     "bgr",
}

func (c ColourFormat) String() string {
	if c < 0 || int(c) >= len(colourStrings) {
		return colourStrings[ColourUnknown]
	}
	return colourStrings[c]
}

// BytesPerPixel returns the number of bytes used by a single pixel, or zero
// if the format has no whole number of bytes per pixel.
func BytesPerPixel(f PixelFormat) int {
	switch f {
	case FormatRGBA4, FormatRGB5A1, FormatRGB565:
		return 2
	case FormatRGB8:
		return 3
	case FormatRGBA8:
		return 4
	case FormatRGBA12:
		return 6
	case FormatRGBA16, FormatRGBA16F:
		return 8
	}
	return 0
}

// ByteSize returns the number of bytes needed by a single level of the
// given dimensions.
func ByteSize(f PixelFormat, width, height int) int {
	switch f {
	case FormatRGBDXT1, FormatRGBADXT1:
		// 4 bits per pixel
		return (width * height) >> 1
	case FormatRGBADXT3, FormatRGBADXT5:
		return width * height
	}
	return width * height * BytesPerPixel(f)
}

// Channels returns the number of samples per pixel for the colour format.
func Channels(c ColourFormat) int {
	switch c {
	case ColourRGBA, ColourABGR, ColourARGB, ColourBGRA:
		return 4
	case ColourRGB, ColourBGR:
		return 3
	}
	return 0
}

// MaxSize is the largest level 0 buffer New will allocate.
const MaxSize = 1 << 30

// Image is a decoded image.
type Image struct {
	Width  int
	Height int
	// Data holds one buffer per level
	Data [][]byte
	// Size is the byte size of level 0
	Size         int
	Format       PixelFormat
	ColourFormat ColourFormat
	// Path is the file the image was loaded from, if any
	Path string
}

// LoadFunc decodes the image at path.
type LoadFunc func(fsys vfs.FileSystem, path string) (*Image, error)

// New returns a single level image. buf is copied; if it is nil the level
// is zeroed.
func New(buf []byte, width, height int, colour ColourFormat, format PixelFormat) (*Image, error) {
	const op = "create image"

	if width <= 0 || height <= 0 {
		return nil, result.Errorf(result.Resolution, op, "", "%dx%d", width, height)
	}
	size := ByteSize(format, width, height)
	if size <= 0 {
		return nil, result.Errorf(result.Unsupported, op, "", "pixel format %s", format)
	}
	if size > MaxSize {
		return nil, result.Errorf(result.Allocation, op, "", "%d bytes", size)
	}
	if buf != nil && len(buf) < size {
		return nil, result.Errorf(result.FileRead, op, "", "got %d of %d bytes", len(buf), size)
	}

	data := make([]byte, size)
	copy(data, buf)

	return &Image{
		Width:        width,
		Height:       height,
		Data:         [][]byte{data},
		Size:         size,
		Format:       format,
		ColourFormat: colour,
	}, nil
}

// Levels returns the number of levels.
func (img *Image) Levels() int {
	if img == nil {
		return 0
	}
	return len(img.Data)
}

// LevelSize returns the dimensions of level l.
func (img *Image) LevelSize(l int) (int, int) {
	return img.Width >> uint(l), img.Height >> uint(l)
}

// Destroy releases every level. It is safe to call on a nil image, on an
// image with no levels and more than once.
func (img *Image) Destroy() {
	if img == nil {
		return
	}
	for i := range img.Data {
		img.Data[i] = nil
	}
	img.Data = nil
	img.Size = 0
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// IsPowerOfTwo reports whether both dimensions are non-zero powers of two.
func (img *Image) IsPowerOfTwo() bool {
	return isPowerOfTwo(img.Width) && isPowerOfTwo(img.Height)
}

// ToImage returns level l as an image.Image. Only images with 8 bits per
// channel are supported.
func (img *Image) ToImage(l int) (image.Image, error) {
	const op = "export image"

	if l < 0 || l >= img.Levels() {
		return nil, result.Errorf(result.Resolution, op, img.Path, "no level %d", l)
	}

	channels := Channels(img.ColourFormat)
	if channels == 0 {
		return nil, result.Errorf(result.Unsupported, op, img.Path, "invalid colour format")
	}
	if BytesPerPixel(img.Format) != channels {
		return nil, result.Errorf(result.Unsupported, op, img.Path, "%s data with %d channels", img.Format, channels)
	}

	w, h := img.LevelSize(l)
	src := img.Data[l]
	if len(src) < w*h*channels {
		return nil, result.Errorf(result.Resolution, op, img.Path, "level %d holds %d bytes", l, len(src))
	}

	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < w*h*channels; i, j = i+channels, j+4 {
		var c color.NRGBA
		switch img.ColourFormat {
		case ColourRGBA:
			c = color.NRGBA{src[i], src[i+1], src[i+2], src[i+3]}
		case ColourABGR:
			c = color.NRGBA{src[i+3], src[i+2], src[i+1], src[i]}
		case ColourARGB:
			c = color.NRGBA{src[i+1], src[i+2], src[i+3], src[i]}
		case ColourBGRA:
			c = color.NRGBA{src[i+2], src[i+1], src[i], src[i+3]}
		case ColourRGB:
			c = color.NRGBA{src[i], src[i+1], src[i+2], 0xff}
		case ColourBGR:
			c = color.NRGBA{src[i+2], src[i+1], src[i], 0xff}
		}
		m.Pix[j+0], m.Pix[j+1], m.Pix[j+2], m.Pix[j+3] = c.R, c.G, c.B, c.A
	}

	return m, nil
}
