package image

import (
	"image/color"

	"github.com/oldtimes-software/hei/result"
)

// scale5to8 expands a 5-bit channel to 8 bits, rounding to nearest.
func scale5to8(v byte) byte {
	return byte((int(v)*255 + 15) / 31)
}

func rgb5a1ToRGBA8(src []byte, pixels int) []byte {
	dst := make([]byte, pixels*4)
	for i, j := 0, 0; i < pixels*2; i, j = i+2, j+4 {
		// Packed as RRRRRGGG GGBBBBBA
		dst[j+0] = scale5to8((src[i] & 0xf8) >> 3)
		dst[j+1] = scale5to8((src[i]&0x07)<<2 | (src[i+1]&0xc0)>>6)
		dst[j+2] = scale5to8((src[i+1] & 0x3e) >> 1)
		if src[i+1]&0x01 != 0 {
			dst[j+3] = 0xff
		}
	}
	return dst
}

func rgb8ToRGBA8(src []byte, pixels int) []byte {
	dst := make([]byte, pixels*4)
	for i, j := 0, 0; i < pixels*3; i, j = i+3, j+4 {
		dst[j+0] = src[i+0]
		dst[j+1] = src[i+1]
		dst[j+2] = src[i+2]
		dst[j+3] = 0xff
	}
	return dst
}

// checkLevels verifies every level holds at least as many bytes as its
// dimensions need in format f.
func (img *Image) checkLevels(op string, f PixelFormat) error {
	for l, data := range img.Data {
		w, h := img.LevelSize(l)
		if need := ByteSize(f, w, h); len(data) < need {
			return result.Errorf(result.Resolution, op, img.Path, "level %d holds %d of %d bytes", l, len(data), need)
		}
	}
	return nil
}

// Convert changes the pixel format of every level of img to target. The
// image is left untouched if the conversion fails.
func Convert(img *Image, target PixelFormat) error {
	const op = "convert image"

	if img.Format == target {
		return nil
	}

	var convert func([]byte, int) []byte
	switch {
	case img.Format == FormatRGB8 && target == FormatRGBA8:
		convert = rgb8ToRGBA8
	case img.Format == FormatRGB5A1 && target == FormatRGBA8:
		convert = rgb5a1ToRGBA8
	default:
		return result.Errorf(result.UnsupportedConversion, op, img.Path, "%s to %s", img.Format, target)
	}

	if err := img.checkLevels(op, img.Format); err != nil {
		return err
	}

	// Make a new copy of each level in the new format before replacing
	// anything
	levels := make([][]byte, len(img.Data))
	for l, data := range img.Data {
		w, h := img.LevelSize(l)
		levels[l] = convert(data, w*h)
	}

	img.Data = levels
	img.Format = target
	img.ColourFormat = ColourRGBA
	img.Size = ByteSize(img.Format, img.Width, img.Height)

	return nil
}

// FlipVertical mirrors every level of img top to bottom.
func FlipVertical(img *Image) error {
	const op = "flip image"

	bpp := BytesPerPixel(img.Format)
	if bpp == 0 {
		return result.Errorf(result.Unsupported, op, img.Path, "cannot flip images in %s format", img.Format)
	}
	if err := img.checkLevels(op, img.Format); err != nil {
		return err
	}

	stride := img.Width * bpp
	height := img.Height
	swap := make([]byte, stride)

	for _, data := range img.Data {
		for r := 0; r < height/2; r++ {
			top := data[r*stride : (r+1)*stride]
			bottom := data[(height-1-r)*stride : (height-r)*stride]

			copy(swap, top)
			copy(top, bottom)
			copy(bottom, swap[:stride])
		}

		stride = (stride / bpp / 2) * bpp
		height /= 2
	}

	return nil
}

// colourOffset returns the position of the first colour (rather than alpha)
// byte of a pixel.
func colourOffset(c ColourFormat) int {
	switch c {
	case ColourARGB, ColourABGR:
		return 1
	}
	return 0
}

func (img *Image) check8Bit(op string) (int, error) {
	switch img.Format {
	case FormatRGB8, FormatRGBA8:
	default:
		return 0, result.Errorf(result.Unsupported, op, img.Path, "unsupported image format %s", img.Format)
	}
	return BytesPerPixel(img.Format), img.checkLevels(op, img.Format)
}

// InvertColour inverts the colour channels of every pixel, leaving alpha
// alone. Only RGB8 and RGBA8 images are supported.
func InvertColour(img *Image) error {
	bpp, err := img.check8Bit("invert image colour")
	if err != nil {
		return err
	}

	offset := 0
	if bpp == 4 {
		offset = colourOffset(img.ColourFormat)
	}

	for l, data := range img.Data {
		w, h := img.LevelSize(l)
		for i := 0; i < w*h*bpp; i += bpp {
			p := data[i+offset : i+offset+3]
			p[0], p[1], p[2] = ^p[0], ^p[1], ^p[2]
		}
	}

	return nil
}

// ReplaceColour replaces every pixel equal to target with dest. Pixels are
// compared in storage order; pixels without alpha compare as opaque.
func ReplaceColour(img *Image, target, dest color.NRGBA) error {
	bpp, err := img.check8Bit("replace image colour")
	if err != nil {
		return err
	}

	for l, data := range img.Data {
		w, h := img.LevelSize(l)
		for i := 0; i < w*h*bpp; i += bpp {
			p := data[i : i+bpp]
			if bpp == 4 {
				if (color.NRGBA{p[0], p[1], p[2], p[3]}) == target {
					p[0], p[1], p[2], p[3] = dest.R, dest.G, dest.B, dest.A
				}
				continue
			}
			if (color.NRGBA{p[0], p[1], p[2], 0xff}) == target {
				p[0], p[1], p[2] = dest.R, dest.G, dest.B
			}
		}
	}

	return nil
}
