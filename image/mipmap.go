package image

import (
	"image"

	"github.com/oldtimes-software/hei/result"
	"golang.org/x/image/draw"
)

// MaxLevels returns the length of the longest mip chain an image of the
// given dimensions can have.
func MaxLevels(width, height int) int {
	n := 0
	for width > 0 && height > 0 {
		n++
		width >>= 1
		height >>= 1
	}
	return n
}

// GenerateMipmaps replaces every level after the first with levels-1 newly
// scaled ones. Only RGBA8 images are supported.
func GenerateMipmaps(img *Image, levels int) error {
	const op = "generate mipmaps"

	if img.Format != FormatRGBA8 {
		return result.Errorf(result.Unsupported, op, img.Path, "unsupported image format %s", img.Format)
	}
	if img.Levels() == 0 {
		return result.Errorf(result.Resolution, op, img.Path, "image has no levels")
	}
	if limit := MaxLevels(img.Width, img.Height); levels < 1 || levels > limit {
		return result.Errorf(result.Resolution, op, img.Path, "%d levels requested, %dx%d allows 1 to %d", levels, img.Width, img.Height, limit)
	}
	if err := img.checkLevels(op, img.Format); err != nil {
		return err
	}

	data := make([][]byte, 1, levels)
	data[0] = img.Data[0]

	prev := &image.NRGBA{
		Pix:    data[0],
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	for l := 1; l < levels; l++ {
		w, h := img.LevelSize(l)
		next := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)

		data = append(data, next.Pix)
		prev = next
	}

	img.Data = data
	return nil
}
