package image

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// A 3DF file starts with four newline terminated ASCII lines:
//
//	3df v1.0
//	argb1555
//	lod range: 256 256
//	aspect ratio: 1 1
//
// followed by the raw pixel data of a single level.

const (
	fd3Identifier = "3df "
	fd3MaxLine    = 64
	fd3MaxLOD     = 256
)

var fd3Formats = map[string]PixelFormat{
	"argb1555": FormatRGB5A1,
	"argb4444": FormatRGBA4,
	"rgb565":   FormatRGB565,
}

type fd3Decoder struct {
	r *bufio.Reader

	format        PixelFormat
	width, height int
}

func (d *fd3Decoder) line() (string, error) {
	s, err := vfs.ReadLine(d.r, fd3MaxLine)
	if err != nil {
		return "", result.New(result.FileRead, "decode 3df", "", err)
	}
	return s, nil
}

func (d *fd3Decoder) readHeader() error {
	const op = "decode 3df"

	s, err := d.line()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(s, fd3Identifier) {
		return result.Errorf(result.FileType, op, "", "invalid identifier, expected %q", fd3Identifier)
	}

	if s, err = d.line(); err != nil {
		return err
	}
	format, ok := fd3Formats[strings.TrimRight(s, "\r\n")]
	if !ok {
		return result.Errorf(result.Unsupported, op, "", "unsupported image format %q", strings.TrimSpace(s))
	}
	d.format = format

	if s, err = d.line(); err != nil {
		return err
	}
	if n, _ := fmt.Sscanf(s, "lod range: %d %d", &d.width, &d.height); n != 2 {
		return result.Errorf(result.FileRead, op, "", "failed to read lod range")
	}
	if d.width <= 0 || d.height <= 0 || d.width > fd3MaxLOD || d.height > fd3MaxLOD {
		return result.Errorf(result.Resolution, op, "", "lod range %d %d", d.width, d.height)
	}

	if s, err = d.line(); err != nil {
		return err
	}
	var x, y int
	if n, _ := fmt.Sscanf(s, "aspect ratio: %d %d", &x, &y); n != 2 {
		return result.Errorf(result.FileRead, op, "", "failed to read aspect ratio")
	}
	return d.applyAspect(x, y)
}

// applyAspect shrinks the shorter side of the LOD by the aspect ratio.
func (d *fd3Decoder) applyAspect(x, y int) error {
	switch {
	case y == 1 && (x == 1 || x == 2 || x == 4 || x == 8):
		d.height /= x
	case x == 1 && (y == 2 || y == 4 || y == 8):
		d.width /= y
	default:
		return result.Errorf(result.FileType, "decode 3df", "", "unexpected aspect-ratio: %dx%d", x, y)
	}
	if d.width == 0 || d.height == 0 {
		return result.Errorf(result.Resolution, "decode 3df", "", "aspect ratio %d:%d leaves no pixels", x, y)
	}
	return nil
}

// unpack3dfARGB1555 expands 16-bit 3DF texels to RGBA8. Texels are stored
// high byte first as ARRRRRGG GGGBBBBB and a set A bit marks the texel as
// transparent.
func unpack3dfARGB1555(src []byte) []byte {
	dst := make([]byte, len(src)/2*4)
	for i, j := 0, 0; i+1 < len(src); i, j = i+2, j+4 {
		dst[j+0] = (src[i] & 0x7c) << 1
		dst[j+1] = (src[i]&0x03)<<6 | (src[i+1]&0xe0)>>2
		dst[j+2] = (src[i+1] & 0x1f) << 3
		if src[i]&0x80 == 0 {
			dst[j+3] = 0xff
		}
	}
	return dst
}

func (d *fd3Decoder) decode() (*Image, error) {
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	src := make([]byte, ByteSize(d.format, d.width, d.height))
	if _, err := io.ReadFull(d.r, src); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, result.New(result.FileRead, "decode 3df", "", err)
	}

	switch d.format {
	case FormatRGB5A1:
		return New(unpack3dfARGB1555(src), d.width, d.height, ColourRGBA, FormatRGBA8)
	case FormatRGBA4:
		return New(src, d.width, d.height, ColourARGB, FormatRGBA4)
	default:
		return New(src, d.width, d.height, ColourRGB, d.format)
	}
}

// Decode3DF reads a 3dfx 3DF texture from r. argb1555 textures are
// converted to RGBA8; argb4444 and rgb565 textures are returned in their
// stored format.
func Decode3DF(r io.Reader) (*Image, error) {
	d := fd3Decoder{r: bufio.NewReader(r)}
	return d.decode()
}

// Load3DF reads the 3DF texture at path.
func Load3DF(fsys vfs.FileSystem, path string) (*Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, result.New(result.FileNotFound, "load 3df", path, err)
	}
	defer f.Close()

	img, err := Decode3DF(f)
	if err != nil {
		if e, ok := err.(*result.Error); ok {
			e.Path = path
		}
		return nil, err
	}
	return img, nil
}
