package image

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

func TestByteSize(t *testing.T) {
	tables := []struct {
		format PixelFormat
		width  int
		height int
		want   int
	}{
		{FormatRGBA4, 4, 4, 32},
		{FormatRGB5A1, 3, 5, 30},
		{FormatRGB565, 2, 2, 8},
		{FormatRGB8, 4, 2, 24},
		{FormatRGBA8, 4, 4, 64},
		{FormatRGBA12, 2, 2, 24},
		{FormatRGBA16, 2, 2, 32},
		{FormatRGBA16F, 1, 1, 8},
		{FormatRGBDXT1, 4, 4, 8},
		{FormatRGBADXT1, 8, 8, 32},
		{FormatRGBADXT3, 4, 4, 16},
		{FormatRGBADXT5, 8, 4, 32},
		{FormatUnknown, 4, 4, 0},
	}

	for _, table := range tables {
		t.Run(table.format.String(), func(t *testing.T) {
			assert.Equal(t, table.want, ByteSize(table.format, table.width, table.height))
		})
	}
}

func TestNew(t *testing.T) {
	img, err := New([]byte{1, 2, 3}, 1, 1, ColourRGB, FormatRGB8)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Levels())
	assert.Equal(t, 3, img.Size)
	assert.Equal(t, []byte{1, 2, 3}, img.Data[0])

	img, err = New(nil, 2, 2, ColourRGBA, FormatRGBA8)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), img.Data[0])

	_, err = New(nil, 0, 2, ColourRGBA, FormatRGBA8)
	assert.True(t, errors.Is(err, result.Resolution))

	_, err = New(nil, 2, 2, ColourRGBA, FormatUnknown)
	assert.True(t, errors.Is(err, result.Unsupported))

	_, err = New(nil, 1<<16, 1<<16, ColourRGBA, FormatRGBA8)
	assert.True(t, errors.Is(err, result.Allocation))

	_, err = New([]byte{1, 2}, 1, 1, ColourRGB, FormatRGB8)
	assert.True(t, errors.Is(err, result.FileRead))
}

func TestDestroy(t *testing.T) {
	var img *Image
	assert.NotPanics(t, img.Destroy)
	assert.Equal(t, 0, img.Levels())

	img = &Image{}
	assert.NotPanics(t, img.Destroy)

	img, err := New(nil, 2, 2, ColourRGBA, FormatRGBA8)
	require.NoError(t, err)
	img.Destroy()
	img.Destroy()
	assert.Equal(t, 0, img.Levels())
	assert.Equal(t, 0, img.Size)
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, (&Image{Width: 256, Height: 64}).IsPowerOfTwo())
	assert.False(t, (&Image{Width: 256, Height: 48}).IsPowerOfTwo())
	assert.False(t, (&Image{}).IsPowerOfTwo())
}

func TestConvertRGB5A1(t *testing.T) {
	tables := []struct {
		src  []byte
		want []byte
	}{
		{[]byte{0xff, 0xff}, []byte{0xff, 0xff, 0xff, 0xff}},
		{[]byte{0xf8, 0x01}, []byte{0xff, 0x00, 0x00, 0xff}},
		{[]byte{0x07, 0xc0}, []byte{0x00, 0xff, 0x00, 0x00}},
		{[]byte{0x00, 0x3e}, []byte{0x00, 0x00, 0xff, 0x00}},
		{[]byte{0x80, 0x00}, []byte{0x84, 0x00, 0x00, 0x00}},
	}

	for _, table := range tables {
		img, err := New(table.src, 1, 1, ColourRGBA, FormatRGB5A1)
		require.NoError(t, err)
		require.NoError(t, Convert(img, FormatRGBA8))

		assert.Equal(t, FormatRGBA8, img.Format)
		assert.Equal(t, ColourRGBA, img.ColourFormat)
		assert.Equal(t, 4, img.Size)
		assert.Equal(t, table.want, img.Data[0])
	}
}

func TestConvertAllLevels(t *testing.T) {
	img := &Image{
		Width:        2,
		Height:       2,
		Format:       FormatRGB8,
		ColourFormat: ColourRGB,
		Data: [][]byte{
			{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
			{13, 14, 15},
		},
	}

	require.NoError(t, Convert(img, FormatRGBA8))
	assert.Equal(t, []byte{1, 2, 3, 255, 4, 5, 6, 255, 7, 8, 9, 255, 10, 11, 12, 255}, img.Data[0])
	assert.Equal(t, []byte{13, 14, 15, 255}, img.Data[1])
	assert.Equal(t, 16, img.Size)

	// Already in the target format
	require.NoError(t, Convert(img, FormatRGBA8))
}

func TestConvertUnsupported(t *testing.T) {
	img, err := New([]byte{1, 2, 3, 4}, 2, 1, ColourRGB, FormatRGB565)
	require.NoError(t, err)

	err = Convert(img, FormatRGBA8)
	assert.True(t, errors.Is(err, result.UnsupportedConversion))
	assert.Equal(t, FormatRGB565, img.Format)
	assert.Equal(t, []byte{1, 2, 3, 4}, img.Data[0])

	// A short level fails before anything is touched
	img = &Image{Width: 2, Height: 2, Format: FormatRGB8, ColourFormat: ColourRGB, Data: [][]byte{{1, 2, 3}}}
	err = Convert(img, FormatRGBA8)
	assert.True(t, errors.Is(err, result.Resolution))
	assert.Equal(t, FormatRGB8, img.Format)
}

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestFlipVertical(t *testing.T) {
	original := [][]byte{sequence(64), sequence(16), sequence(4)}
	img := &Image{
		Width:        4,
		Height:       4,
		Format:       FormatRGBA8,
		ColourFormat: ColourRGBA,
		Data: [][]byte{
			append([]byte(nil), original[0]...),
			append([]byte(nil), original[1]...),
			append([]byte(nil), original[2]...),
		},
	}

	require.NoError(t, FlipVertical(img))
	assert.Equal(t, original[0][48:64], img.Data[0][0:16])
	assert.Equal(t, original[1][8:16], img.Data[1][0:8])
	assert.Equal(t, original[2], img.Data[2])

	require.NoError(t, FlipVertical(img))
	assert.Equal(t, original, img.Data)
}

func TestFlipVerticalUnsupported(t *testing.T) {
	data := sequence(8)
	img := &Image{Width: 4, Height: 4, Format: FormatRGBDXT1, Data: [][]byte{data}}

	err := FlipVertical(img)
	assert.True(t, errors.Is(err, result.Unsupported))
	assert.Equal(t, sequence(8), img.Data[0])
}

func TestInvertColour(t *testing.T) {
	tables := []struct {
		name   string
		format PixelFormat
		colour ColourFormat
		src    []byte
		want   []byte
	}{
		{"rgba", FormatRGBA8, ColourRGBA, []byte{10, 20, 30, 40}, []byte{245, 235, 225, 40}},
		{"argb", FormatRGBA8, ColourARGB, []byte{40, 10, 20, 30}, []byte{40, 245, 235, 225}},
		{"rgb", FormatRGB8, ColourRGB, []byte{0, 128, 255}, []byte{255, 127, 0}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			img, err := New(table.src, 1, 1, table.colour, table.format)
			require.NoError(t, err)
			require.NoError(t, InvertColour(img))
			assert.Equal(t, table.want, img.Data[0])
		})
	}

	img, err := New([]byte{1, 2}, 1, 1, ColourRGBA, FormatRGB5A1)
	require.NoError(t, err)
	assert.True(t, errors.Is(InvertColour(img), result.Unsupported))
	assert.Equal(t, []byte{1, 2}, img.Data[0])
}

func TestReplaceColour(t *testing.T) {
	img, err := New([]byte{1, 2, 3, 255, 4, 5, 6, 255}, 2, 1, ColourRGBA, FormatRGBA8)
	require.NoError(t, err)

	require.NoError(t, ReplaceColour(img, color.NRGBA{1, 2, 3, 255}, color.NRGBA{}))
	assert.Equal(t, []byte{0, 0, 0, 0, 4, 5, 6, 255}, img.Data[0])

	img, err = New([]byte{255, 0, 255, 1, 1, 1}, 2, 1, ColourRGB, FormatRGB8)
	require.NoError(t, err)

	require.NoError(t, ReplaceColour(img, color.NRGBA{255, 0, 255, 255}, color.NRGBA{9, 9, 9, 0}))
	assert.Equal(t, []byte{9, 9, 9, 1, 1, 1}, img.Data[0])

	img, err = New(nil, 1, 1, ColourRGB, FormatRGB565)
	require.NoError(t, err)
	assert.True(t, errors.Is(ReplaceColour(img, color.NRGBA{}, color.NRGBA{}), result.Unsupported))
}

func TestToImage(t *testing.T) {
	img, err := New([]byte{40, 30, 20, 10}, 1, 1, ColourABGR, FormatRGBA8)
	require.NoError(t, err)

	m, err := img.ToImage(0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{10, 20, 30, 40}, m.At(0, 0))

	_, err = img.ToImage(1)
	assert.True(t, errors.Is(err, result.Resolution))

	img.ColourFormat = ColourUnknown
	_, err = img.ToImage(0)
	assert.True(t, errors.Is(err, result.Unsupported))
}

func TestGenerateMipmaps(t *testing.T) {
	assert.Equal(t, 3, MaxLevels(4, 4))
	assert.Equal(t, 2, MaxLevels(8, 2))
	assert.Equal(t, 0, MaxLevels(0, 4))

	img, err := New(bytes.Repeat([]byte{200, 100, 50, 255}, 16), 4, 4, ColourRGBA, FormatRGBA8)
	require.NoError(t, err)

	require.NoError(t, GenerateMipmaps(img, 3))
	require.Equal(t, 3, img.Levels())
	assert.Len(t, img.Data[1], 16)
	assert.Equal(t, []byte{200, 100, 50, 255}, img.Data[2])

	assert.True(t, errors.Is(GenerateMipmaps(img, 4), result.Resolution))
	assert.True(t, errors.Is(GenerateMipmaps(img, 0), result.Resolution))

	rgb, err := New(nil, 4, 4, ColourRGB, FormatRGB8)
	require.NoError(t, err)
	assert.True(t, errors.Is(GenerateMipmaps(rgb, 2), result.Unsupported))
}

func build3DF(format string, lod, aspect string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString("3df v1.0\n")
	b.WriteString(format + "\n")
	b.WriteString("lod range: " + lod + "\n")
	b.WriteString("aspect ratio: " + aspect + "\n")
	b.Write(data)
	return b.Bytes()
}

func TestDecode3DF(t *testing.T) {
	data := bytes.Repeat([]byte{0x7c, 0x00, 0x83, 0xff}, 8)

	img, err := Decode3DF(bytes.NewReader(build3DF("argb1555", "4 4", "1 1", data)))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 4, img.Height)
	assert.Equal(t, FormatRGBA8, img.Format)
	assert.Equal(t, ColourRGBA, img.ColourFormat)
	assert.Equal(t, []byte{0xf8, 0x00, 0x00, 0xff, 0x00, 0xf8, 0xf8, 0x00}, img.Data[0][:8])

	img, err = Decode3DF(bytes.NewReader(build3DF("argb4444", "2 2", "1 1", sequence(8))))
	require.NoError(t, err)
	assert.Equal(t, FormatRGBA4, img.Format)
	assert.Equal(t, ColourARGB, img.ColourFormat)
	assert.Equal(t, sequence(8), img.Data[0])

	img, err = Decode3DF(bytes.NewReader(build3DF("rgb565", "2 2", "1 1", sequence(8))))
	require.NoError(t, err)
	assert.Equal(t, FormatRGB565, img.Format)
	assert.Equal(t, ColourRGB, img.ColourFormat)
}

func TestDecode3DFAspect(t *testing.T) {
	tables := []struct {
		aspect string
		width  int
		height int
	}{
		{"1 1", 8, 8},
		{"2 1", 8, 4},
		{"4 1", 8, 2},
		{"8 1", 8, 1},
		{"1 2", 4, 8},
		{"1 4", 2, 8},
		{"1 8", 1, 8},
	}

	for _, table := range tables {
		t.Run(table.aspect, func(t *testing.T) {
			data := make([]byte, table.width*table.height*2)
			img, err := Decode3DF(bytes.NewReader(build3DF("rgb565", "8 8", table.aspect, data)))
			require.NoError(t, err)
			assert.Equal(t, table.width, img.Width)
			assert.Equal(t, table.height, img.Height)
		})
	}
}

func TestDecode3DFRejects(t *testing.T) {
	tables := []struct {
		name string
		file []byte
		kind result.Kind
	}{
		{"identifier", []byte("4df v1.0\nrgb565\n"), result.FileType},
		{"format", build3DF("yiq422", "1 1", "1 1", nil), result.Unsupported},
		{"lod syntax", build3DF("rgb565", "a b", "1 1", nil), result.FileRead},
		{"lod too large", build3DF("rgb565", "512 512", "1 1", nil), result.Resolution},
		{"lod zero", build3DF("rgb565", "0 8", "1 1", nil), result.Resolution},
		{"aspect", build3DF("rgb565", "8 8", "3 1", nil), result.FileType},
		{"aspect square", build3DF("rgb565", "8 8", "2 2", nil), result.FileType},
		{"aspect syntax", build3DF("rgb565", "8 8", "wide", nil), result.FileRead},
		{"aspect too narrow", build3DF("rgb565", "4 4", "8 1", nil), result.Resolution},
		{"short data", build3DF("rgb565", "4 4", "1 1", make([]byte, 31)), result.FileRead},
		{"empty", nil, result.FileRead},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Decode3DF(bytes.NewReader(table.file))
			assert.True(t, errors.Is(err, table.kind), "got %v", err)
		})
	}
}

func TestLoad3DF(t *testing.T) {
	fsys := vfs.FromFS(fstest.MapFS{
		"tex/good.3df": &fstest.MapFile{Data: build3DF("rgb565", "1 1", "1 1", []byte{1, 2})},
		"tex/bad.3df":  &fstest.MapFile{Data: []byte("nope\n")},
	})

	_, err := Load3DF(fsys, "tex/good.3df")
	require.NoError(t, err)

	_, err = Load3DF(fsys, "tex/bad.3df")
	require.Error(t, err)
	var e *result.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "tex/bad.3df", e.Path)

	_, err = Load3DF(fsys, "tex/missing.3df")
	assert.True(t, errors.Is(err, result.FileNotFound))
}

func TestEncodeRoundTrip(t *testing.T) {
	src := []byte{
		255, 0, 0, 255, 0, 255, 0, 128,
		0, 0, 255, 0, 10, 20, 30, 255,
	}
	img, err := New(src, 2, 2, ColourRGBA, FormatRGBA8)
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, Encode(&b, img, "PNG"))

	got, err := DecodeRaster(&b, "png")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Width)
	assert.Equal(t, 2, got.Height)
	assert.Equal(t, src, got.Data[0])
}

func TestEncodeFormats(t *testing.T) {
	img, err := New(bytes.Repeat([]byte{20, 40, 60}, 16), 4, 4, ColourRGB, FormatRGB8)
	require.NoError(t, err)

	for _, ext := range WriteExtensions() {
		t.Run(ext, func(t *testing.T) {
			var b bytes.Buffer
			require.NoError(t, Encode(&b, img, ext))
			assert.NotZero(t, b.Len())

			got, err := DecodeRaster(&b, ext)
			require.NoError(t, err)
			assert.Equal(t, 4, got.Width)
			assert.Equal(t, 4, got.Height)
		})
	}
}

func TestEncodeConverts(t *testing.T) {
	img, err := New([]byte{0xf8, 0x01}, 1, 1, ColourRGBA, FormatRGB5A1)
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, Encode(&b, img, "png"))
	assert.Equal(t, FormatRGB5A1, img.Format)

	got, err := DecodeRaster(&b, "png")
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255}, got.Data[0])
}

func TestEncodeRejects(t *testing.T) {
	img, err := New(nil, 1, 1, ColourRGBA, FormatRGBA8)
	require.NoError(t, err)

	err = Encode(&bytes.Buffer{}, img, "xcf")
	assert.True(t, errors.Is(err, result.FileType))

	img.ColourFormat = ColourUnknown
	err = Encode(&bytes.Buffer{}, img, "png")
	assert.True(t, errors.Is(err, result.Unsupported))

	err = Encode(&bytes.Buffer{}, &Image{ColourFormat: ColourRGBA}, "png")
	assert.True(t, errors.Is(err, result.Resolution))
}

func TestDecodeRasterRejects(t *testing.T) {
	_, err := DecodeRaster(strings.NewReader("data"), "xcf")
	assert.True(t, errors.Is(err, result.Unsupported))

	_, err = DecodeRaster(strings.NewReader("not a png"), "png")
	assert.True(t, errors.Is(err, result.FileRead))
}

func TestLoadRaster(t *testing.T) {
	img, err := New([]byte{1, 2, 3, 255}, 1, 1, ColourRGBA, FormatRGBA8)
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, Encode(&b, img, "png"))

	fsys := vfs.FromFS(fstest.MapFS{
		"a.png": &fstest.MapFile{Data: b.Bytes()},
		"b.png": &fstest.MapFile{Data: []byte("junk")},
	})

	got, err := LoadRaster(fsys, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 255}, got.Data[0])

	_, err = LoadRaster(fsys, "b.png")
	var e *result.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "b.png", e.Path)

	_, err = LoadRaster(fsys, "c.png")
	assert.True(t, errors.Is(err, result.FileNotFound))
}
