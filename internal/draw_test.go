package internal

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImage(w, h int) *Image {
	return newImage(make([]byte, w*h*4), w*4, w, h)
}

func TestImagePixelLayout(t *testing.T) {
	img := newTestImage(4, 4)
	c := color.RGBA{R: 1, G: 2, B: 3, A: 4}

	img.SetRGBA(0, 0, c)

	// ARGB8888 little endian stores B, G, R, A.
	assert.Equal(t, []byte{3, 2, 1, 4}, img.Pix[:4])
	assert.Equal(t, c, img.At(0, 0))
}

func TestImageOutOfBoundsAccess(t *testing.T) {
	img := newTestImage(4, 4)

	img.Set(-1, 0, color.RGBA{R: 0xff, A: 0xff})
	img.Set(4, 4, color.RGBA{R: 0xff, A: 0xff})

	assert.Equal(t, color.RGBA{}, img.At(-1, 0))
	assert.Equal(t, color.RGBA{}, img.At(4, 4))
	for _, b := range img.Pix {
		require.Zero(t, b)
	}
}

func TestImageFill(t *testing.T) {
	img := newTestImage(8, 8)
	red := color.RGBA{R: 0xff, A: 0xff}

	img.Fill(image.Rect(2, 2, 5, 5), red)

	assert.Equal(t, red, img.At(2, 2))
	assert.Equal(t, red, img.At(4, 4))
	assert.Equal(t, color.RGBA{}, img.At(5, 5), "max corner is exclusive")
	assert.Equal(t, color.RGBA{}, img.At(1, 2))
	assert.Equal(t, color.RGBA{}, img.At(2, 1))
}

func TestImageFillClipsToBounds(t *testing.T) {
	img := newTestImage(4, 4)
	red := color.RGBA{R: 0xff, A: 0xff}

	img.Fill(image.Rect(-5, -5, 2, 2), red)
	img.Fill(image.Rect(3, 3, 100, 100), red)

	assert.Equal(t, red, img.At(0, 0))
	assert.Equal(t, red, img.At(1, 1))
	assert.Equal(t, color.RGBA{}, img.At(2, 2))
	assert.Equal(t, red, img.At(3, 3))
}

func TestImageSubImage(t *testing.T) {
	t.Run("view is zero based and shares pixels", func(t *testing.T) {
		img := newTestImage(8, 8)
		sub := img.SubImage(image.Rect(2, 2, 6, 6))

		assert.Equal(t, image.Rect(0, 0, 4, 4), sub.Bounds())

		c := color.RGBA{G: 0xff, A: 0xff}
		sub.SetRGBA(0, 0, c)
		assert.Equal(t, c, img.At(2, 2))

		img.SetRGBA(3, 3, c)
		assert.Equal(t, c, sub.At(1, 1))
	})

	t.Run("clipped to the parent", func(t *testing.T) {
		img := newTestImage(8, 8)
		sub := img.SubImage(image.Rect(6, 6, 12, 12))
		assert.Equal(t, image.Rect(0, 0, 2, 2), sub.Bounds())
	})

	t.Run("disjoint region is empty and inert", func(t *testing.T) {
		img := newTestImage(4, 4)
		sub := img.SubImage(image.Rect(10, 10, 12, 12))

		assert.True(t, sub.Bounds().Empty())
		sub.Fill(image.Rect(0, 0, 100, 100), color.RGBA{R: 0xff, A: 0xff})
		for _, b := range img.Pix {
			require.Zero(t, b)
		}
	})
}

func TestImageFillBar(t *testing.T) {
	line := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	fill := color.RGBA{G: 0xff, A: 0xff}

	t.Run("half full", func(t *testing.T) {
		img := newTestImage(20, 8)
		img.FillBar(image.Rect(0, 0, 20, 8), 0.5, line, fill)

		assert.Equal(t, line, img.At(0, 0))
		assert.Equal(t, line, img.At(19, 7))
		assert.Equal(t, line, img.At(10, 0))
		assert.Equal(t, line, img.At(0, 4))

		// Interior spans x 2..18; half of it is 8 columns.
		assert.Equal(t, fill, img.At(2, 3))
		assert.Equal(t, fill, img.At(9, 3))
		assert.Equal(t, color.RGBA{}, img.At(10, 3))
		assert.Equal(t, color.RGBA{}, img.At(17, 3))
	})

	t.Run("empty and overfull clamp", func(t *testing.T) {
		img := newTestImage(20, 8)
		img.FillBar(image.Rect(0, 0, 20, 8), -0.5, line, fill)
		assert.Equal(t, color.RGBA{}, img.At(3, 3))

		img.FillBar(image.Rect(0, 0, 20, 8), 1.5, line, fill)
		assert.Equal(t, fill, img.At(17, 3))
	})

	t.Run("degenerate bar draws outline only", func(t *testing.T) {
		img := newTestImage(4, 4)
		img.FillBar(image.Rect(0, 0, 3, 3), 0.5, line, fill)
		assert.Equal(t, line, img.At(0, 0))
	})
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ffffff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"#ff0000", color.RGBA{R: 0xff, A: 0xff}},
		{"#ffffff80", color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x80}},
		{"#00ff0080", color.RGBA{G: 0x80, A: 0x80}},
		{"#80402000", color.RGBA{}},
		{" #000000 ", color.RGBA{A: 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "values are alpha premultiplied")
		})
	}

	for _, bad := range []string{"", "red", "#12", "#12345", "#gggggg", "#1234567"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := parseColor(bad)
			assert.Error(t, err)
		})
	}
}

func TestMustColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, mustColor("#ff0000"))
	assert.Equal(t, color.RGBA{A: 0xff}, mustColor("not a color"), "falls back to opaque black")
}
