package internal

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Image wraps a shared-memory pixel buffer in the ARGB8888 little-endian
// layout the compositor expects (bytes B, G, R, A). Values are
// alpha-premultiplied, same as color.RGBA, so the standard draw and font
// packages can render straight into it.
type Image struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func newImage(pix []byte, stride int, width, height int) *Image {
	return &Image{
		Pix:    pix,
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func (m *Image) ColorModel() color.Model { return color.RGBAModel }

func (m *Image) Bounds() image.Rectangle { return m.Rect }

func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return color.RGBA{}
	}
	i := m.pixOffset(x, y)
	return color.RGBA{
		B: m.Pix[i+0],
		G: m.Pix[i+1],
		R: m.Pix[i+2],
		A: m.Pix[i+3],
	}
}

func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return
	}
	m.SetRGBA(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}

func (m *Image) SetRGBA(x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return
	}
	i := m.pixOffset(x, y)
	m.Pix[i+0] = c.B
	m.Pix[i+1] = c.G
	m.Pix[i+2] = c.R
	m.Pix[i+3] = c.A
}

func (m *Image) pixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*4
}

// SubImage returns a view sharing the same pixels, clipped to r. Widgets
// get one of these per draw call so nobody can paint outside its region.
func (m *Image) SubImage(r image.Rectangle) *Image {
	r = r.Intersect(m.Rect)
	if r.Empty() {
		return &Image{}
	}
	return &Image{
		Pix:    m.Pix[(r.Min.Y-m.Rect.Min.Y)*m.Stride+(r.Min.X-m.Rect.Min.X)*4:],
		Stride: m.Stride,
		Rect:   r.Sub(r.Min),
	}
}

// Fill paints r with c. The first row is written pixel by pixel, the
// remaining rows are copied from it.
func (m *Image) Fill(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(m.Rect)
	if r.Empty() {
		return
	}
	first := m.pixOffset(r.Min.X, r.Min.Y)
	rowLen := r.Dx() * 4
	for i := 0; i < rowLen; i += 4 {
		m.Pix[first+i+0] = c.B
		m.Pix[first+i+1] = c.G
		m.Pix[first+i+2] = c.R
		m.Pix[first+i+3] = c.A
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		row := m.pixOffset(r.Min.X, y)
		copy(m.Pix[row:row+rowLen], m.Pix[first:first+rowLen])
	}
}

// FillBar draws a horizontal level bar: a one-pixel outline in line color
// and the left fraction of the interior filled.
func (m *Image) FillBar(r image.Rectangle, fraction float64, line, fill color.RGBA) {
	r = r.Intersect(m.Rect)
	if r.Empty() {
		return
	}
	m.Fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), line)
	m.Fill(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), line)
	m.Fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), line)
	m.Fill(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), line)

	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	// image.Rect would canonicalize a negative-sized interior into a
	// real rectangle, so build it by hand and let Empty catch it.
	inner := image.Rectangle{
		Min: image.Point{X: r.Min.X + 2, Y: r.Min.Y + 2},
		Max: image.Point{X: r.Max.X - 2, Y: r.Max.Y - 2},
	}
	if inner.Empty() {
		return
	}
	w := int(float64(inner.Dx()) * fraction)
	if w > 0 {
		m.Fill(image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+w, inner.Max.Y), fill)
	}
}

// parseColor parses "#rrggbb" or "#rrggbbaa" into an alpha-premultiplied
// color.
func parseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q must be #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q is not valid hex: %w", s, err)
	}
	var r, g, b, a uint32
	if len(h) == 6 {
		r = uint32(v>>16) & 0xff
		g = uint32(v>>8) & 0xff
		b = uint32(v) & 0xff
		a = 0xff
	} else {
		r = uint32(v>>24) & 0xff
		g = uint32(v>>16) & 0xff
		b = uint32(v>>8) & 0xff
		a = uint32(v) & 0xff
	}
	return color.RGBA{
		R: uint8(r * a / 255),
		G: uint8(g * a / 255),
		B: uint8(b * a / 255),
		A: uint8(a),
	}, nil
}

// mustColor is parseColor for values already checked by ValidateConfig.
func mustColor(s string) color.RGBA {
	c, err := parseColor(s)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}
