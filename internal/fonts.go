package internal

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

type faceKey struct {
	bold bool
	size float64
}

// fontCache parses the panel fonts once and hands out faces per size.
// It also carries the buffer scale, so sizes passed in are logical and
// come out in buffer pixels.
type fontCache struct {
	mu      sync.Mutex
	scale   int
	regular *sfnt.Font
	bold    *sfnt.Font
	faces   map[faceKey]font.Face
}

// newFontCache loads the configured font file, or the bundled Go fonts
// when none is configured. A configured file serves both weights.
func newFontCache(cfg Configuration) (*fontCache, error) {
	scale := cfg.Scale
	if scale < 1 {
		scale = 1
	}
	fc := &fontCache{scale: scale, faces: make(map[faceKey]font.Face)}
	if cfg.Font != "" {
		data, err := os.ReadFile(cfg.Font)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", cfg.Font, err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", cfg.Font, err)
		}
		fc.regular = f
		fc.bold = f
		return fc, nil
	}
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundled font: %w", err)
	}
	bld, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundled bold font: %w", err)
	}
	fc.regular = reg
	fc.bold = bld
	return fc, nil
}

// px converts a logical pixel measure to buffer pixels.
func (fc *fontCache) px(n int) int { return n * fc.scale }

func (fc *fontCache) face(size float64, bold bool) font.Face {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	key := faceKey{bold: bold, size: size}
	if f, ok := fc.faces[key]; ok {
		return f
	}
	src := fc.regular
	if bold {
		src = fc.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size * float64(fc.scale),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		Warn("Failed to create %gpx font face: %v", size, err)
		return nil
	}
	fc.faces[key] = f
	return f
}

// drawText renders s with its baseline at (x, y) and returns the advance
// in pixels.
func (fc *fontCache) drawText(dst *Image, c color.RGBA, face font.Face, x, y int, s string) int {
	if face == nil || s == "" {
		return 0
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	start := d.Dot.X
	d.DrawString(s)
	return (d.Dot.X - start).Round()
}

func (fc *fontCache) measure(face font.Face, s string) int {
	if face == nil {
		return 0
	}
	return font.MeasureString(face, s).Round()
}

func faceAscent(face font.Face) int {
	if face == nil {
		return 0
	}
	return face.Metrics().Ascent.Round()
}

func faceHeight(face font.Face) int {
	if face == nil {
		return 0
	}
	m := face.Metrics()
	return (m.Ascent + m.Descent).Round()
}
