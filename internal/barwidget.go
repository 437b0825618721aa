package internal

import (
	"fmt"
	"image"
	"math"
	"time"
)

// Linux input event codes for pointer buttons.
const (
	BtnLeft   uint32 = 0x110
	BtnRight  uint32 = 0x111
	BtnMiddle uint32 = 0x112
)

const (
	barHeight     = 32
	barFontSize   = 18.0
	barLabelWidth = 130
	barScrollStep = 0.05
)

// barWidget draws a labelled level bar and maps pointer actions onto the
// callbacks of a concrete control. Callbacks left nil make the bar
// display-only.
type barWidget struct {
	name   string
	fonts  *fontCache
	th     theme
	region image.Rectangle

	label  func() string
	level  func() float64
	status func() string
	set    func(float64)
	adjust func(float64)
	toggle func()
}

func (b *barWidget) Name() string { return b.name }

func (b *barWidget) PreferredHeight() int { return b.fonts.px(barHeight) }

func (b *barWidget) Region() image.Rectangle { return b.region }

func (b *barWidget) Layout(r image.Rectangle) { b.region = r }

func (b *barWidget) Tick(time.Time) bool { return false }

func (b *barWidget) statusText() string {
	if b.status != nil {
		return b.status()
	}
	return fmt.Sprintf("%d%%", int(math.Round(clampUnit(b.level())*100)))
}

// barRect is the bar area between the label and the status text, in the
// coordinates of r.
func (b *barWidget) barRect(r image.Rectangle, statusWidth int) image.Rectangle {
	left := r.Min.X + b.fonts.px(barLabelWidth)
	right := r.Max.X - statusWidth - b.fonts.px(12)
	if right <= left {
		return image.Rectangle{}
	}
	pad := b.fonts.px(6)
	return image.Rect(left, r.Min.Y+pad, right, r.Max.Y-pad)
}

func (b *barWidget) HandlePointer(ev PointerEvent) bool {
	switch ev.Kind {
	case pointerScroll:
		if b.adjust == nil {
			return false
		}
		delta := barScrollStep
		if ev.Value > 0 {
			delta = -barScrollStep
		}
		b.adjust(delta)
		return true
	case pointerPress:
		switch ev.Button {
		case BtnRight:
			if b.toggle == nil {
				return false
			}
			b.toggle()
			return true
		case BtnLeft:
			if b.set == nil {
				return false
			}
			face := b.fonts.face(barFontSize, false)
			statusWidth := b.fonts.measure(face, b.statusText())
			local := image.Rect(0, 0, b.region.Dx(), b.region.Dy())
			bar := b.barRect(local, statusWidth)
			if bar.Empty() {
				return false
			}
			x := ev.X - b.region.Min.X
			if x < bar.Min.X || x >= bar.Max.X {
				return false
			}
			b.set(float64(x-bar.Min.X) / float64(bar.Dx()))
			return true
		}
	}
	return false
}

func (b *barWidget) Draw(img *Image) {
	r := img.Bounds()
	face := b.fonts.face(barFontSize, false)
	baseline := (r.Dy()+faceAscent(face))/2 - 1

	b.fonts.drawText(img, b.th.foreground, face, 0, baseline, b.label())

	st := b.statusText()
	statusWidth := b.fonts.measure(face, st)
	b.fonts.drawText(img, b.th.foreground, face, r.Max.X-statusWidth, baseline, st)

	bar := b.barRect(r, statusWidth)
	if !bar.Empty() {
		img.FillBar(bar, clampUnit(b.level()), b.th.dim, b.th.accent)
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
