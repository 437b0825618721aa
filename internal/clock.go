package internal

import (
	"image"
	"time"
)

const (
	clockDateFormat = "Monday, 02 January 2006"
	clockTimeFormat = "15:04"
	clockDateSize   = 22.0
	clockTimeSize   = 64.0
)

// ClockWidget shows the date and the wall clock time, updating once per
// minute.
type ClockWidget struct {
	fonts  *fontCache
	th     theme
	region image.Rectangle
	shown  time.Time
}

func NewClockWidget(fonts *fontCache, th theme) *ClockWidget {
	return &ClockWidget{
		fonts: fonts,
		th:    th,
		shown: time.Now().Truncate(time.Minute),
	}
}

func (c *ClockWidget) Name() string { return "clock" }

func (c *ClockWidget) PreferredHeight() int {
	date := c.fonts.face(clockDateSize, false)
	tm := c.fonts.face(clockTimeSize, true)
	return faceHeight(date) + faceHeight(tm) + c.fonts.px(18)
}

func (c *ClockWidget) Region() image.Rectangle { return c.region }

func (c *ClockWidget) Layout(r image.Rectangle) { c.region = r }

func (c *ClockWidget) Tick(now time.Time) bool {
	m := now.Truncate(time.Minute)
	if m.Equal(c.shown) {
		return false
	}
	c.shown = m
	return true
}

func (c *ClockWidget) HandlePointer(PointerEvent) bool { return false }

func (c *ClockWidget) Draw(img *Image) {
	r := img.Bounds()
	date := c.fonts.face(clockDateSize, false)
	tm := c.fonts.face(clockTimeSize, true)

	ds := c.shown.Format(clockDateFormat)
	dw := c.fonts.measure(date, ds)
	y := c.fonts.px(6) + faceAscent(date)
	c.fonts.drawText(img, c.th.dim, date, (r.Dx()-dw)/2, y, ds)

	ts := c.shown.Format(clockTimeFormat)
	tw := c.fonts.measure(tm, ts)
	y = c.fonts.px(12) + faceHeight(date) + faceAscent(tm)
	c.fonts.drawText(img, c.th.foreground, tm, (r.Dx()-tw)/2, y, ts)
}
