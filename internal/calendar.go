package internal

import (
	"fmt"
	"image"
	"time"
)

const (
	calendarHeaderSize = 18.0
	calendarDaySize    = 16.0
)

// CalendarWidget renders a row of month sections centered on a focused
// month. Scrolling moves the focus, clicking the left or right third
// steps it, clicking the middle jumps back to the current month.
type CalendarWidget struct {
	fonts    *fontCache
	th       theme
	region   image.Rectangle
	sections int
	focus    time.Time
	today    time.Time
}

func NewCalendarWidget(fonts *fontCache, th theme, sections int) *CalendarWidget {
	if sections < 1 {
		sections = 1
	}
	now := time.Now()
	return &CalendarWidget{
		fonts:    fonts,
		th:       th,
		sections: sections,
		focus:    firstOfMonth(now),
		today:    now,
	}
}

func (c *CalendarWidget) Name() string { return "calendar" }

func (c *CalendarWidget) PreferredHeight() int {
	header := c.fonts.face(calendarHeaderSize, true)
	day := c.fonts.face(calendarDaySize, false)
	// Header, weekday row and up to six week rows.
	return faceHeight(header) + c.fonts.px(8) + 7*(faceHeight(day)+c.fonts.px(6)) + c.fonts.px(8)
}

func (c *CalendarWidget) Region() image.Rectangle { return c.region }

func (c *CalendarWidget) Layout(r image.Rectangle) { c.region = r }

func (c *CalendarWidget) Tick(now time.Time) bool {
	if sameDate(now, c.today) {
		c.today = now
		return false
	}
	c.today = now
	return true
}

func (c *CalendarWidget) HandlePointer(ev PointerEvent) bool {
	switch ev.Kind {
	case pointerScroll:
		if ev.Value > 0 {
			c.focus = c.focus.AddDate(0, 1, 0)
		} else {
			c.focus = c.focus.AddDate(0, -1, 0)
		}
		return true
	case pointerPress:
		if ev.Button != BtnLeft {
			return false
		}
		third := c.region.Dx() / 3
		switch {
		case ev.X < c.region.Min.X+third:
			c.focus = c.focus.AddDate(0, -1, 0)
		case ev.X >= c.region.Max.X-third:
			c.focus = c.focus.AddDate(0, 1, 0)
		default:
			c.focus = firstOfMonth(c.today)
		}
		return true
	}
	return false
}

func (c *CalendarWidget) Draw(img *Image) {
	r := img.Bounds()
	width := r.Dx() / c.sections
	for i := 0; i < c.sections; i++ {
		month := c.focus.AddDate(0, i-c.sections/2, 0)
		sec := image.Rect(r.Min.X+i*width, r.Min.Y, r.Min.X+(i+1)*width, r.Max.Y)
		c.drawMonth(img, sec, month)
	}
}

func (c *CalendarWidget) drawMonth(img *Image, r image.Rectangle, month time.Time) {
	header := c.fonts.face(calendarHeaderSize, true)
	day := c.fonts.face(calendarDaySize, false)

	title := month.Format("January 2006")
	tw := c.fonts.measure(header, title)
	y := r.Min.Y + faceAscent(header) + c.fonts.px(2)
	c.fonts.drawText(img, c.th.foreground, header, r.Min.X+(r.Dx()-tw)/2, y, title)

	// Eight columns, ISO week number first and Monday through Sunday.
	cell := r.Dx() / 8
	rowH := faceHeight(day) + c.fonts.px(6)
	y = r.Min.Y + faceHeight(header) + c.fonts.px(8) + faceAscent(day)
	names := [...]string{"Wk", "Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	for i, n := range names {
		x := r.Min.X + i*cell + (cell-c.fonts.measure(day, n))/2
		c.fonts.drawText(img, c.th.dim, day, x, y, n)
	}

	first := firstOfMonth(month)
	offset := (int(first.Weekday()) + 6) % 7
	days := daysInMonth(month)

	for d := 1; d <= days; d++ {
		row := (offset + d - 1) / 7
		col := (offset + d - 1) % 7
		date := first.AddDate(0, 0, d-1)
		cy := y + (row+1)*rowH

		if col == 0 || d == 1 {
			_, wk := date.ISOWeek()
			s := fmt.Sprintf("%d", wk)
			x := r.Min.X + (cell-c.fonts.measure(day, s))/2
			c.fonts.drawText(img, c.th.dim, day, x, cy, s)
		}

		s := fmt.Sprintf("%d", d)
		x := r.Min.X + (col+1)*cell + (cell-c.fonts.measure(day, s))/2
		fg := c.th.foreground
		if sameDate(date, c.today) {
			box := image.Rect(
				r.Min.X+(col+1)*cell, cy-faceAscent(day)-c.fonts.px(2),
				r.Min.X+(col+2)*cell, cy+c.fonts.px(4),
			)
			img.Fill(box, c.th.accent)
			fg = c.th.background
		}
		c.fonts.drawText(img, fg, day, x, cy, s)
	}
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
