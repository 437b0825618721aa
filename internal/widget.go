package internal

import (
	"image"
	"time"
)

// widgetSpacing is the vertical gap between stacked widgets in logical
// pixels.
const widgetSpacing = 10

// Widget is one rectangular element of the panel. Regions never overlap,
// so pointer routing is a linear scan and damage is the union of the
// dirty widget regions.
type Widget interface {
	// Name identifies the widget in logs.
	Name() string

	// PreferredHeight is the height the widget wants in logical pixels.
	// A negative value claims the space left over after fixed widgets.
	PreferredHeight() int

	// Region is the rectangle assigned by the last Layout call.
	Region() image.Rectangle

	// Layout assigns the widget its rectangle.
	Layout(r image.Rectangle)

	// Tick advances time-derived state and reports whether the widget
	// must be repainted. Sensor widgets are pushed fresh data and
	// never poll here.
	Tick(now time.Time) bool

	// HandlePointer reacts to a pointer event in panel coordinates and
	// reports whether the widget changed.
	HandlePointer(ev PointerEvent) bool

	// Draw paints the widget into img, which is clipped to its region.
	Draw(img *Image)
}

type treeEntry struct {
	widget Widget
	stamp  uint64
}

// WidgetTree owns the vertical widget stack of the panel. Each entry
// carries the dirty generation it was last changed at, so buffers and
// surfaces repaint exactly the widgets that changed since they were
// last current.
type WidgetTree struct {
	entries []treeEntry
	bounds  image.Rectangle
	spacing int
}

// newWidgetTree builds a tree from top to bottom, skipping nil widgets
// so callers can drop the ones whose sensors are absent. spacing is the
// vertical gap in buffer pixels.
func newWidgetTree(spacing int, widgets ...Widget) *WidgetTree {
	if spacing <= 0 {
		spacing = widgetSpacing
	}
	t := &WidgetTree{spacing: spacing}
	for _, w := range widgets {
		if w != nil {
			t.entries = append(t.entries, treeEntry{widget: w})
		}
	}
	return t
}

// layout stacks the widgets top to bottom inside bounds. Fixed-height
// widgets take their preferred height and the remainder is split among
// the flexible ones. Every widget is stamped dirty.
func (t *WidgetTree) layout(bounds image.Rectangle, stamp uint64) {
	t.bounds = bounds
	fixed := 0
	flex := 0
	for _, e := range t.entries {
		if h := e.widget.PreferredHeight(); h < 0 {
			flex++
		} else {
			fixed += h
		}
	}
	gaps := 0
	if len(t.entries) > 1 {
		gaps = (len(t.entries) - 1) * t.spacing
	}
	remain := bounds.Dy() - fixed - gaps
	if remain < 0 {
		remain = 0
	}
	share := 0
	if flex > 0 {
		share = remain / flex
	}

	y := bounds.Min.Y
	for i := range t.entries {
		e := &t.entries[i]
		h := e.widget.PreferredHeight()
		if h < 0 {
			h = share
		}
		if y+h > bounds.Max.Y {
			h = bounds.Max.Y - y
			if h < 0 {
				h = 0
			}
		}
		e.widget.Layout(image.Rect(bounds.Min.X, y, bounds.Max.X, y+h))
		e.stamp = stamp
		y += h + t.spacing
	}
}

// hit finds the widget whose region contains the point.
func (t *WidgetTree) hit(x, y int) Widget {
	for _, e := range t.entries {
		if image.Pt(x, y).In(e.widget.Region()) {
			return e.widget
		}
	}
	return nil
}

func (t *WidgetTree) markDirty(w Widget, stamp uint64) {
	for i := range t.entries {
		if t.entries[i].widget == w {
			t.entries[i].stamp = stamp
			return
		}
	}
}

func (t *WidgetTree) markAllDirty(stamp uint64) {
	for i := range t.entries {
		t.entries[i].stamp = stamp
	}
}

// tick advances every widget, stamping the ones that changed.
func (t *WidgetTree) tick(now time.Time, stamp uint64) bool {
	changed := false
	for i := range t.entries {
		if t.entries[i].widget.Tick(now) {
			t.entries[i].stamp = stamp
			changed = true
		}
	}
	return changed
}

// dirtyAfter returns the widgets stamped later than gen.
func (t *WidgetTree) dirtyAfter(gen uint64) []Widget {
	var ws []Widget
	for _, e := range t.entries {
		if e.stamp > gen {
			ws = append(ws, e.widget)
		}
	}
	return ws
}

// regionsAfter returns the regions of widgets stamped later than gen.
func (t *WidgetTree) regionsAfter(gen uint64) []image.Rectangle {
	var rs []image.Rectangle
	for _, e := range t.entries {
		if e.stamp > gen {
			rs = append(rs, e.widget.Region())
		}
	}
	return rs
}

func (t *WidgetTree) widgets() []Widget {
	ws := make([]Widget, len(t.entries))
	for i, e := range t.entries {
		ws[i] = e.widget
	}
	return ws
}

func (t *WidgetTree) maxStamp() uint64 {
	var m uint64
	for _, e := range t.entries {
		if e.stamp > m {
			m = e.stamp
		}
	}
	return m
}
