package internal

import (
	"image/color"
	"sync"

	"github.com/neurlang/wayland/wl"
)

// Panel is the top-level application state. Every field is owned by the
// event loop goroutine once Run starts; protocol handlers only touch it
// during the initial roundtrips and afterwards forward into the events
// channel.
type Panel struct {
	cfg   Configuration
	theme theme
	fonts *fontCache

	display    *wl.Display
	registry   *wl.Registry
	compositor *wl.Compositor
	shm        *wl.Shm
	seat       *wl.Seat
	layerShell *LayerShell

	// outputs is also written by the dispatch goroutine when the
	// compositor announces or removes a wl_output, hence the mutex.
	outputsMu sync.Mutex
	outputs   []*outputInfo
	surfaces  []*panelSurface

	pointer  *wl.Pointer
	keyboard *wl.Keyboard
	keys     keyboardState

	tree      *WidgetTree
	launcher  *LauncherWidget
	battery   *BatteryWidget
	volume    *VolumeWidget
	backlight *BacklightWidget
	index     *DesktopIndex

	events  chan waylandEvent
	notify  chan Widget
	entries chan []DesktopEntry
	done    chan struct{}

	// seq is the dirty generation counter. It advances once per redraw
	// pass so buffers and surfaces can tell which widgets changed since
	// they were last painted.
	seq uint64

	pointerInside bool
	pointerX      float64
	pointerY      float64

	// failure records the first fatal error; Run returns it after the
	// loop winds down.
	failure error
}

type eventKind int

const (
	evConfigure eventKind = iota
	evClosed
	evRelease
	evFrameDone
	evPointerEnter
	evPointerLeave
	evPointerMotion
	evPointerButton
	evPointerAxis
	evKeymap
	evKey
	evModifiers
	evOutputsChanged
	evFatal
)

// waylandEvent is the single envelope the dispatch goroutine forwards to
// the event loop. Which fields are meaningful depends on kind.
type waylandEvent struct {
	kind    eventKind
	surface *panelSurface
	buffer  *poolBuffer
	serial  uint32
	width   uint32
	height  uint32
	x       float64
	y       float64
	button  uint32
	state   uint32
	axis    uint32
	value   float64
	key     uint32
	fd      uintptr
	size    uint32
	format  uint32
	mods    [4]uint32
	err     error
}

type pointerKind int

const (
	pointerPress pointerKind = iota
	pointerScroll
)

// PointerEvent is a pointer action in panel-logical coordinates.
type PointerEvent struct {
	Kind   pointerKind
	X, Y   int
	Button uint32
	Value  float64
}

// KeyEvent is a translated key press delivered to the launcher.
type KeyEvent struct {
	Sym   uint32
	Rune  rune
	Ctrl  bool
	Shift bool
}

// theme holds the parsed palette from the configuration.
type theme struct {
	background color.RGBA
	foreground color.RGBA
	accent     color.RGBA
	dim        color.RGBA
}

func newTheme(cfg Configuration) theme {
	return theme{
		background: mustColor(cfg.Background),
		foreground: mustColor(cfg.Foreground),
		accent:     mustColor(cfg.Accent),
		dim:        mustColor(cfg.DimColor),
	}
}

// outputInfo tracks one wl_output advertised by the registry.
type outputInfo struct {
	output   *wl.Output
	name     uint32
	x, y     int32
	width    int32
	height   int32
	modeDone bool
}
