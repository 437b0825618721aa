package internal

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopFixture struct {
	p *Panel
	a *stubWidget
	b *stubWidget
}

// newLoopPanel wires a panel with stub widgets and no Wayland
// connection. The tree is laid out so pointer routing has real regions:
// a spans y 0..50, b spans y 60..160, the launcher takes the rest.
func newLoopPanel(t *testing.T) *loopFixture {
	t.Helper()
	cfg := DefaultConfig()
	p := &Panel{
		cfg:     cfg,
		theme:   newTheme(cfg),
		fonts:   newTestFonts(t),
		events:  make(chan waylandEvent, 64),
		notify:  make(chan Widget, 16),
		entries: make(chan []DesktopEntry, 2),
		done:    make(chan struct{}),
	}
	p.launcher = NewLauncherWidget(p.fonts, p.theme, cfg.Launcher, nil, p.quit)
	a := &stubWidget{name: "a", height: 50, handle: true}
	b := &stubWidget{name: "b", height: 100, handle: true}
	p.tree = newWidgetTree(10, a, b, p.launcher)
	p.tree.layout(image.Rect(0, 0, 400, 300), 0)
	return &loopFixture{p: p, a: a, b: b}
}

func TestPanelDrainCoalescesBurst(t *testing.T) {
	f := newLoopPanel(t)
	ps := &panelSurface{framePending: true}

	f.p.notify <- f.a
	f.p.notify <- f.b
	f.p.notify <- f.a
	f.p.events <- waylandEvent{kind: evFrameDone, surface: ps}

	f.p.drain()

	assert.Zero(t, len(f.p.events))
	assert.Zero(t, len(f.p.notify))
	assert.Equal(t, uint64(3), f.p.seq)
	assert.False(t, ps.framePending)
	// The whole burst lands in one pass: both widgets are dirty against
	// the pre-burst generation and exactly one is dirty against the
	// middle one.
	assert.Len(t, f.p.tree.dirtyAfter(0), 2)
	assert.Equal(t, []Widget{f.a}, f.p.tree.dirtyAfter(2))
}

func TestPanelReleaseEvent(t *testing.T) {
	f := newLoopPanel(t)
	buf := &poolBuffer{busy: true}

	f.p.handleEvent(waylandEvent{kind: evRelease, buffer: buf})

	assert.False(t, buf.busy)
}

func TestPanelRelayout(t *testing.T) {
	t.Run("without surfaces the configured size is used", func(t *testing.T) {
		f := newLoopPanel(t)
		f.p.cfg.Width, f.p.cfg.Height = 300, 500
		f.p.cfg.Margin = 10

		f.p.relayout()

		assert.Equal(t, image.Rect(10, 10, 290, 490), f.p.tree.bounds)
		assert.Equal(t, uint64(1), f.p.seq)
		assert.Len(t, f.p.tree.dirtyAfter(0), 3, "a relayout stamps every widget")
	})

	t.Run("a configured surface wins and gets full damage", func(t *testing.T) {
		f := newLoopPanel(t)
		f.p.cfg.Margin = 0
		ps := &panelSurface{width: 800, height: 400, state: stateConfigured}
		f.p.surfaces = []*panelSurface{ps}

		f.p.relayout()

		assert.Equal(t, image.Rect(0, 0, 800, 400), f.p.tree.bounds)
		assert.True(t, ps.fullDamage)
	})

	t.Run("scale multiplies the layout bounds", func(t *testing.T) {
		f := newLoopPanel(t)
		f.p.cfg.Width, f.p.cfg.Height = 300, 500
		f.p.cfg.Margin = 5
		f.p.cfg.Scale = 2

		f.p.relayout()

		assert.Equal(t, image.Rect(10, 10, 590, 990), f.p.tree.bounds)
	})
}

func TestPanelQuitIsIdempotent(t *testing.T) {
	f := newLoopPanel(t)

	f.p.quit()
	f.p.quit()

	select {
	case <-f.p.done:
	default:
		t.Fatal("done channel not closed")
	}
}

func TestPanelFailKeepsFirstError(t *testing.T) {
	f := newLoopPanel(t)
	first := errors.New("first failure")

	f.p.fail(first)
	f.p.fail(errors.New("second failure"))

	assert.Equal(t, first, f.p.failure)
	select {
	case <-f.p.done:
	default:
		t.Fatal("done channel not closed")
	}
}

func TestPanelFatalEvent(t *testing.T) {
	f := newLoopPanel(t)

	f.p.handleEvent(waylandEvent{kind: evFatal, err: errors.New("connection lost")})

	require.Error(t, f.p.failure)
	assert.Equal(t, "connection lost", f.p.failure.Error())
}
