package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelKeyEventFeedsLauncher(t *testing.T) {
	f := newLoopPanel(t)

	f.p.handleEvent(waylandEvent{kind: evKey, key: 33})

	assert.Equal(t, "f", string(f.p.launcher.input))
	assert.Equal(t, uint64(1), f.p.seq)
	assert.Len(t, f.p.tree.dirtyAfter(0), 1)
}

func TestPanelModifiersAffectTranslation(t *testing.T) {
	f := newLoopPanel(t)

	f.p.handleEvent(waylandEvent{kind: evKey, key: 33})
	f.p.handleEvent(waylandEvent{kind: evModifiers, mods: [4]uint32{rawModShift, 0, 0, 0}})
	f.p.handleEvent(waylandEvent{kind: evKey, key: 33})

	assert.Equal(t, "fF", string(f.p.launcher.input))
}

func TestPanelCtrlClearsInput(t *testing.T) {
	f := newLoopPanel(t)

	f.p.handleEvent(waylandEvent{kind: evKey, key: 33})
	f.p.handleEvent(waylandEvent{kind: evKey, key: 24})
	require.Equal(t, "fo", string(f.p.launcher.input))

	f.p.handleEvent(waylandEvent{kind: evModifiers, mods: [4]uint32{rawModCtrl, 0, 0, 0}})
	f.p.handleEvent(waylandEvent{kind: evKey, key: 22})

	assert.Empty(t, f.p.launcher.input)
}

func TestPanelPointerRouting(t *testing.T) {
	t.Run("press goes to the widget under the cursor", func(t *testing.T) {
		f := newLoopPanel(t)

		f.p.handleEvent(waylandEvent{kind: evPointerEnter, x: 10, y: 20})
		f.p.handleEvent(waylandEvent{kind: evPointerButton, button: BtnLeft, state: 1})

		require.Len(t, f.a.pointer, 1)
		got := f.a.pointer[0]
		assert.Equal(t, pointerPress, got.Kind)
		assert.Equal(t, BtnLeft, got.Button)
		assert.Equal(t, 10, got.X)
		assert.Equal(t, 20, got.Y)
		assert.Equal(t, uint64(1), f.p.seq, "a handled press marks the widget dirty")
	})

	t.Run("release is not routed", func(t *testing.T) {
		f := newLoopPanel(t)

		f.p.handleEvent(waylandEvent{kind: evPointerEnter, x: 10, y: 20})
		f.p.handleEvent(waylandEvent{kind: evPointerButton, button: BtnLeft, state: 0})

		assert.Empty(t, f.a.pointer)
		assert.Zero(t, f.p.seq)
	})

	t.Run("horizontal scroll is ignored", func(t *testing.T) {
		f := newLoopPanel(t)

		f.p.handleEvent(waylandEvent{kind: evPointerEnter, x: 10, y: 20})
		f.p.handleEvent(waylandEvent{kind: evPointerAxis, axis: 1, value: 1})

		assert.Empty(t, f.a.pointer)
	})

	t.Run("coordinates scale from logical to buffer pixels", func(t *testing.T) {
		f := newLoopPanel(t)
		f.p.cfg.Scale = 2

		f.p.handleEvent(waylandEvent{kind: evPointerEnter, x: 10, y: 30})
		f.p.handleEvent(waylandEvent{kind: evPointerAxis, axis: 0, value: 1})

		require.Len(t, f.b.pointer, 1)
		got := f.b.pointer[0]
		assert.Equal(t, pointerScroll, got.Kind)
		assert.Equal(t, 20, got.X)
		assert.Equal(t, 60, got.Y)
		assert.Equal(t, 1.0, got.Value)
		assert.Empty(t, f.a.pointer)
	})

	t.Run("motion moves the routing position", func(t *testing.T) {
		f := newLoopPanel(t)

		f.p.handleEvent(waylandEvent{kind: evPointerEnter, x: 10, y: 20})
		f.p.handleEvent(waylandEvent{kind: evPointerMotion, x: 10, y: 70})
		f.p.handleEvent(waylandEvent{kind: evPointerButton, button: BtnRight, state: 1})

		assert.Empty(t, f.a.pointer)
		require.Len(t, f.b.pointer, 1)
		assert.Equal(t, BtnRight, f.b.pointer[0].Button)
	})

	t.Run("buttons after a leave are dropped", func(t *testing.T) {
		f := newLoopPanel(t)

		f.p.handleEvent(waylandEvent{kind: evPointerEnter, x: 10, y: 20})
		f.p.handleEvent(waylandEvent{kind: evPointerLeave})
		f.p.handleEvent(waylandEvent{kind: evPointerButton, button: BtnLeft, state: 1})

		assert.Empty(t, f.a.pointer)
		assert.False(t, f.p.pointerInside)
	})
}

func TestPanelPointerMissesGaps(t *testing.T) {
	f := newLoopPanel(t)

	// y 55 falls into the spacing between widget a and widget b.
	f.p.handleEvent(waylandEvent{kind: evPointerEnter, x: 10, y: 55})
	f.p.handleEvent(waylandEvent{kind: evPointerButton, button: BtnLeft, state: 1})

	assert.Empty(t, f.a.pointer)
	assert.Empty(t, f.b.pointer)
	assert.Zero(t, f.p.seq)
}
