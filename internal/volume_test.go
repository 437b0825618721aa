package internal

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAudio struct {
	mu     sync.Mutex
	volume float32
	muted  bool
	volErr error
}

func (f *fakeAudio) Volume() (float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume, f.volErr
}

func (f *fakeAudio) SetVolume(v float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	return nil
}

func (f *fakeAudio) Mute() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted, nil
}

func (f *fakeAudio) SetMute(m bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = m
	return nil
}

func newTestVolume(t *testing.T, fake *fakeAudio) *VolumeWidget {
	t.Helper()
	w := newVolumeWidget(newTestFonts(t), newTheme(DefaultConfig()), fake)
	require.NoError(t, w.refresh())
	w.Layout(image.Rect(0, 100, 400, 132))
	return w
}

func TestVolumeMuteToggleFlipsBar(t *testing.T) {
	fake := &fakeAudio{volume: 0.6}
	w := newTestVolume(t, fake)
	require.InDelta(t, 0.6, w.levelNow(), 0.001)

	rightClick := PointerEvent{Kind: pointerPress, Button: BtnRight}

	assert.True(t, w.HandlePointer(rightClick))
	assert.Equal(t, 0.0, w.levelNow(), "muted bar drops to zero")
	assert.Equal(t, "muted", w.statusNow())
	assert.True(t, fake.muted)

	assert.True(t, w.HandlePointer(rightClick))
	assert.InDelta(t, 0.6, w.levelNow(), 0.001, "unmuting restores the old level")
	assert.Equal(t, "60%", w.statusNow())
	assert.False(t, fake.muted)
}

func TestVolumeScrollClamps(t *testing.T) {
	t.Run("scrolling up stops at full", func(t *testing.T) {
		fake := &fakeAudio{volume: 0.98}
		w := newTestVolume(t, fake)

		up := PointerEvent{Kind: pointerScroll, Value: -1}
		assert.True(t, w.HandlePointer(up))
		assert.True(t, w.HandlePointer(up))

		assert.Equal(t, 1.0, w.levelNow())
		assert.Equal(t, float32(1), fake.volume)
	})

	t.Run("scrolling down stops at zero", func(t *testing.T) {
		fake := &fakeAudio{volume: 0.02}
		w := newTestVolume(t, fake)

		down := PointerEvent{Kind: pointerScroll, Value: 1}
		assert.True(t, w.HandlePointer(down))
		assert.True(t, w.HandlePointer(down))

		assert.Equal(t, 0.0, w.levelNow())
		assert.Equal(t, float32(0), fake.volume)
	})
}

func TestVolumeLeftClickSetsLevel(t *testing.T) {
	fake := &fakeAudio{volume: 0.2, muted: true}
	w := newTestVolume(t, fake)

	face := w.fonts.face(barFontSize, false)
	statusWidth := w.fonts.measure(face, w.statusText())
	bar := w.barRect(image.Rect(0, 0, w.region.Dx(), w.region.Dy()), statusWidth)
	require.False(t, bar.Empty())

	t.Run("a click inside the bar sets and unmutes", func(t *testing.T) {
		mid := w.region.Min.X + bar.Min.X + bar.Dx()/2
		assert.True(t, w.HandlePointer(PointerEvent{Kind: pointerPress, Button: BtnLeft, X: mid}))
		assert.InDelta(t, 0.5, float64(fake.volume), 0.02)
		assert.False(t, fake.muted)
		assert.InDelta(t, 0.5, w.levelNow(), 0.02)
	})

	t.Run("a click on the label does nothing", func(t *testing.T) {
		before := fake.volume
		assert.False(t, w.HandlePointer(PointerEvent{Kind: pointerPress, Button: BtnLeft, X: w.region.Min.X + 5}))
		assert.Equal(t, before, fake.volume)
	})
}

func TestVolumeRefresh(t *testing.T) {
	fake := &fakeAudio{volume: 0.42}
	w := newTestVolume(t, fake)

	fake.volume = 0.84
	require.NoError(t, w.refresh())
	assert.InDelta(t, 0.84, w.levelNow(), 0.001)

	fake.volErr = errors.New("stream gone")
	assert.Error(t, w.refresh())
}

func TestVolumeWatchNotifies(t *testing.T) {
	fake := &fakeAudio{volume: 0.3}
	w := newTestVolume(t, fake)
	updates := make(chan struct{}, 1)
	notify := make(chan Widget, 1)

	go w.watch(updates, notify)
	fake.mu.Lock()
	fake.volume = 0.7
	fake.mu.Unlock()
	updates <- struct{}{}

	select {
	case got := <-notify:
		assert.Same(t, w, got)
		assert.InDelta(t, 0.7, w.levelNow(), 0.001)
	case <-time.After(2 * time.Second):
		t.Fatal("watch never notified")
	}
	close(updates)
}
