package internal

import (
	"fmt"
	"math"
	"sync"

	"github.com/lawl/pulseaudio"
)

// audioControl is the slice of the PulseAudio client the volume widget
// talks to.
type audioControl interface {
	Volume() (float32, error)
	SetVolume(float32) error
	Mute() (bool, error)
	SetMute(bool) error
}

// VolumeWidget controls the default sink. Left click sets the level,
// scrolling nudges it, right click toggles mute so the bar flips between
// zero and the last level.
type VolumeWidget struct {
	barWidget
	client audioControl
	pulse  *pulseaudio.Client

	mu     sync.Mutex
	volume float64
	muted  bool
}

// NewVolumeWidget connects to PulseAudio. An error omits the widget.
func NewVolumeWidget(fonts *fontCache, th theme, notify chan<- Widget) (*VolumeWidget, error) {
	pulse, err := pulseaudio.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pulseaudio: %w", err)
	}

	w := newVolumeWidget(fonts, th, pulse)
	w.pulse = pulse
	if err := w.refresh(); err != nil {
		pulse.Close()
		return nil, err
	}

	updates, err := pulse.Updates()
	if err != nil {
		Warn("PulseAudio update stream unavailable: %v", err)
		return w, nil
	}
	go w.watch(updates, notify)

	return w, nil
}

func newVolumeWidget(fonts *fontCache, th theme, client audioControl) *VolumeWidget {
	w := &VolumeWidget{client: client}
	w.barWidget = barWidget{
		name:   "volume",
		fonts:  fonts,
		th:     th,
		label:  func() string { return "volume" },
		level:  w.levelNow,
		status: w.statusNow,
		set:    w.setLevel,
		adjust: w.adjustLevel,
		toggle: w.toggleMute,
	}
	return w
}

func (w *VolumeWidget) refresh() error {
	vol, err := w.client.Volume()
	if err != nil {
		return fmt.Errorf("failed to read volume: %w", err)
	}
	muted, err := w.client.Mute()
	if err != nil {
		return fmt.Errorf("failed to read mute state: %w", err)
	}
	w.mu.Lock()
	w.volume = float64(vol)
	w.muted = muted
	w.mu.Unlock()
	return nil
}

// watch runs until the client closes its update stream.
func (w *VolumeWidget) watch(updates <-chan struct{}, notify chan<- Widget) {
	for range updates {
		if err := w.refresh(); err != nil {
			Warn("Failed to refresh volume: %v", err)
			continue
		}
		notify <- w
	}
}

func (w *VolumeWidget) levelNow() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.muted {
		return 0
	}
	return clampUnit(w.volume)
}

func (w *VolumeWidget) statusNow() string {
	w.mu.Lock()
	muted, vol := w.muted, w.volume
	w.mu.Unlock()
	if muted {
		return "muted"
	}
	return fmt.Sprintf("%d%%", int(math.Round(clampUnit(vol)*100)))
}

func (w *VolumeWidget) setLevel(frac float64) {
	frac = clampUnit(frac)
	w.mu.Lock()
	w.volume = frac
	w.muted = false
	w.mu.Unlock()
	if err := w.client.SetVolume(float32(frac)); err != nil {
		Warn("Failed to set volume: %v", err)
	}
	if err := w.client.SetMute(false); err != nil {
		Warn("Failed to unmute: %v", err)
	}
}

func (w *VolumeWidget) adjustLevel(delta float64) {
	w.mu.Lock()
	v := clampUnit(w.volume + delta)
	w.volume = v
	w.mu.Unlock()
	if err := w.client.SetVolume(float32(v)); err != nil {
		Warn("Failed to set volume: %v", err)
	}
}

// toggleMute mutes or unmutes. The sink keeps its level while muted, so
// unmuting restores the previous bar position.
func (w *VolumeWidget) toggleMute() {
	w.mu.Lock()
	target := !w.muted
	w.muted = target
	w.mu.Unlock()
	if err := w.client.SetMute(target); err != nil {
		Warn("Failed to toggle mute: %v", err)
	}
}

func (w *VolumeWidget) Close() {
	if w.pulse != nil {
		w.pulse.Close()
	}
}
