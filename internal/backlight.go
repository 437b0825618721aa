package internal

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const backlightRoot = "/sys/class/backlight"

// BacklightWidget controls the first backlight device under sysfs. Left
// click sets the level, scrolling nudges it within its range, right
// click jumps to full brightness or, from there, to zero.
type BacklightWidget struct {
	barWidget
	dir string
	max int

	mu  sync.Mutex
	cur int

	watcher *fsnotify.Watcher
}

// NewBacklightWidget picks the first device under /sys/class/backlight.
// An error means there is none and the widget is omitted.
func NewBacklightWidget(fonts *fontCache, th theme, notify chan<- Widget) (*BacklightWidget, error) {
	entries, err := os.ReadDir(backlightRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", backlightRoot, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no backlight device found")
	}
	w, err := newBacklightWidgetAt(filepath.Join(backlightRoot, entries[0].Name()), fonts, th)
	if err != nil {
		return nil, err
	}
	w.startWatch(notify)
	return w, nil
}

func newBacklightWidgetAt(dir string, fonts *fontCache, th theme) (*BacklightWidget, error) {
	max, err := readSysfsInt(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return nil, fmt.Errorf("failed to read max brightness: %w", err)
	}
	if max <= 0 {
		return nil, fmt.Errorf("backlight %s reports max brightness %d", dir, max)
	}
	cur, err := readSysfsInt(filepath.Join(dir, "brightness"))
	if err != nil {
		return nil, fmt.Errorf("failed to read brightness: %w", err)
	}

	w := &BacklightWidget{dir: dir, max: max, cur: cur}
	w.barWidget = barWidget{
		name:   "backlight",
		fonts:  fonts,
		th:     th,
		label:  func() string { return "backlight" },
		level:  w.levelNow,
		set:    w.setLevel,
		adjust: w.adjustLevel,
		toggle: w.toggleExtreme,
	}
	return w, nil
}

// startWatch follows external brightness changes. sysfs inotify support
// varies between drivers, so this is best effort.
func (w *BacklightWidget) startWatch(notify chan<- Widget) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		Warn("Backlight watcher unavailable: %v", err)
		return
	}
	if err := watcher.Add(w.dir); err != nil {
		Warn("Failed to watch %s: %v", w.dir, err)
		watcher.Close()
		return
	}
	w.watcher = watcher

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				base := filepath.Base(ev.Name)
				if base != "brightness" && base != "actual_brightness" {
					continue
				}
				cur, err := readSysfsInt(filepath.Join(w.dir, "brightness"))
				if err != nil {
					continue
				}
				w.mu.Lock()
				changed := cur != w.cur
				w.cur = cur
				w.mu.Unlock()
				if changed {
					notify <- w
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				Warn("Backlight watcher error: %v", err)
			}
		}
	}()
}

func (w *BacklightWidget) levelNow() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return clampUnit(float64(w.cur) / float64(w.max))
}

func (w *BacklightWidget) setLevel(frac float64) {
	w.apply(int(math.Round(clampUnit(frac) * float64(w.max))))
}

func (w *BacklightWidget) adjustLevel(delta float64) {
	w.mu.Lock()
	cur := w.cur
	w.mu.Unlock()
	w.apply(cur + int(math.Round(delta*float64(w.max))))
}

func (w *BacklightWidget) toggleExtreme() {
	w.mu.Lock()
	cur := w.cur
	w.mu.Unlock()
	if cur < w.max {
		w.apply(w.max)
	} else {
		w.apply(0)
	}
}

func (w *BacklightWidget) apply(target int) {
	if target < 0 {
		target = 0
	} else if target > w.max {
		target = w.max
	}
	w.mu.Lock()
	w.cur = target
	w.mu.Unlock()
	path := filepath.Join(w.dir, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(target)), 0o644); err != nil {
		Warn("Failed to write brightness: %v", err)
	}
}

func (w *BacklightWidget) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func readSysfsInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
