package internal

import (
	"fmt"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	upowerService     = "org.freedesktop.UPower"
	upowerDisplayPath = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
	upowerDeviceIface = "org.freedesktop.UPower.Device"
)

// Battery charge states reported by UPower.
const (
	batteryCharging    uint32 = 1
	batteryDischarging uint32 = 2
	batteryFull        uint32 = 4
)

// BatteryWidget displays the composite battery UPower reports as the
// display device. It is display-only; updates arrive as D-Bus signals.
type BatteryWidget struct {
	barWidget
	conn *dbus.Conn

	mu      sync.Mutex
	percent float64
	state   uint32
}

// NewBatteryWidget connects to UPower and reads the display device. An
// error means there is no battery to show and the widget is omitted.
func NewBatteryWidget(fonts *fontCache, th theme, notify chan<- Widget) (*BatteryWidget, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	w := &BatteryWidget{conn: conn}
	w.barWidget = barWidget{
		name:   "battery",
		fonts:  fonts,
		th:     th,
		label:  func() string { return "battery" },
		level:  w.levelNow,
		status: w.statusNow,
	}

	var present bool
	if err := w.readProp("IsPresent", &present); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to query battery presence: %w", err)
	}
	if !present {
		conn.Close()
		return nil, fmt.Errorf("no battery present")
	}
	if err := w.refresh(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(upowerDisplayPath),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to battery updates: %w", err)
	}

	sig := make(chan *dbus.Signal, 16)
	conn.Signal(sig)
	go w.watch(sig, notify)

	return w, nil
}

func (w *BatteryWidget) readProp(name string, out interface{}) error {
	obj := w.conn.Object(upowerService, upowerDisplayPath)
	return obj.Call("org.freedesktop.DBus.Properties.Get", 0, upowerDeviceIface, name).Store(out)
}

func (w *BatteryWidget) refresh() error {
	var percent float64
	if err := w.readProp("Percentage", &percent); err != nil {
		return fmt.Errorf("failed to read battery percentage: %w", err)
	}
	var state uint32
	if err := w.readProp("State", &state); err != nil {
		return fmt.Errorf("failed to read battery state: %w", err)
	}
	w.mu.Lock()
	w.percent = percent
	w.state = state
	w.mu.Unlock()
	return nil
}

// watch runs until the bus connection closes.
func (w *BatteryWidget) watch(sig <-chan *dbus.Signal, notify chan<- Widget) {
	for s := range sig {
		if s.Path != upowerDisplayPath {
			continue
		}
		if err := w.refresh(); err != nil {
			Warn("Failed to refresh battery state: %v", err)
			continue
		}
		notify <- w
	}
}

func (w *BatteryWidget) levelNow() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return clampUnit(w.percent / 100)
}

func (w *BatteryWidget) statusNow() string {
	w.mu.Lock()
	percent, state := w.percent, w.state
	w.mu.Unlock()
	suffix := ""
	switch state {
	case batteryCharging:
		suffix = "↑"
	case batteryDischarging:
		suffix = "↓"
	}
	return fmt.Sprintf("%d%%%s", int(math.Round(percent)), suffix)
}

func (w *BatteryWidget) Close() {
	if w.conn != nil {
		w.conn.Close()
	}
}
