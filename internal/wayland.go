package internal

import (
	"fmt"
	"time"

	"github.com/neurlang/wayland/wl"
	"github.com/neurlang/wayland/wlclient"
)

var _ wl.RegistryGlobalHandler = (*Panel)(nil)
var _ wl.RegistryGlobalRemoveHandler = (*Panel)(nil)
var _ wl.SeatCapabilitiesHandler = (*Panel)(nil)
var _ wl.KeyboardKeyHandler = (*Panel)(nil)
var _ wl.KeyboardEnterHandler = (*Panel)(nil)
var _ wl.KeyboardLeaveHandler = (*Panel)(nil)
var _ wl.KeyboardKeymapHandler = (*Panel)(nil)
var _ wl.KeyboardModifiersHandler = (*Panel)(nil)
var _ wl.PointerEnterHandler = (*Panel)(nil)
var _ wl.PointerLeaveHandler = (*Panel)(nil)
var _ wl.PointerMotionHandler = (*Panel)(nil)
var _ wl.PointerButtonHandler = (*Panel)(nil)
var _ wl.PointerAxisHandler = (*Panel)(nil)

// handlerFunc adapts a closure to the output geometry handler interface.
type handlerFunc func(wl.OutputGeometryEvent)

func (f handlerFunc) HandleOutputGeometry(ev wl.OutputGeometryEvent) {
	f(ev)
}

type outputModeHandlerFunc func(wl.OutputModeEvent)

func (f outputModeHandlerFunc) HandleOutputMode(ev wl.OutputModeEvent) {
	f(ev)
}

// initWayland connects to the display and binds every global the panel
// needs. It leaves the connection fully roundtripped: globals bound,
// outputs described, input devices set up and the initial surfaces
// created and committed.
func (p *Panel) initWayland() error {
	conn, err := wlclient.DisplayConnect(nil)
	if err != nil {
		return fmt.Errorf("failed to connect to Wayland display: %w", err)
	}
	p.display = conn

	registry, err := conn.GetRegistry()
	if err != nil {
		return fmt.Errorf("failed to get registry: %w", err)
	}
	p.registry = registry

	registry.AddGlobalHandler(p)
	registry.AddGlobalRemoveHandler(p)

	if err := wlclient.DisplayRoundtrip(conn); err != nil {
		return fmt.Errorf("failed to process registry events: %w", err)
	}

	if p.compositor == nil {
		return fmt.Errorf("compositor does not provide wl_compositor")
	}
	if p.shm == nil {
		return fmt.Errorf("compositor does not provide wl_shm")
	}
	if p.layerShell == nil {
		return fmt.Errorf("compositor does not provide %s", LayerShellInterface)
	}

	// Second roundtrip delivers output geometry, seat capabilities and
	// the keymap for the devices bound above.
	if err := wlclient.DisplayRoundtrip(conn); err != nil {
		return fmt.Errorf("failed to process output events: %w", err)
	}

	if err := p.reconcileSurfaces(); err != nil {
		return err
	}

	if err := wlclient.DisplayRoundtrip(conn); err != nil {
		return fmt.Errorf("failed to process surface creation: %w", err)
	}

	return nil
}

// startDispatch pumps protocol events on a goroutine until the loop
// signals done or the connection fails.
func (p *Panel) startDispatch() {
	go func() {
		for {
			select {
			case <-p.done:
				return
			default:
				if err := wlclient.DisplayDispatch(p.display); err != nil {
					Error("Failed to dispatch Wayland events: %v", err)
					select {
					case p.events <- waylandEvent{kind: evFatal, err: err}:
					case <-p.done:
					}
					return
				}
				time.Sleep(10 * time.Millisecond)
			}
		}
	}()
}

func (p *Panel) HandleRegistryGlobal(ev wl.RegistryGlobalEvent) {
	Debug("Registry global: name=%d interface=%s version=%d", ev.Name, ev.Interface, ev.Version)

	switch ev.Interface {
	case "wl_compositor":
		p.compositor = wlclient.RegistryBindCompositorInterface(p.registry, ev.Name, 4)
	case "wl_shm":
		p.shm = wlclient.RegistryBindShmInterface(p.registry, ev.Name, 1)
	case "wl_seat":
		p.seat = wlclient.RegistryBindSeatInterface(p.registry, ev.Name, 7)
		p.seat.AddCapabilitiesHandler(p)
	case "wl_output":
		output := wlclient.RegistryBindOutputInterface(p.registry, ev.Name, 3)
		p.addOutput(&outputInfo{output: output, name: ev.Name})
	case LayerShellInterface:
		shell, err := BindLayerShell(p.registry, ev.Name, ev.Version)
		if err != nil {
			Error("Failed to bind layer shell: %v", err)
			return
		}
		p.layerShell = shell
	}
}

func (p *Panel) HandleRegistryGlobalRemove(ev wl.RegistryGlobalRemoveEvent) {
	p.outputsMu.Lock()
	removed := false
	for i, info := range p.outputs {
		if info.name == ev.Name {
			p.outputs = append(p.outputs[:i], p.outputs[i+1:]...)
			removed = true
			break
		}
	}
	p.outputsMu.Unlock()
	if removed {
		Debug("Output %d removed", ev.Name)
		p.outputsChanged()
	}
}

// addOutput registers the geometry and mode handlers for a new output
// and publishes it to the loop.
func (p *Panel) addOutput(info *outputInfo) {
	info.output.AddGeometryHandler(handlerFunc(func(ev wl.OutputGeometryEvent) {
		p.outputsMu.Lock()
		info.x = ev.X
		info.y = ev.Y
		p.outputsMu.Unlock()
	}))
	info.output.AddModeHandler(outputModeHandlerFunc(func(ev wl.OutputModeEvent) {
		if ev.Flags&wl.OutputModeCurrent == 0 {
			return
		}
		p.outputsMu.Lock()
		info.width = ev.Width
		info.height = ev.Height
		info.modeDone = true
		p.outputsMu.Unlock()
		p.outputsChanged()
	}))

	p.outputsMu.Lock()
	p.outputs = append(p.outputs, info)
	p.outputsMu.Unlock()
	p.outputsChanged()
}

// outputsChanged nudges the loop to reconcile surfaces. The send is
// best effort: a full channel already holds a wakeup.
func (p *Panel) outputsChanged() {
	select {
	case p.events <- waylandEvent{kind: evOutputsChanged}:
	default:
	}
}

// outputSnapshot copies the output list for use by the loop goroutine.
func (p *Panel) outputSnapshot() []*outputInfo {
	p.outputsMu.Lock()
	defer p.outputsMu.Unlock()
	out := make([]*outputInfo, len(p.outputs))
	copy(out, p.outputs)
	return out
}

func (p *Panel) HandleSeatCapabilities(ev wl.SeatCapabilitiesEvent) {
	Debug("Seat capabilities: %d", ev.Capabilities)

	if ev.Capabilities&wl.SeatCapabilityKeyboard != 0 {
		if p.keyboard == nil {
			keyboard, err := p.seat.GetKeyboard()
			if err != nil {
				Error("Failed to get keyboard: %v", err)
			} else {
				p.keyboard = keyboard
				keyboard.AddKeyHandler(p)
				keyboard.AddKeymapHandler(p)
				keyboard.AddModifiersHandler(p)
				keyboard.AddEnterHandler(p)
				keyboard.AddLeaveHandler(p)
			}
		}
	} else {
		p.keyboard = nil
	}

	if ev.Capabilities&wl.SeatCapabilityPointer != 0 {
		if p.pointer == nil {
			pointer, err := p.seat.GetPointer()
			if err != nil {
				Error("Failed to get pointer: %v", err)
			} else {
				p.pointer = pointer
				pointer.AddEnterHandler(p)
				pointer.AddLeaveHandler(p)
				pointer.AddMotionHandler(p)
				pointer.AddButtonHandler(p)
				pointer.AddAxisHandler(p)
			}
		}
	} else {
		p.pointer = nil
	}
}

func (p *Panel) HandleKeyboardKeymap(ev wl.KeyboardKeymapEvent) {
	Debug("Keyboard keymap: format=%d size=%d", ev.Format, ev.Size)
	p.events <- waylandEvent{kind: evKeymap, fd: ev.Fd, size: ev.Size, format: ev.Format}
}

func (p *Panel) HandleKeyboardKey(ev wl.KeyboardKeyEvent) {
	if ev.State != 1 {
		return
	}
	p.events <- waylandEvent{kind: evKey, key: ev.Key}
}

func (p *Panel) HandleKeyboardModifiers(ev wl.KeyboardModifiersEvent) {
	p.events <- waylandEvent{
		kind: evModifiers,
		mods: [4]uint32{ev.ModsDepressed, ev.ModsLatched, ev.ModsLocked, ev.Group},
	}
}

func (p *Panel) HandleKeyboardEnter(ev wl.KeyboardEnterEvent) {
	Debug("Keyboard focus gained")
}

func (p *Panel) HandleKeyboardLeave(ev wl.KeyboardLeaveEvent) {
	Debug("Keyboard focus lost")
}

func (p *Panel) HandlePointerEnter(ev wl.PointerEnterEvent) {
	p.events <- waylandEvent{
		kind: evPointerEnter,
		x:    float64(ev.SurfaceX),
		y:    float64(ev.SurfaceY),
	}
}

func (p *Panel) HandlePointerLeave(ev wl.PointerLeaveEvent) {
	p.events <- waylandEvent{kind: evPointerLeave}
}

func (p *Panel) HandlePointerMotion(ev wl.PointerMotionEvent) {
	p.events <- waylandEvent{
		kind: evPointerMotion,
		x:    float64(ev.SurfaceX),
		y:    float64(ev.SurfaceY),
	}
}

func (p *Panel) HandlePointerButton(ev wl.PointerButtonEvent) {
	p.events <- waylandEvent{
		kind:   evPointerButton,
		button: ev.Button,
		state:  ev.State,
	}
}

func (p *Panel) HandlePointerAxis(ev wl.PointerAxisEvent) {
	p.events <- waylandEvent{
		kind:  evPointerAxis,
		axis:  ev.Axis,
		value: float64(ev.Value),
	}
}
