package internal

import (
	"fmt"
	"sync"

	"github.com/neurlang/wayland/wl"
)

// Binding for zwlr_layer_shell_v1, the wlroots layer shell protocol.
// Only the requests and events the panel needs are implemented.

const (
	// LayerShellInterface is the registry global name of the protocol.
	LayerShellInterface = "zwlr_layer_shell_v1"

	// LayerShellVersion is the highest protocol version this binding
	// understands.
	LayerShellVersion = 4
)

// Layers a surface can be rendered on, back to front.
const (
	LayerBackground uint32 = 0
	LayerBottom     uint32 = 1
	LayerTop        uint32 = 2
	LayerOverlay    uint32 = 3
)

// Anchor bits for LayerSurface.SetAnchor.
const (
	AnchorTop    uint32 = 1
	AnchorBottom uint32 = 2
	AnchorLeft   uint32 = 4
	AnchorRight  uint32 = 8
	AnchorAll           = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

// Keyboard interactivity modes for LayerSurface.SetKeyboardInteractivity.
const (
	KeyboardInteractivityNone      uint32 = 0
	KeyboardInteractivityExclusive uint32 = 1
	KeyboardInteractivityOnDemand  uint32 = 2
)

// LayerShell is the zwlr_layer_shell_v1 global.
type LayerShell struct {
	wl.BaseProxy
}

// BindLayerShell binds the layer shell global advertised under name.
func BindLayerShell(registry *wl.Registry, name uint32, version uint32) (*LayerShell, error) {
	if version > LayerShellVersion {
		version = LayerShellVersion
	}
	shell := &LayerShell{}
	registry.Context().Register(shell)
	if err := registry.Bind(name, LayerShellInterface, version, shell); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", LayerShellInterface, err)
	}
	return shell, nil
}

// GetLayerSurface assigns the layer surface role to surface. A nil output
// lets the compositor choose one.
func (sh *LayerShell) GetLayerSurface(surface *wl.Surface, output *wl.Output, layer uint32, namespace string) (*LayerSurface, error) {
	ls := &LayerSurface{}
	// new_id arguments are passed as the proxy itself.
	sh.Context().Register(ls)
	const opcode = 0
	var err error
	if output != nil {
		err = sh.Context().SendRequest(sh, opcode, ls, surface, output, layer, namespace)
	} else {
		// A zero object id is the wire encoding of a null output.
		err = sh.Context().SendRequest(sh, opcode, ls, surface, uint32(0), layer, namespace)
	}
	if err != nil {
		return nil, fmt.Errorf("zwlr_layer_shell_v1.get_layer_surface failed: %w", err)
	}
	return ls, nil
}

// Destroy destroys the layer shell global.
func (sh *LayerShell) Destroy() error {
	const opcode = 1
	err := sh.Context().SendRequest(sh, opcode)
	sh.Context().Unregister(sh.Id())
	return err
}

// Dispatch handles events for the layer shell global, which has none.
func (sh *LayerShell) Dispatch(event *wl.Event) {}

// LayerSurfaceConfigureEvent carries a new size the compositor wants the
// surface to take. It must be acknowledged with AckConfigure.
type LayerSurfaceConfigureEvent struct {
	Serial uint32
	Width  uint32
	Height uint32
}

// LayerSurfaceConfigureHandler receives configure events.
type LayerSurfaceConfigureHandler interface {
	HandleLayerSurfaceConfigure(LayerSurfaceConfigureEvent)
}

// LayerSurfaceClosedEvent means the compositor no longer wants the
// surface shown. The client should destroy it and stop committing.
type LayerSurfaceClosedEvent struct{}

// LayerSurfaceClosedHandler receives closed events.
type LayerSurfaceClosedHandler interface {
	HandleLayerSurfaceClosed(LayerSurfaceClosedEvent)
}

// LayerSurface is the zwlr_layer_surface_v1 role object.
type LayerSurface struct {
	wl.BaseProxy
	mu                sync.RWMutex
	configureHandlers []LayerSurfaceConfigureHandler
	closedHandlers    []LayerSurfaceClosedHandler
}

// SetSize requests a surface size in logical pixels. A zero dimension
// asks the compositor to pick it, which requires anchoring both edges on
// that axis.
func (p *LayerSurface) SetSize(width, height uint32) error {
	const opcode = 0
	return p.Context().SendRequest(p, opcode, width, height)
}

// SetAnchor anchors the surface to a set of Anchor edges.
func (p *LayerSurface) SetAnchor(anchor uint32) error {
	const opcode = 1
	return p.Context().SendRequest(p, opcode, anchor)
}

// SetExclusiveZone reserves screen space along the anchored edge. Zero
// reserves nothing, negative values ignore other exclusive zones.
func (p *LayerSurface) SetExclusiveZone(zone int32) error {
	const opcode = 2
	return p.Context().SendRequest(p, opcode, zone)
}

// SetMargin offsets the surface from its anchored edges.
func (p *LayerSurface) SetMargin(top, right, bottom, left int32) error {
	const opcode = 3
	return p.Context().SendRequest(p, opcode, top, right, bottom, left)
}

// SetKeyboardInteractivity declares how the surface takes keyboard focus.
func (p *LayerSurface) SetKeyboardInteractivity(mode uint32) error {
	const opcode = 4
	return p.Context().SendRequest(p, opcode, mode)
}

// AckConfigure acknowledges a configure event by its serial.
func (p *LayerSurface) AckConfigure(serial uint32) error {
	const opcode = 6
	return p.Context().SendRequest(p, opcode, serial)
}

// Destroy destroys the role object.
func (p *LayerSurface) Destroy() error {
	const opcode = 7
	err := p.Context().SendRequest(p, opcode)
	p.Context().Unregister(p.Id())
	return err
}

// SetLayer moves the surface to another layer. Since version 2.
func (p *LayerSurface) SetLayer(layer uint32) error {
	const opcode = 8
	return p.Context().SendRequest(p, opcode, layer)
}

// AddConfigureHandler registers h for configure events.
func (p *LayerSurface) AddConfigureHandler(h LayerSurfaceConfigureHandler) {
	if h == nil {
		return
	}
	p.mu.Lock()
	p.configureHandlers = append(p.configureHandlers, h)
	p.mu.Unlock()
}

// AddClosedHandler registers h for closed events.
func (p *LayerSurface) AddClosedHandler(h LayerSurfaceClosedHandler) {
	if h == nil {
		return
	}
	p.mu.Lock()
	p.closedHandlers = append(p.closedHandlers, h)
	p.mu.Unlock()
}

// Dispatch decodes layer surface events and fans them out to handlers.
func (p *LayerSurface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0:
		p.mu.RLock()
		handlers := p.configureHandlers
		p.mu.RUnlock()
		if len(handlers) == 0 {
			return
		}
		var ev LayerSurfaceConfigureEvent
		ev.Serial = event.Uint32()
		ev.Width = event.Uint32()
		ev.Height = event.Uint32()
		for _, h := range handlers {
			h.HandleLayerSurfaceConfigure(ev)
		}
	case 1:
		p.mu.RLock()
		handlers := p.closedHandlers
		p.mu.RUnlock()
		for _, h := range handlers {
			h.HandleLayerSurfaceClosed(LayerSurfaceClosedEvent{})
		}
	}
}
