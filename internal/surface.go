package internal

import (
	"fmt"
	"image"

	"github.com/neurlang/wayland/wl"
)

type surfaceState int

const (
	stateUnconfigured surfaceState = iota
	stateConfigured
	stateCommitted
	stateClosed
)

// panelSurface is one layer surface together with its buffer pool and
// commit bookkeeping. committedSeq is the dirty generation the
// compositor last saw from this surface.
type panelSurface struct {
	panel   *Panel
	surface *wl.Surface
	layer   *LayerSurface
	output  *outputInfo // nil when the compositor picks the output
	pool    *bufferPool

	state        surfaceState
	width        int // logical pixels
	height       int
	committedSeq uint64
	framePending bool
	fullDamage   bool
}

// createSurface builds a layer surface on the given output, or lets the
// compositor place it when out is nil. The role is committed; the first
// buffer follows on configure.
func (p *Panel) createSurface(out *outputInfo) (*panelSurface, error) {
	surface, err := p.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("failed to create surface: %w", err)
	}
	var wlOut *wl.Output
	if out != nil {
		wlOut = out.output
	}
	layer, err := p.layerShell.GetLayerSurface(surface, wlOut, LayerOverlay, "fancydash")
	if err != nil {
		return nil, err
	}

	ps := &panelSurface{panel: p, surface: surface, layer: layer, output: out}
	ps.pool = newBufferPool(p.shm, func(b *poolBuffer) {
		p.events <- waylandEvent{kind: evRelease, surface: ps, buffer: b}
	})
	layer.AddConfigureHandler(ps)
	layer.AddClosedHandler(ps)

	layer.SetSize(uint32(p.cfg.Width), uint32(p.cfg.Height))
	layer.SetAnchor(AnchorAll)
	layer.SetExclusiveZone(int32(p.cfg.ExclusiveZone))
	layer.SetKeyboardInteractivity(KeyboardInteractivityExclusive)
	if err := surface.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit surface role: %w", err)
	}
	return ps, nil
}

var _ LayerSurfaceConfigureHandler = (*panelSurface)(nil)
var _ LayerSurfaceClosedHandler = (*panelSurface)(nil)

// HandleLayerSurfaceConfigure forwards a configure to the event loop.
func (ps *panelSurface) HandleLayerSurfaceConfigure(ev LayerSurfaceConfigureEvent) {
	ps.panel.events <- waylandEvent{
		kind:    evConfigure,
		surface: ps,
		serial:  ev.Serial,
		width:   ev.Width,
		height:  ev.Height,
	}
}

// HandleLayerSurfaceClosed forwards a closed event to the event loop.
func (ps *panelSurface) HandleLayerSurfaceClosed(LayerSurfaceClosedEvent) {
	ps.panel.events <- waylandEvent{kind: evClosed, surface: ps}
}

type frameListener struct {
	ps *panelSurface
}

var _ wl.CallbackDoneHandler = (*frameListener)(nil)

func (f *frameListener) HandleCallbackDone(wl.CallbackDoneEvent) {
	f.ps.panel.events <- waylandEvent{kind: evFrameDone, surface: f.ps}
}

// applyConfigure acknowledges a configure and adopts the new size. A
// zero dimension means the compositor leaves it to the client, which
// falls back to the configured panel size. The first frame is painted
// right here rather than waiting for another wakeup.
func (ps *panelSurface) applyConfigure(serial, width, height uint32) {
	if ps.state == stateClosed {
		return
	}
	ps.layer.AckConfigure(serial)

	w, h := int(width), int(height)
	if w == 0 {
		w = ps.panel.cfg.Width
	}
	if h == 0 {
		h = ps.panel.cfg.Height
	}
	resized := w != ps.width || h != ps.height
	ps.width = w
	ps.height = h
	if ps.state == stateUnconfigured {
		ps.state = stateConfigured
	}
	if resized {
		ps.fullDamage = true
		ps.panel.relayout()
	}
	ps.render()
}

// render paints the widgets that changed since this surface last
// committed and commits exactly once. It returns quietly when the
// compositor still owes a frame callback or holds every buffer; the
// dirty state stays recorded in the tree stamps and the release or
// frame event triggers another pass.
func (ps *panelSurface) render() {
	if ps.state == stateUnconfigured || ps.state == stateClosed {
		return
	}
	if ps.framePending {
		return
	}
	tree := ps.panel.tree
	if !ps.fullDamage && ps.state == stateCommitted && len(tree.dirtyAfter(ps.committedSeq)) == 0 {
		return
	}

	scale := ps.panel.cfg.Scale
	if scale < 1 {
		scale = 1
	}
	buf, err := ps.pool.acquire(ps.width*scale, ps.height*scale)
	if err != nil {
		ps.panel.fail(fmt.Errorf("buffer allocation failed: %w", err))
		return
	}
	if buf == nil {
		return
	}

	img := buf.image()
	bg := ps.panel.theme.background

	full := buf.drawn == 0 || ps.fullDamage
	if full {
		img.Fill(img.Bounds(), bg)
		for _, w := range tree.widgets() {
			w.Draw(img.SubImage(w.Region()))
		}
	} else {
		// Bring the buffer up to date before applying this pass.
		for _, w := range tree.dirtyAfter(buf.drawn) {
			r := w.Region()
			img.Fill(r, bg)
			w.Draw(img.SubImage(r))
		}
	}
	damage := commitDamage(full, tree.regionsAfter(ps.committedSeq), ps.width, ps.height, scale)

	if callback, err := ps.surface.Frame(); err == nil {
		callback.AddDoneHandler(&frameListener{ps: ps})
		ps.framePending = true
	} else {
		Warn("Frame callback unavailable: %v", err)
	}

	ps.surface.Attach(buf.wlBuf, 0, 0)
	if scale > 1 {
		ps.surface.SetBufferScale(int32(scale))
	}
	for _, r := range damage {
		ps.surface.Damage(int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()))
	}
	ps.surface.Commit()

	seq := tree.maxStamp()
	buf.drawn = seq
	ps.committedSeq = seq
	ps.fullDamage = false
	ps.state = stateCommitted
}

func (ps *panelSurface) destroy() {
	ps.state = stateClosed
	if ps.layer != nil {
		ps.layer.Destroy()
		ps.layer = nil
	}
	if ps.surface != nil {
		ps.surface.Destroy()
		ps.surface = nil
	}
	ps.pool.destroy()
}

// commitDamage produces the damage rectangles reported with a commit: a
// single full-surface rectangle after a resize or on a fresh buffer,
// otherwise the changed regions converted to logical coordinates.
func commitDamage(full bool, regions []image.Rectangle, width, height, scale int) []image.Rectangle {
	if full {
		return []image.Rectangle{image.Rect(0, 0, width, height)}
	}
	out := make([]image.Rectangle, 0, len(regions))
	for _, r := range regions {
		out = append(out, scaleDown(r, scale))
	}
	return out
}

// scaleDown converts a buffer rectangle to logical coordinates,
// rounding outward.
func scaleDown(r image.Rectangle, scale int) image.Rectangle {
	if scale <= 1 {
		return r
	}
	return image.Rect(
		r.Min.X/scale, r.Min.Y/scale,
		(r.Max.X+scale-1)/scale, (r.Max.Y+scale-1)/scale,
	)
}
