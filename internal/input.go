package internal

// wl_pointer button state, pressed vs released.
const pointerStatePressed = 1

// Vertical scroll axis of wl_pointer.axis.
const axisVerticalScroll = 0

// handlePointerEvent updates the tracked cursor position and forwards
// presses and scrolls to the widget under it. Button and axis events
// carry no coordinates, so the last enter or motion position is used;
// that position is only valid while the pointer is on the surface.
// Coordinates arrive surface-local in logical pixels and widgets live
// in buffer pixels.
func (p *Panel) handlePointerEvent(ev waylandEvent) {
	switch ev.kind {
	case evPointerEnter:
		p.pointerInside = true
		p.pointerX = ev.x
		p.pointerY = ev.y
	case evPointerLeave:
		p.pointerInside = false
	case evPointerMotion:
		p.pointerX = ev.x
		p.pointerY = ev.y
	case evPointerButton:
		if !p.pointerInside || ev.state != pointerStatePressed {
			return
		}
		p.routePointer(PointerEvent{
			Kind:   pointerPress,
			Button: ev.button,
		})
	case evPointerAxis:
		if !p.pointerInside || ev.axis != axisVerticalScroll {
			return
		}
		p.routePointer(PointerEvent{
			Kind:  pointerScroll,
			Value: ev.value,
		})
	}
}

func (p *Panel) routePointer(ev PointerEvent) {
	scale := float64(p.cfg.Scale)
	if scale < 1 {
		scale = 1
	}
	ev.X = int(p.pointerX * scale)
	ev.Y = int(p.pointerY * scale)

	w := p.tree.hit(ev.X, ev.Y)
	if w == nil {
		return
	}
	if w.HandlePointer(ev) {
		p.seq++
		p.tree.markDirty(w, p.seq)
	}
}

// handleKeyEvent translates a raw key press and feeds it to the
// launcher, the only keyboard consumer.
func (p *Panel) handleKeyEvent(ev waylandEvent) {
	if p.launcher == nil {
		return
	}
	sym, r := p.keys.translate(ev.key)
	if sym == 0 && r == 0 {
		return
	}
	ctrl, shift := p.keys.modifiers()
	if p.launcher.HandleKey(KeyEvent{Sym: sym, Rune: r, Ctrl: ctrl, Shift: shift}) {
		p.seq++
		p.tree.markDirty(p.launcher, p.seq)
	}
}
