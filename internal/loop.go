package internal

import (
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// NewPanel assembles a panel from a validated configuration. The
// Wayland connection is not touched until Run.
func NewPanel(cfg Configuration) (*Panel, error) {
	fonts, err := newFontCache(cfg)
	if err != nil {
		return nil, err
	}
	return &Panel{
		cfg:     cfg,
		theme:   newTheme(cfg),
		fonts:   fonts,
		events:  make(chan waylandEvent, 256),
		notify:  make(chan Widget, 64),
		entries: make(chan []DesktopEntry, 4),
		done:    make(chan struct{}),
	}, nil
}

// buildWidgets constructs the widget stack. Widgets whose backing
// sensor is missing are simply left out.
func (p *Panel) buildWidgets() {
	widgets := make([]Widget, 0, 6)
	widgets = append(widgets, NewClockWidget(p.fonts, p.theme))

	if battery, err := NewBatteryWidget(p.fonts, p.theme, p.notify); err != nil {
		Warn("Battery widget unavailable: %v", err)
	} else {
		p.battery = battery
		widgets = append(widgets, battery)
	}
	if backlight, err := NewBacklightWidget(p.fonts, p.theme, p.notify); err != nil {
		Warn("Backlight widget unavailable: %v", err)
	} else {
		p.backlight = backlight
		widgets = append(widgets, backlight)
	}
	if volume, err := NewVolumeWidget(p.fonts, p.theme, p.notify); err != nil {
		Warn("Volume widget unavailable: %v", err)
	} else {
		p.volume = volume
		widgets = append(widgets, volume)
	}

	widgets = append(widgets, NewCalendarWidget(p.fonts, p.theme, p.cfg.Calendar.Sections))

	p.launcher = NewLauncherWidget(p.fonts, p.theme, p.cfg.Launcher, runDetached, p.quit)
	widgets = append(widgets, p.launcher)

	p.tree = newWidgetTree(p.fonts.px(widgetSpacing), widgets...)
}

// Run connects to the compositor and drives the event loop until the
// panel exits or fails. It blocks the calling goroutine.
func (p *Panel) Run() error {
	p.buildWidgets()
	defer p.cleanup()

	if err := p.initWayland(); err != nil {
		return err
	}

	p.index = NewDesktopIndex()
	p.launcher.SetEntries(p.index.Load())
	p.index.Watch(p.entries, p.done)

	p.startDispatch()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	Info("Panel running")
	for {
		select {
		case <-p.done:
			return p.failure
		case s := <-sig:
			Info("Received signal %v, shutting down", s)
			p.quit()
			continue
		case ev := <-p.events:
			p.handleEvent(ev)
		case w := <-p.notify:
			p.seq++
			p.tree.markDirty(w, p.seq)
		case entries := <-p.entries:
			p.launcher.SetEntries(entries)
		case now := <-ticker.C:
			p.seq++
			p.tree.tick(now, p.seq)
		}

		// Fold everything else that already arrived into the same
		// pass, so one commit covers the whole burst.
		p.drain()
		if p.launcher.Flush() {
			p.seq++
			p.tree.markDirty(p.launcher, p.seq)
		}
		p.commitSurfaces()
	}
}

// drain consumes whatever is already queued without blocking.
func (p *Panel) drain() {
	for {
		select {
		case ev := <-p.events:
			p.handleEvent(ev)
		case w := <-p.notify:
			p.seq++
			p.tree.markDirty(w, p.seq)
		case entries := <-p.entries:
			p.launcher.SetEntries(entries)
		default:
			return
		}
	}
}

func (p *Panel) handleEvent(ev waylandEvent) {
	switch ev.kind {
	case evConfigure:
		ev.surface.applyConfigure(ev.serial, ev.width, ev.height)
	case evClosed:
		Warn("Layer surface closed by compositor")
		ev.surface.state = stateClosed
		if err := p.reconcileSurfaces(); err != nil {
			p.fail(err)
		}
	case evRelease:
		ev.buffer.busy = false
	case evFrameDone:
		ev.surface.framePending = false
	case evPointerEnter, evPointerLeave, evPointerMotion, evPointerButton, evPointerAxis:
		p.handlePointerEvent(ev)
	case evKeymap:
		p.keys.loadKeymap(ev.fd, ev.size, ev.format)
	case evKey:
		p.handleKeyEvent(ev)
	case evModifiers:
		p.keys.updateMods(ev.mods[0], ev.mods[1], ev.mods[2], ev.mods[3])
	case evOutputsChanged:
		if err := p.reconcileSurfaces(); err != nil {
			p.fail(err)
		}
	case evFatal:
		p.fail(ev.err)
	}
}

// reconcileSurfaces makes the surface list match the output mode: one
// compositor-placed surface in active mode, one per output in all
// mode. Closed surfaces and surfaces whose output disappeared are torn
// down and replaced.
func (p *Panel) reconcileSurfaces() error {
	outputs := p.outputSnapshot()

	kept := p.surfaces[:0]
	for _, ps := range p.surfaces {
		alive := ps.state != stateClosed
		if alive && ps.output != nil {
			alive = false
			for _, info := range outputs {
				if ps.output == info {
					alive = true
					break
				}
			}
		}
		if alive {
			kept = append(kept, ps)
		} else {
			ps.destroy()
		}
	}
	p.surfaces = kept

	if p.cfg.OutputMode == "all" {
		for _, info := range outputs {
			if p.surfaceFor(info) != nil {
				continue
			}
			ps, err := p.createSurface(info)
			if err != nil {
				return err
			}
			p.surfaces = append(p.surfaces, ps)
		}
	} else if len(p.surfaces) == 0 {
		ps, err := p.createSurface(nil)
		if err != nil {
			return err
		}
		p.surfaces = append(p.surfaces, ps)
	}
	return nil
}

func (p *Panel) surfaceFor(info *outputInfo) *panelSurface {
	for _, ps := range p.surfaces {
		if ps.output == info {
			return ps
		}
	}
	return nil
}

// relayout recomputes widget regions from the first configured
// surface's size and stamps every widget dirty. Panels on every output
// share one layout.
func (p *Panel) relayout() {
	w, h := p.cfg.Width, p.cfg.Height
	for _, ps := range p.surfaces {
		if ps.width > 0 {
			w, h = ps.width, ps.height
			break
		}
	}
	bounds := image.Rect(0, 0, p.fonts.px(w), p.fonts.px(h)).Inset(p.fonts.px(p.cfg.Margin))

	p.seq++
	p.tree.layout(bounds, p.seq)
	for _, ps := range p.surfaces {
		ps.fullDamage = true
	}
}

func (p *Panel) commitSurfaces() {
	for _, ps := range p.surfaces {
		ps.render()
	}
}

// fail records the first fatal error and stops the loop.
func (p *Panel) fail(err error) {
	Error("Fatal: %v", err)
	if p.failure == nil {
		p.failure = err
	}
	p.quit()
}

// quit closes done exactly once. Only the loop goroutine calls it.
func (p *Panel) quit() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

func (p *Panel) cleanup() {
	p.quit()
	for _, ps := range p.surfaces {
		ps.destroy()
	}
	p.surfaces = nil

	if p.battery != nil {
		p.battery.Close()
	}
	if p.volume != nil {
		p.volume.Close()
	}
	if p.backlight != nil {
		p.backlight.Close()
	}
	p.keys.destroy()
}
