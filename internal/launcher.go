package internal

import (
	"image"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

const launcherFontSize = 20.0

// LauncherMode selects how the input line is interpreted.
type LauncherMode int

const (
	ModeApplication LauncherMode = iota
	ModeCommand
	ModeCalculator
)

// Candidate is one selectable launcher row.
type Candidate struct {
	Display string
	Entry   DesktopEntry
	Score   int
	Index   int
}

// LauncherWidget is the interactive prompt at the bottom of the panel.
// A leading "!" runs the rest verbatim as a shell command, a leading "="
// evaluates it as an expression, anything else fuzzy-matches the
// application index.
type LauncherWidget struct {
	fonts  *fontCache
	th     theme
	region image.Rectangle
	cfg    LauncherConfig

	entries  []DesktopEntry
	input    []rune
	cursor   int
	filtered []Candidate
	selected int
	result   string
	stale    bool

	run  func(string)
	exit func()
}

func NewLauncherWidget(fonts *fontCache, th theme, cfg LauncherConfig, run func(string), exit func()) *LauncherWidget {
	return &LauncherWidget{
		fonts:    fonts,
		th:       th,
		cfg:      cfg,
		selected: -1,
		run:      run,
		exit:     exit,
	}
}

func (l *LauncherWidget) Name() string { return "launcher" }

func (l *LauncherWidget) PreferredHeight() int { return -1 }

func (l *LauncherWidget) Region() image.Rectangle { return l.region }

func (l *LauncherWidget) Layout(r image.Rectangle) { l.region = r }

func (l *LauncherWidget) Tick(time.Time) bool { return false }

// HandlePointer is a no-op: the launcher is keyboard only.
func (l *LauncherWidget) HandlePointer(PointerEvent) bool { return false }

// Mode derives from the leading rune of the input.
func (l *LauncherWidget) Mode() LauncherMode {
	if len(l.input) == 0 {
		return ModeApplication
	}
	switch l.input[0] {
	case '!':
		return ModeCommand
	case '=':
		return ModeCalculator
	default:
		return ModeApplication
	}
}

// payload is the input without the mode prefix, otherwise verbatim.
func (l *LauncherWidget) payload() string {
	if len(l.input) == 0 {
		return ""
	}
	switch l.input[0] {
	case '!', '=':
		return string(l.input[1:])
	}
	return string(l.input)
}

// SetEntries replaces the application index, keeping the current query.
func (l *LauncherWidget) SetEntries(entries []DesktopEntry) {
	l.entries = entries
	l.stale = true
}

// edited records an input change. Refiltering is deferred to Flush so a
// burst of edits costs a single filter pass.
func (l *LauncherWidget) edited() {
	l.selected = 0
	l.result = ""
	l.stale = true
}

// Flush runs a pending refilter. The event loop calls this once per
// wakeup, so at most one filter pass happens no matter how many edits
// arrived.
func (l *LauncherWidget) Flush() bool {
	if !l.stale {
		return false
	}
	l.refilter()
	return true
}

func (l *LauncherWidget) refilter() {
	l.stale = false
	switch l.Mode() {
	case ModeCommand, ModeCalculator:
		// A single synthetic candidate showing the payload.
		l.filtered = []Candidate{{Display: l.payload()}}
		l.selected = 0
		return
	}
	l.filtered = filterEntries(l.entries, l.payload())
	switch {
	case len(l.filtered) == 0:
		l.selected = -1
	case l.selected < 0:
		l.selected = 0
	case l.selected >= len(l.filtered):
		l.selected = len(l.filtered) - 1
	}
}

// entryNames adapts entries to the fuzzy matcher.
type entryNames []DesktopEntry

func (e entryNames) String(i int) string { return e[i].Name }
func (e entryNames) Len() int            { return len(e) }

// filterEntries ranks entries against the query. Names count full
// weight and keywords half; only positive scores survive. Ties keep the
// original index order.
func filterEntries(entries []DesktopEntry, query string) []Candidate {
	if query == "" {
		return nil
	}
	best := make(map[int]int)
	for _, m := range fuzzy.FindFrom(query, entryNames(entries)) {
		if m.Score > 0 {
			best[m.Index] = m.Score
		}
	}
	for i, e := range entries {
		if len(e.Keywords) == 0 {
			continue
		}
		for _, m := range fuzzy.Find(query, e.Keywords) {
			score := m.Score / 2
			if score > 0 && score > best[i] {
				best[i] = score
			}
		}
	}

	var out []Candidate
	for i, e := range entries {
		if score, ok := best[i]; ok {
			out = append(out, Candidate{Display: e.Name, Entry: e, Score: score, Index: i})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

// moveSelection moves the highlight without wrapping.
func (l *LauncherWidget) moveSelection(delta int) bool {
	l.Flush()
	if len(l.filtered) == 0 {
		return false
	}
	next := l.selected + delta
	if next < 0 {
		next = 0
	} else if next >= len(l.filtered) {
		next = len(l.filtered) - 1
	}
	if next == l.selected {
		return false
	}
	l.selected = next
	return true
}

// confirm activates the current selection. Calculator results replace
// the candidate area and keep the panel open; the other modes dispatch
// and exit.
func (l *LauncherWidget) confirm() bool {
	l.Flush()
	switch l.Mode() {
	case ModeCalculator:
		res, err := evalExpression(l.payload())
		if err != nil {
			l.result = "error: " + err.Error()
		} else {
			l.result = res
		}
		return true
	case ModeCommand:
		payload := l.payload()
		if strings.TrimSpace(payload) == "" {
			return false
		}
		if l.run != nil {
			l.run(payload)
		}
		if l.exit != nil {
			l.exit()
		}
		return false
	default:
		if l.selected < 0 || l.selected >= len(l.filtered) {
			return false
		}
		cand := l.filtered[l.selected]
		if l.run != nil {
			l.run(buildCommand(cand.Entry, l.cfg))
		}
		if l.exit != nil {
			l.exit()
		}
		return false
	}
}

// HandleKey processes a translated key press and reports whether the
// launcher changed.
func (l *LauncherWidget) HandleKey(ev KeyEvent) bool {
	switch ev.Sym {
	case keyEscape:
		if l.exit != nil {
			l.exit()
		}
		return false
	case keyReturn, keyKPEnter:
		return l.confirm()
	case keyBackSpace:
		if l.cursor == 0 {
			return false
		}
		l.input = append(l.input[:l.cursor-1], l.input[l.cursor:]...)
		l.cursor--
		l.edited()
		return true
	case keyDelete:
		if l.cursor >= len(l.input) {
			return false
		}
		l.input = append(l.input[:l.cursor], l.input[l.cursor+1:]...)
		l.edited()
		return true
	case keyLeft:
		if l.cursor == 0 {
			return false
		}
		l.cursor--
		return true
	case keyRight:
		if l.cursor >= len(l.input) {
			return false
		}
		l.cursor++
		return true
	case keyHome:
		if l.cursor == 0 {
			return false
		}
		l.cursor = 0
		return true
	case keyEnd:
		if l.cursor == len(l.input) {
			return false
		}
		l.cursor = len(l.input)
		return true
	case keyDown, keyTab:
		return l.moveSelection(1)
	case keyUp, keyISOLeftTab:
		return l.moveSelection(-1)
	}

	if ev.Ctrl {
		if ev.Rune == 'u' || ev.Rune == 'U' {
			if len(l.input) == 0 {
				return false
			}
			l.input = l.input[:0]
			l.cursor = 0
			l.edited()
			return true
		}
		return false
	}

	if ev.Rune != 0 {
		l.input = append(l.input, 0)
		copy(l.input[l.cursor+1:], l.input[l.cursor:])
		l.input[l.cursor] = ev.Rune
		l.cursor++
		l.edited()
		return true
	}
	return false
}

func (l *LauncherWidget) Draw(img *Image) {
	r := img.Bounds()
	face := l.fonts.face(launcherFontSize, false)
	pad := l.fonts.px(8)
	rowH := faceHeight(face) + pad

	mode := l.Mode()
	prompt := ">"
	switch mode {
	case ModeCommand:
		prompt = "!"
	case ModeCalculator:
		prompt = "="
	}
	runes := l.input
	cursor := l.cursor
	if mode != ModeApplication {
		// The prefix rune is folded into the prompt glyph.
		runes = runes[1:]
		if cursor--; cursor < 0 {
			cursor = 0
		}
	}
	text := string(runes)
	inputColor := l.th.foreground
	if mode == ModeApplication && len(l.input) > 0 && len(l.filtered) == 0 {
		inputColor = l.th.accent
	}

	// Input line: prompt, query, cursor bar.
	baseline := faceAscent(face) + l.fonts.px(6)
	x := pad + l.fonts.drawText(img, l.th.accent, face, pad, baseline, prompt) + l.fonts.px(6)
	l.fonts.drawText(img, inputColor, face, x, baseline, text)
	cx := x + l.fonts.measure(face, string(runes[:cursor]))
	img.Fill(image.Rect(cx+1, baseline-faceAscent(face), cx+1+l.fonts.px(2), baseline+l.fonts.px(4)), l.th.accent)

	if mode == ModeCalculator {
		if l.result != "" {
			rx := x + l.fonts.measure(face, text) + l.fonts.px(4)
			l.fonts.drawText(img, l.th.dim, face, rx, baseline, " = "+l.result)
		}
		return
	}
	if mode == ModeCommand {
		return
	}

	top := rowH + l.fonts.px(10)
	visible := (r.Dy() - top) / rowH
	if visible < 1 {
		return
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	for i := start; i < len(l.filtered) && i-start < visible; i++ {
		ry := top + (i-start)*rowH
		fg := l.th.dim
		if i == l.selected {
			img.Fill(image.Rect(0, ry, r.Dx(), ry+rowH), l.th.accent)
			fg = l.th.background
		}
		l.fonts.drawText(img, fg, face, pad, ry+faceAscent(face)+pad/2, l.filtered[i].Display)
	}
}
