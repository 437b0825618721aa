package internal

import (
	"sync"
	"syscall"
	"unicode"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// XKB constants
const (
	KeymapFormatTextV1 = 1
	ContextNoFlags     = 0
	StateModsEffective = 1 << 3
)

const (
	ModNameShift = "Shift"
	ModNameCtrl  = "Control"
)

var (
	libxkbcommon           uintptr
	xkbContextNew          func(uint32) uintptr
	xkbKeymapNewFromString func(uintptr, []byte, uint32, uint32) uintptr
	xkbStateNew            func(uintptr) uintptr
	xkbStateKeyGetOneSym   func(uintptr, uint) uintptr
	xkbStateUpdateMask     func(uintptr, uint32, uint32, uint32, uint32, uint32, uint32) uint32
	xkbStateModNameActive  func(uintptr, string, uint32) int32
	xkbKeysymToUtf32       func(uint) uint
	xkbKeymapUnref         func(uintptr)
	xkbStateUnref          func(uintptr)
	xkbContextUnref        func(uintptr)

	xkbOnce   sync.Once
	xkbLoaded bool
)

// loadXkb resolves libxkbcommon once. The panel falls back to a built-in
// US layout when the library is missing.
func loadXkb() bool {
	xkbOnce.Do(func() {
		var err error
		libxkbcommon, err = purego.Dlopen("libxkbcommon.so", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libxkbcommon, err = purego.Dlopen("libxkbcommon.so.0", purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err != nil {
				Warn("Failed to load libxkbcommon, using built-in US layout: %v", err)
				return
			}
		}

		purego.RegisterLibFunc(&xkbContextNew, libxkbcommon, "xkb_context_new")
		purego.RegisterLibFunc(&xkbKeymapNewFromString, libxkbcommon, "xkb_keymap_new_from_string")
		purego.RegisterLibFunc(&xkbStateNew, libxkbcommon, "xkb_state_new")
		purego.RegisterLibFunc(&xkbStateKeyGetOneSym, libxkbcommon, "xkb_state_key_get_one_sym")
		purego.RegisterLibFunc(&xkbStateUpdateMask, libxkbcommon, "xkb_state_update_mask")
		purego.RegisterLibFunc(&xkbStateModNameActive, libxkbcommon, "xkb_state_mod_name_is_active")
		purego.RegisterLibFunc(&xkbKeysymToUtf32, libxkbcommon, "xkb_keysym_to_utf32")
		purego.RegisterLibFunc(&xkbKeymapUnref, libxkbcommon, "xkb_keymap_unref")
		purego.RegisterLibFunc(&xkbStateUnref, libxkbcommon, "xkb_state_unref")
		purego.RegisterLibFunc(&xkbContextUnref, libxkbcommon, "xkb_context_unref")
		xkbLoaded = true
	})
	return xkbLoaded
}

// XKB wrapper functions
func XkbContextNew(flags uint32) uintptr {
	return xkbContextNew(flags)
}

// XkbKeymapNewFromString compiles a keymap from its text form. The bytes
// must keep the trailing NUL the compositor sends.
func XkbKeymapNewFromString(context uintptr, keymap []byte, format uint32, flags uint32) uintptr {
	return xkbKeymapNewFromString(context, keymap, format, flags)
}

func XkbStateNew(keymap uintptr) uintptr {
	return xkbStateNew(keymap)
}

func XkbStateKeyGetSym(state uintptr, key uint32) uint32 {
	return uint32(xkbStateKeyGetOneSym(state, uint(key)))
}

func XkbStateUpdateMask(state uintptr, depressed, latched, locked, group uint32) {
	xkbStateUpdateMask(state, depressed, latched, locked, 0, 0, group)
}

func XkbStateModNameIsActive(state uintptr, name string, component uint32) bool {
	return xkbStateModNameActive(state, name, component) > 0
}

func XkbKeysymToUtf32(keysym uint32) uint32 {
	return uint32(xkbKeysymToUtf32(uint(keysym)))
}

func XkbKeymapUnref(keymap uintptr) {
	xkbKeymapUnref(keymap)
}

func XkbStateUnref(state uintptr) {
	xkbStateUnref(state)
}

func XkbContextUnref(context uintptr) {
	xkbContextUnref(context)
}

// Keysyms the launcher reacts to.
const (
	keyBackSpace  = 0xff08
	keyTab        = 0xff09
	keyReturn     = 0xff0d
	keyEscape     = 0xff1b
	keyHome       = 0xff50
	keyLeft       = 0xff51
	keyUp         = 0xff52
	keyRight      = 0xff53
	keyDown       = 0xff54
	keyEnd        = 0xff57
	keyKPEnter    = 0xff8d
	keyDelete     = 0xffff
	keyISOLeftTab = 0xfe20
)

// Raw modifier mask bits used when no compiled keymap is available.
const (
	rawModShift = 1 << 0
	rawModCtrl  = 1 << 2
)

// keyboardState turns raw keycodes into keysyms and runes. It compiles
// the compositor's keymap through libxkbcommon when possible and falls
// back to a built-in US layout otherwise.
type keyboardState struct {
	mu     sync.Mutex
	ctx    uintptr
	keymap uintptr
	state  uintptr
	ok     bool
	ctrl   bool
	shift  bool
}

// loadKeymap compiles the keymap the compositor handed over as an fd.
// The fd is consumed.
func (k *keyboardState) loadKeymap(fd uintptr, size uint32, format uint32) {
	defer unix.Close(int(fd))

	if format != KeymapFormatTextV1 || size == 0 || !loadXkb() {
		return
	}

	data, err := syscall.Mmap(int(fd), 0, int(size), syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		Warn("Failed to map keymap: %v", err)
		return
	}
	defer syscall.Munmap(data)

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.ctx == 0 {
		k.ctx = XkbContextNew(ContextNoFlags)
		if k.ctx == 0 {
			Warn("Failed to create xkb context")
			return
		}
	}

	keymap := XkbKeymapNewFromString(k.ctx, data, KeymapFormatTextV1, 0)
	if keymap == 0 {
		Warn("Failed to compile keymap, keeping previous layout")
		return
	}
	state := XkbStateNew(keymap)
	if state == 0 {
		XkbKeymapUnref(keymap)
		Warn("Failed to create xkb state")
		return
	}

	if k.state != 0 {
		XkbStateUnref(k.state)
	}
	if k.keymap != 0 {
		XkbKeymapUnref(k.keymap)
	}
	k.keymap = keymap
	k.state = state
	k.ok = true
	Debug("Compiled keymap (%d bytes)", size)
}

// updateMods applies a wl_keyboard.modifiers event.
func (k *keyboardState) updateMods(depressed, latched, locked, group uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ok {
		XkbStateUpdateMask(k.state, depressed, latched, locked, group)
		k.ctrl = XkbStateModNameIsActive(k.state, ModNameCtrl, StateModsEffective)
		k.shift = XkbStateModNameIsActive(k.state, ModNameShift, StateModsEffective)
		return
	}
	mods := depressed | latched | locked
	k.ctrl = mods&rawModCtrl != 0
	k.shift = mods&rawModShift != 0
}

// translate maps an evdev keycode to a keysym and, when printable, a
// rune. Keycodes are offset by 8 per the xkb convention.
func (k *keyboardState) translate(code uint32) (uint32, rune) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ok {
		sym := XkbStateKeyGetSym(k.state, code+8)
		utf := XkbKeysymToUtf32(sym)
		if utf >= 0x20 && utf != 0x7f && unicode.IsPrint(rune(utf)) {
			return sym, rune(utf)
		}
		return sym, 0
	}
	return fallbackTranslate(code, k.shift)
}

func (k *keyboardState) modifiers() (ctrl, shift bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ctrl, k.shift
}

func (k *keyboardState) destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.state != 0 {
		XkbStateUnref(k.state)
		k.state = 0
	}
	if k.keymap != 0 {
		XkbKeymapUnref(k.keymap)
		k.keymap = 0
	}
	if k.ctx != 0 {
		XkbContextUnref(k.ctx)
		k.ctx = 0
	}
	k.ok = false
}

// fallbackKeys maps evdev keycodes to their unshifted and shifted runes
// on a US layout.
var fallbackKeys = map[uint32][2]rune{
	2: {'1', '!'}, 3: {'2', '@'}, 4: {'3', '#'}, 5: {'4', '$'},
	6: {'5', '%'}, 7: {'6', '^'}, 8: {'7', '&'}, 9: {'8', '*'},
	10: {'9', '('}, 11: {'0', ')'}, 12: {'-', '_'}, 13: {'=', '+'},
	16: {'q', 'Q'}, 17: {'w', 'W'}, 18: {'e', 'E'}, 19: {'r', 'R'},
	20: {'t', 'T'}, 21: {'y', 'Y'}, 22: {'u', 'U'}, 23: {'i', 'I'},
	24: {'o', 'O'}, 25: {'p', 'P'}, 26: {'[', '{'}, 27: {']', '}'},
	30: {'a', 'A'}, 31: {'s', 'S'}, 32: {'d', 'D'}, 33: {'f', 'F'},
	34: {'g', 'G'}, 35: {'h', 'H'}, 36: {'j', 'J'}, 37: {'k', 'K'},
	38: {'l', 'L'}, 39: {';', ':'}, 40: {'\'', '"'}, 41: {'`', '~'},
	43: {'\\', '|'}, 44: {'z', 'Z'}, 45: {'x', 'X'}, 46: {'c', 'C'},
	47: {'v', 'V'}, 48: {'b', 'B'}, 49: {'n', 'N'}, 50: {'m', 'M'},
	51: {',', '<'}, 52: {'.', '>'}, 53: {'/', '?'}, 57: {' ', ' '},
}

func fallbackTranslate(code uint32, shift bool) (uint32, rune) {
	switch code {
	case 1:
		return keyEscape, 0
	case 14:
		return keyBackSpace, 0
	case 15:
		if shift {
			return keyISOLeftTab, 0
		}
		return keyTab, 0
	case 28:
		return keyReturn, 0
	case 96:
		return keyKPEnter, 0
	case 102:
		return keyHome, 0
	case 103:
		return keyUp, 0
	case 105:
		return keyLeft, 0
	case 106:
		return keyRight, 0
	case 107:
		return keyEnd, 0
	case 108:
		return keyDown, 0
	case 111:
		return keyDelete, 0
	}
	if pair, ok := fallbackKeys[code]; ok {
		r := pair[0]
		if shift {
			r = pair[1]
		}
		// ASCII keysyms match their codepoints.
		return uint32(r), r
	}
	return 0, 0
}
