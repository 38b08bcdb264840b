package window

import "unicode/utf16"

// MaxTitleUnits is the number of UTF-16 code units read from a window title.
// Longer titles are truncated.
const MaxTitleUnits = 512

// Handle identifies a top-level window. It is an HWND on Windows and an X11
// window id elsewhere.
type Handle uintptr

// Info describes one top-level window as reported by the windowing system
type Info struct {
	Handle  Handle
	PID     uint32
	Visible bool
}

// Enumerator lists top-level windows in the order the windowing system
// reports them
type Enumerator interface {
	// Windows returns every top-level window, visible or not
	Windows() ([]Info, error)

	// Name returns the backend name for logging ("win32" or "x11")
	Name() string
}

// TitleReader reads the current title of a window
type TitleReader interface {
	// ReadTitle returns the title, or false when the title is empty or the
	// window no longer exists
	ReadTitle(h Handle) (string, bool)
}

// Backend bundles the windowing primitives for one platform
type Backend interface {
	Enumerator
	TitleReader

	// Close releases any connection held by the backend
	Close() error
}

// FirstVisible returns the first visible window owned by pid. Order is the
// enumeration order; no tie-break is applied when a process owns several
// visible windows.
func FirstVisible(windows []Info, pid uint32) (Handle, bool) {
	for _, w := range windows {
		if !w.Visible {
			continue
		}
		if w.PID == pid {
			return w.Handle, true
		}
	}
	return 0, false
}

// TruncateTitle bounds s to MaxTitleUnits UTF-16 code units. Invalid
// sequences decode to U+FFFD.
func TruncateTitle(s string) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= MaxTitleUnits {
		return s
	}
	return DecodeTitle(units[:MaxTitleUnits])
}

// DecodeTitle converts a UTF-16 buffer into a string, dropping anything after
// the first NUL.
func DecodeTitle(buf []uint16) string {
	for i, u := range buf {
		if u == 0 {
			buf = buf[:i]
			break
		}
	}
	return string(utf16.Decode(buf))
}
