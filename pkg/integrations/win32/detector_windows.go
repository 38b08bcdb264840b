//go:build windows

package win32

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"admute/pkg/window"
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW = user32.NewProc("GetWindowTextW")
)

// EnumWindows callbacks are a limited resource, so one is created for the
// life of the process and results are gathered under enumMu.
var (
	enumMu    sync.Mutex
	collected []windows.HWND
	enumProc  = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		collected = append(collected, hwnd)
		return 1
	})
)

// Detector implements window.Backend for the Win32 desktop
type Detector struct{}

// NewDetector creates a new Win32 detector
func NewDetector() *Detector {
	return &Detector{}
}

// Name returns "win32"
func (d *Detector) Name() string {
	return "win32"
}

// Windows lists every top-level window with its owner pid and visibility, in
// EnumWindows order
func (d *Detector) Windows() ([]window.Info, error) {
	enumMu.Lock()
	collected = collected[:0]
	err := windows.EnumWindows(enumProc, nil)
	handles := make([]windows.HWND, len(collected))
	copy(handles, collected)
	enumMu.Unlock()

	if err != nil {
		return nil, errors.Wrap(err, "EnumWindows failed")
	}

	infos := make([]window.Info, 0, len(handles))
	for _, hwnd := range handles {
		var pid uint32
		if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
			continue
		}
		infos = append(infos, window.Info{
			Handle:  window.Handle(hwnd),
			PID:     pid,
			Visible: windows.IsWindowVisible(hwnd),
		})
	}

	return infos, nil
}

// ReadTitle reads up to window.MaxTitleUnits UTF-16 units of the window text
func (d *Detector) ReadTitle(h window.Handle) (string, bool) {
	if h == 0 {
		return "", false
	}
	buf := make([]uint16, window.MaxTitleUnits)
	r, _, _ := procGetWindowTextW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	n := int(r)
	if n <= 0 {
		return "", false
	}
	if n > len(buf) {
		n = len(buf)
	}
	return window.DecodeTitle(buf[:n]), true
}

// Close is a no-op; user32 holds no per-detector state
func (d *Detector) Close() error {
	return nil
}
