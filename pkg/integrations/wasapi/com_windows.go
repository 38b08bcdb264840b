//go:build windows

package wasapi

import (
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/pkg/errors"
)

// S_FALSE: COM was already initialised on this thread
const sFalse = 0x1

// InitCOM initialises COM (multithreaded apartment) on the current thread and
// returns the matching release. release must be called on the same
// goroutine, normally via defer right after InitCOM.
func InitCOM() (release func(), err error) {
	runtime.LockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			runtime.UnlockOSThread()
			return nil, errors.Wrap(err, "CoInitializeEx failed")
		}
	}

	return func() {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
	}, nil
}
