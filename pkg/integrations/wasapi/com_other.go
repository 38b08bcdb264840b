//go:build !windows

package wasapi

// InitCOM is a no-op outside Windows
func InitCOM() (release func(), err error) {
	return func() {}, nil
}
