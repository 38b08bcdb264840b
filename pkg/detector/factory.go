package detector

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"admute/pkg/audio"
	"admute/pkg/window"
)

// Platform bundles the OS backends the monitor needs
type Platform struct {
	Windows window.Backend
	Audio   audio.Controller

	release func()
}

// New initialises the backends for the running OS. On Windows it initialises
// COM and locks the calling goroutine to its thread, so New must be called
// from the goroutine that will drive the monitor loop.
func New(log zerolog.Logger) (*Platform, error) {
	return newPlatform(log)
}

// Close releases the backends in reverse order of acquisition
func (p *Platform) Close() error {
	var err error
	if closer, ok := p.Audio.(io.Closer); ok {
		err = closer.Close()
	}
	if p.Windows != nil {
		if werr := p.Windows.Close(); werr != nil {
			err = werr
		}
	}
	if p.release != nil {
		p.release()
	}
	return err
}

// DetectDisplayServer reports the desktop session type
func DetectDisplayServer() string {
	if os.Getenv("OS") == "Windows_NT" {
		return "win32"
	}

	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		// XWayland still exposes _NET_CLIENT_LIST for X clients such as Spotify
		if x11Display != "" {
			return "xwayland"
		}
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
