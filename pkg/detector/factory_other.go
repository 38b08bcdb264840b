//go:build !windows

package detector

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"admute/pkg/integrations/pulse"
	"admute/pkg/integrations/x11"
)

func newPlatform(log zerolog.Logger) (*Platform, error) {
	display := DetectDisplayServer()
	if display != "x11" && display != "xwayland" {
		return nil, errors.Errorf("unsupported display server: %s (an X11 DISPLAY is required)", display)
	}

	win, err := x11.NewDetector()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("display", display).Msg("X11 window backend connected")

	sound, err := pulse.NewController()
	if err != nil {
		win.Close()
		return nil, errors.Wrap(err, "audio session control needs a PulseAudio or PipeWire server")
	}
	log.Debug().Msg("Sound server connected")

	return &Platform{
		Windows: win,
		Audio:   sound,
	}, nil
}
