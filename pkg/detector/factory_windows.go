//go:build windows

package detector

import (
	"github.com/rs/zerolog"

	"admute/pkg/integrations/wasapi"
	"admute/pkg/integrations/win32"
)

func newPlatform(log zerolog.Logger) (*Platform, error) {
	release, err := wasapi.InitCOM()
	if err != nil {
		return nil, err
	}
	log.Debug().Msg("COM initialised (multithreaded)")

	return &Platform{
		Windows: win32.NewDetector(),
		Audio:   wasapi.NewController(),
		release: release,
	}, nil
}
