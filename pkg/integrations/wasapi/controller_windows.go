//go:build windows

package wasapi

import (
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
	"github.com/pkg/errors"

	"admute/pkg/audio"
)

// Controller implements audio.Controller over IAudioSessionManager2
type Controller struct{}

// NewController creates a WASAPI controller. COM must already be initialised
// on the calling thread.
func NewController() *Controller {
	return &Controller{}
}

// Name returns "wasapi"
func (c *Controller) Name() string {
	return "wasapi"
}

// Sessions acquires the default multimedia render endpoint and returns its
// sessions. The endpoint is looked up on every call so device switches are
// picked up. Sessions that do not expose IAudioSessionControl2 and
// ISimpleAudioVolume are skipped.
func (c *Controller) Sessions() ([]audio.Session, error) {
	var mmde *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde); err != nil {
		return nil, errors.Wrap(err, "failed to create device enumerator")
	}
	defer mmde.Release()

	var mmd *wca.IMMDevice
	if err := mmde.GetDefaultAudioEndpoint(wca.ERender, wca.EMultimedia, &mmd); err != nil {
		return nil, errors.Wrap(err, "failed to get default audio endpoint")
	}
	defer mmd.Release()

	var manager *wca.IAudioSessionManager2
	if err := mmd.Activate(wca.IID_IAudioSessionManager2, wca.CLSCTX_ALL, nil, &manager); err != nil {
		return nil, errors.Wrap(err, "failed to activate session manager")
	}
	defer manager.Release()

	var enum *wca.IAudioSessionEnumerator
	if err := manager.GetSessionEnumerator(&enum); err != nil {
		return nil, errors.Wrap(err, "failed to get session enumerator")
	}
	defer enum.Release()

	var count int
	if err := enum.GetCount(&count); err != nil {
		return nil, errors.Wrap(err, "failed to count sessions")
	}

	sessions := make([]audio.Session, 0, count)
	for i := 0; i < count; i++ {
		var control *wca.IAudioSessionControl
		if err := enum.GetSession(i, &control); err != nil {
			for _, s := range sessions {
				s.Release()
			}
			return nil, errors.Wrapf(err, "failed to get session %d", i)
		}

		s, err := newSession(control)
		control.Release()
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

type session struct {
	control *wca.IAudioSessionControl2
	volume  *wca.ISimpleAudioVolume
}

func newSession(control *wca.IAudioSessionControl) (*session, error) {
	d, err := control.QueryInterface(wca.IID_IAudioSessionControl2)
	if err != nil {
		return nil, err
	}
	control2 := (*wca.IAudioSessionControl2)(unsafe.Pointer(d))

	d, err = control.QueryInterface(wca.IID_ISimpleAudioVolume)
	if err != nil {
		control2.Release()
		return nil, err
	}

	return &session{
		control: control2,
		volume:  (*wca.ISimpleAudioVolume)(unsafe.Pointer(d)),
	}, nil
}

func (s *session) PID() (uint32, error) {
	var pid uint32
	if err := s.control.GetProcessId(&pid); err != nil {
		return 0, err
	}
	return pid, nil
}

func (s *session) Muted() (bool, error) {
	var muted bool
	if err := s.volume.GetMute(&muted); err != nil {
		return false, err
	}
	return muted, nil
}

func (s *session) SetMuted(mute bool) error {
	var eventContext *ole.GUID
	return s.volume.SetMute(mute, eventContext)
}

func (s *session) Release() {
	if s.volume != nil {
		s.volume.Release()
	}
	if s.control != nil {
		s.control.Release()
	}
}
