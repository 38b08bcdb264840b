package audio

import (
	"github.com/pkg/errors"
)

// Session is one per-application audio stream on the default output device
type Session interface {
	// PID returns the owning process id
	PID() (uint32, error)

	// Muted reports the current mute flag
	Muted() (bool, error)

	// SetMuted writes the mute flag
	SetMuted(mute bool) error

	// Release frees any OS handle held by the session
	Release()
}

// Controller enumerates the active audio sessions of the default render
// endpoint (multimedia role)
type Controller interface {
	Sessions() ([]Session, error)

	// Name returns the backend name for logging ("wasapi" or "pulse")
	Name() string
}

// Notifier is told about every mute flag that actually changed
type Notifier interface {
	MuteChanged(pid uint32, muted bool)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(pid uint32, muted bool)

// MuteChanged calls f
func (f NotifierFunc) MuteChanged(pid uint32, muted bool) {
	f(pid, muted)
}

// SessionMuter sets the mute flag of every session owned by a process
type SessionMuter struct {
	controller Controller
	notifier   Notifier
}

// NewSessionMuter creates a muter. notifier may be nil.
func NewSessionMuter(controller Controller, notifier Notifier) *SessionMuter {
	return &SessionMuter{controller: controller, notifier: notifier}
}

// SetMute brings every session owned by pid to the desired mute flag. A
// session is written only when its current flag differs, and the notifier
// fires once per write. changed reports whether any write happened. A process
// without an audio session is not an error.
func (m *SessionMuter) SetMute(pid uint32, mute bool) (changed bool, err error) {
	sessions, err := m.controller.Sessions()
	if err != nil {
		return false, errors.Wrap(err, "failed to enumerate audio sessions")
	}
	defer func() {
		for _, s := range sessions {
			s.Release()
		}
	}()

	for _, s := range sessions {
		owner, err := s.PID()
		if err != nil || owner != pid {
			continue
		}

		current, err := s.Muted()
		if err != nil {
			return changed, errors.Wrapf(err, "failed to read mute state for pid %d", pid)
		}
		if current == mute {
			continue
		}

		if err := s.SetMuted(mute); err != nil {
			return changed, errors.Wrapf(err, "failed to set mute=%v for pid %d", mute, pid)
		}
		changed = true

		if m.notifier != nil {
			m.notifier.MuteChanged(pid, mute)
		}
	}

	return changed, nil
}

// Backend returns the controller's name
func (m *SessionMuter) Backend() string {
	return m.controller.Name()
}
