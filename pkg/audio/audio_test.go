package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	pid      uint32
	pidErr   error
	muted    bool
	setErr   error
	writes   int
	released bool
}

func (s *fakeSession) PID() (uint32, error) { return s.pid, s.pidErr }
func (s *fakeSession) Muted() (bool, error) { return s.muted, nil }
func (s *fakeSession) Release() { s.released = true }

func (s *fakeSession) SetMuted(mute bool) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.writes++
	s.muted = mute
	return nil
}

type fakeController struct {
	sessions []*fakeSession
	err      error
}

func (c *fakeController) Name() string { return "fake" }

func (c *fakeController) Sessions() ([]Session, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]Session, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = s
	}
	return out, nil
}

type notice struct {
	pid   uint32
	muted bool
}

func recorder(got *[]notice) Notifier {
	return NotifierFunc(func(pid uint32, muted bool) {
		*got = append(*got, notice{pid, muted})
	})
}

func TestSetMuteWritesOnlyOnDifference(t *testing.T) {
	target := &fakeSession{pid: 42}
	other := &fakeSession{pid: 7}
	ctrl := &fakeController{sessions: []*fakeSession{other, target}}

	var notices []notice
	m := NewSessionMuter(ctrl, recorder(&notices))

	changed, err := m.SetMute(42, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, target.muted)
	assert.False(t, other.muted)

	changed, err = m.SetMute(42, true)
	require.NoError(t, err)
	assert.False(t, changed, "repeat request must not write")
	assert.Equal(t, 1, target.writes)

	changed, err = m.SetMute(42, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, target.writes)

	assert.Equal(t, []notice{{42, true}, {42, false}}, notices)
	assert.Equal(t, 0, other.writes)
}

func TestSetMuteReleasesSessions(t *testing.T) {
	a := &fakeSession{pid: 1}
	b := &fakeSession{pid: 2}
	m := NewSessionMuter(&fakeController{sessions: []*fakeSession{a, b}}, nil)

	_, err := m.SetMute(2, true)
	require.NoError(t, err)
	assert.True(t, a.released)
	assert.True(t, b.released)
}

func TestSetMuteNoSession(t *testing.T) {
	m := NewSessionMuter(&fakeController{}, nil)

	changed, err := m.SetMute(42, true)
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestSetMuteAllSessionsOfProcess(t *testing.T) {
	first := &fakeSession{pid: 42}
	second := &fakeSession{pid: 42, muted: true}
	var notices []notice
	m := NewSessionMuter(&fakeController{sessions: []*fakeSession{first, second}}, recorder(&notices))

	changed, err := m.SetMute(42, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, first.writes)
	assert.Equal(t, 0, second.writes)
	assert.Len(t, notices, 1)
}

func TestSetMuteSkipsUnreadableOwner(t *testing.T) {
	system := &fakeSession{pidErr: errors.New("no single process")}
	target := &fakeSession{pid: 42}
	m := NewSessionMuter(&fakeController{sessions: []*fakeSession{system, target}}, nil)

	changed, err := m.SetMute(42, true)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSetMuteErrors(t *testing.T) {
	t.Run("enumeration", func(t *testing.T) {
		m := NewSessionMuter(&fakeController{err: errors.New("device invalidated")}, nil)
		_, err := m.SetMute(42, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "device invalidated")
	})

	t.Run("write", func(t *testing.T) {
		var notices []notice
		s := &fakeSession{pid: 42, setErr: errors.New("access denied")}
		m := NewSessionMuter(&fakeController{sessions: []*fakeSession{s}}, recorder(&notices))
		changed, err := m.SetMute(42, true)
		require.Error(t, err)
		assert.False(t, changed)
		assert.Empty(t, notices)
	})
}
