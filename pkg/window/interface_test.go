package window

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type MockEnumerator struct {
	windows []Info
	err     error
	calls   int
}

func (m *MockEnumerator) Windows() ([]Info, error) {
	m.calls++
	return m.windows, m.err
}

func (m *MockEnumerator) Name() string {
	return "mock"
}

func TestFirstVisible(t *testing.T) {
	windows := []Info{
		{Handle: 10, PID: 100, Visible: false},
		{Handle: 11, PID: 200, Visible: true},
		{Handle: 12, PID: 100, Visible: true},
		{Handle: 13, PID: 100, Visible: true},
	}

	tests := []struct {
		name      string
		pid       uint32
		wantOK    bool
		wantFound Handle
	}{
		{name: "skips hidden and returns first visible", pid: 100, wantOK: true, wantFound: 12},
		{name: "other process", pid: 200, wantOK: true, wantFound: 11},
		{name: "unknown process", pid: 300, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := FirstVisible(windows, tt.pid)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFound, h)
		})
	}
}

func TestFirstVisibleOnlyHidden(t *testing.T) {
	_, ok := FirstVisible([]Info{{Handle: 1, PID: 5, Visible: false}}, 5)
	assert.False(t, ok)
}

func TestResolverFindWindow(t *testing.T) {
	enum := &MockEnumerator{windows: []Info{{Handle: 7, PID: 42, Visible: true}}}
	r := NewResolver(enum, zerolog.Nop())

	h, ok := r.FindWindow(42)
	assert.True(t, ok)
	assert.Equal(t, Handle(7), h)

	_, ok = r.FindWindow(43)
	assert.False(t, ok)
	assert.Equal(t, 2, enum.calls, "every lookup enumerates afresh")
}

func TestResolverEnumerationError(t *testing.T) {
	enum := &MockEnumerator{
		windows: []Info{{Handle: 7, PID: 42, Visible: true}},
		err:     errors.New("boom"),
	}
	r := NewResolver(enum, zerolog.Nop())

	_, ok := r.FindWindow(42)
	assert.False(t, ok)
}

func TestTruncateTitle(t *testing.T) {
	short := "Artist - Song"
	assert.Equal(t, short, TruncateTitle(short))

	long := strings.Repeat("a", MaxTitleUnits+40)
	assert.Len(t, TruncateTitle(long), MaxTitleUnits)

	// each emoji is a surrogate pair: two UTF-16 units
	emoji := strings.Repeat("🎵", MaxTitleUnits)
	got := TruncateTitle(emoji)
	assert.Equal(t, strings.Repeat("🎵", MaxTitleUnits/2), got)
}

func TestDecodeTitle(t *testing.T) {
	buf := []uint16{'S', 'o', 'n', 'g', 0, 'x', 'x'}
	assert.Equal(t, "Song", DecodeTitle(buf))

	// lone high surrogate decodes lossily
	assert.Equal(t, "a�", DecodeTitle([]uint16{'a', 0xD800}))
}
