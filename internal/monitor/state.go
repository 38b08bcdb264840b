package monitor

import (
	"strings"
	"time"
)

// Phase is the coarse state of the monitor
type Phase int

const (
	// NoTarget means no player process is cached
	NoTarget Phase = iota
	// TargetNoWindow means the cached process has no resolvable window
	TargetNoWindow
	// TargetIdle means the last classified title was content
	TargetIdle
	// TargetAdvert means the last classified title was an advertisement
	TargetAdvert
)

func (p Phase) String() string {
	switch p {
	case NoTarget:
		return "no-target"
	case TargetNoWindow:
		return "target-no-window"
	case TargetIdle:
		return "target-idle"
	case TargetAdvert:
		return "target-advert"
	default:
		return "unknown"
	}
}

// State is the whole monitor state. Step takes one and returns the next.
type State struct {
	Phase     Phase
	PID       uint32
	LastTitle string
	InAdvert  bool
	Interval  time.Duration
}

// HasTarget reports whether a process is cached
func (s State) HasTarget() bool {
	return s.PID != 0
}

// Result describes what happened during one Step
type Result struct {
	At time.Time

	// Path lists the phases visited, starting with the input phase
	Path []Phase

	Found      bool
	NotRunning bool
	Lost       bool
	PID        uint32

	TitleChanged bool
	Title        string

	MuteRequested bool
	Mute          bool
	MuteChanged   bool
	Err           error
}

func (r *Result) enter(p Phase) {
	if n := len(r.Path); n > 0 && r.Path[n-1] == p {
		return
	}
	r.Path = append(r.Path, p)
}

// IsAdvert reports whether title contains the advertisement marker. The
// match is case-sensitive.
func IsAdvert(title, marker string) bool {
	return marker != "" && strings.Contains(title, marker)
}
