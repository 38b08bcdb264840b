package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"admute/internal/config"
	"admute/pkg/window"
)

// Locator finds candidate processes by name substring
type Locator interface {
	FindTargetPIDs(substring string) map[string][]uint32
}

// WindowFinder resolves the visible top-level window of a process
type WindowFinder interface {
	FindWindow(pid uint32) (window.Handle, bool)
}

// Muter applies a mute flag to the audio of a process
type Muter interface {
	SetMute(pid uint32, mute bool) (changed bool, err error)
}

// Observer receives the human-facing status events of the loop
type Observer interface {
	Found(pid uint32)
	NotRunning()
	WindowClosed()
	TitleChanged(title string)
}

// Recorder receives the result of every cycle
type Recorder interface {
	Record(res Result)
}

// Deps are the collaborators of a Monitor. Observer and Recorder are optional.
type Deps struct {
	Locator  Locator
	Windows  WindowFinder
	Titles   window.TitleReader
	Muter    Muter
	Observer Observer
	Recorder Recorder
}

type Monitor struct {
	config *config.Config
	deps   Deps
	log    zerolog.Logger
	now    func() time.Time
}

func New(cfg *config.Config, deps Deps, log zerolog.Logger) *Monitor {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Monitor{
		config: cfg,
		deps:   deps,
		log:    log,
		now:    time.Now,
	}
}

// Initial returns the starting state
func (m *Monitor) Initial() State {
	return State{Phase: NoTarget, Interval: m.config.Monitor.IdleInterval}
}

// Run steps the state machine until ctx is cancelled, sleeping for the
// interval chosen by each step. With FailFast a mute failure ends the loop
// and is returned.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().
		Str("process", m.config.Target.ProcessName).
		Str("marker", m.config.Target.AdvertMarker).
		Msg("Starting monitor")

	state := m.Initial()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		if err := ctx.Err(); err != nil {
			m.log.Info().Msg("Monitor stopped by context")
			return err
		}

		next, res, err := m.Step(state)
		if m.deps.Recorder != nil {
			m.deps.Recorder.Record(res)
		}
		if err != nil {
			return err
		}
		state = next

		timer.Reset(state.Interval)
	}
}

// Step runs one poll cycle: locate (cold path only), resolve, read, and
// mute on a title change. It returns the next state. A failed mute leaves
// LastTitle and InAdvert untouched so the next cycle retries; the error is
// returned only with FailFast set.
func (m *Monitor) Step(s State) (State, Result, error) {
	res := Result{At: m.now(), PID: s.PID}
	res.enter(s.Phase)

	var (
		handle   window.Handle
		resolved bool
	)

	if !s.HasTarget() {
		s.Interval = m.config.Monitor.SearchInterval

		pid, h, ok := m.locate()
		if !ok {
			s = State{Phase: NoTarget, Interval: s.Interval}
			res.NotRunning = true
			m.deps.Observer.NotRunning()
			return s, res, nil
		}

		s.PID = pid
		s.Phase = TargetIdle
		handle, resolved = h, true

		res.Found = true
		res.PID = pid
		res.enter(s.Phase)
		m.deps.Observer.Found(pid)
		m.log.Info().Uint32("pid", pid).Msg("Target process found")
	} else if !s.InAdvert {
		s.Interval = m.config.Monitor.IdleInterval
	}

	if !resolved {
		handle, resolved = m.deps.Windows.FindWindow(s.PID)
	}

	if !resolved {
		res.enter(TargetNoWindow)
		m.log.Info().Uint32("pid", s.PID).Msg("Target window lost")
		m.deps.Observer.WindowClosed()

		s = State{Phase: NoTarget, Interval: m.config.Monitor.SearchInterval}
		res.Lost = true
		res.enter(s.Phase)
		return s, res, nil
	}

	title, ok := m.deps.Titles.ReadTitle(handle)
	if !ok || title == s.LastTitle {
		return s, res, nil
	}

	res.TitleChanged = true
	res.Title = title
	m.deps.Observer.TitleChanged(title)

	advert := IsAdvert(title, m.config.Target.AdvertMarker)
	res.MuteRequested = true
	res.Mute = advert

	changed, err := m.deps.Muter.SetMute(s.PID, advert)
	if err != nil {
		res.Err = err
		m.log.Error().Err(err).
			Uint32("pid", s.PID).
			Bool("mute", advert).
			Msg("Failed to set mute state")
		if m.config.Monitor.FailFast {
			return s, res, err
		}
		return s, res, nil
	}
	res.MuteChanged = changed

	s.InAdvert = advert
	s.LastTitle = title
	if advert {
		s.Phase = TargetAdvert
		s.Interval = m.config.Monitor.AdvertInterval
	} else {
		s.Phase = TargetIdle
		s.Interval = m.config.Monitor.IdleInterval
	}
	res.enter(s.Phase)

	return s, res, nil
}

// locate returns the first PID of the configured process whose window
// resolves, together with that window
func (m *Monitor) locate() (uint32, window.Handle, bool) {
	matches := m.deps.Locator.FindTargetPIDs(m.config.Target.SearchSubstring)
	pids := matches[m.config.Target.ProcessName]

	for _, pid := range pids {
		if h, ok := m.deps.Windows.FindWindow(pid); ok {
			return pid, h, true
		}
		m.log.Debug().Uint32("pid", pid).Msg("Candidate has no visible window")
	}

	return 0, 0, false
}

type nopObserver struct{}

func (nopObserver) Found(uint32)        {}
func (nopObserver) NotRunning()         {}
func (nopObserver) WindowClosed()       {}
func (nopObserver) TitleChanged(string) {}
