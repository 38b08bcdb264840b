package window

import "github.com/rs/zerolog"

// Resolver finds the visible top-level window owned by a process
type Resolver struct {
	enum Enumerator
	log  zerolog.Logger
}

// NewResolver creates a resolver over the given enumerator
func NewResolver(enum Enumerator, log zerolog.Logger) *Resolver {
	return &Resolver{enum: enum, log: log}
}

// FindWindow enumerates all top-level windows and returns the first visible
// one owned by pid. Enumeration failures are reported as "no window"; callers
// re-invoke on the next poll.
func (r *Resolver) FindWindow(pid uint32) (Handle, bool) {
	windows, err := r.enum.Windows()
	if err != nil {
		r.log.Debug().Err(err).Str("backend", r.enum.Name()).Msg("window enumeration failed")
		return 0, false
	}
	return FirstVisible(windows, pid)
}
