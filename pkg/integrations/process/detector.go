package process

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	gops "github.com/shirou/gopsutil/v4/process"
)

// Entry is one row of the process table
type Entry struct {
	PID  uint32
	Name string
}

// Lister returns the process table in OS enumeration order
type Lister func(ctx context.Context) ([]Entry, error)

// Locator finds processes whose name contains a substring
type Locator struct {
	list    Lister
	timeout time.Duration
	log     zerolog.Logger
}

// NewLocator creates a locator backed by gopsutil
func NewLocator(log zerolog.Logger) *Locator {
	return NewLocatorWithLister(ListProcesses, log)
}

// NewLocatorWithLister creates a locator over a custom process table
func NewLocatorWithLister(list Lister, log zerolog.Logger) *Locator {
	return &Locator{
		list:    list,
		timeout: 5 * time.Second,
		log:     log,
	}
}

// FindTargetPIDs returns matching processes grouped by their exact name. The
// match is a case-insensitive substring test; PIDs keep enumeration order.
// A failed enumeration yields an empty map.
func (l *Locator) FindTargetPIDs(substring string) map[string][]uint32 {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	matches := make(map[string][]uint32)

	entries, err := l.list(ctx)
	if err != nil {
		l.log.Debug().Err(err).Msg("process enumeration failed")
		return matches
	}

	needle := strings.ToLower(substring)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			matches[e.Name] = append(matches[e.Name], e.PID)
		}
	}

	return matches
}

// ListProcesses reads the process table through gopsutil. Processes whose
// name cannot be read (exited, access denied) are skipped.
func ListProcesses(ctx context.Context) ([]Entry, error) {
	procs, err := gops.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get process list")
	}

	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		entries = append(entries, Entry{PID: uint32(p.Pid), Name: name})
	}

	return entries, nil
}

// IsRunning reports whether pid refers to a live process
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := gops.PidExists(int32(pid))
	return err == nil && exists
}

// Name returns the executable name of pid
func Name(pid int) (string, error) {
	p, err := gops.NewProcess(int32(pid))
	if err != nil {
		return "", errors.Wrapf(err, "failed to find process %d", pid)
	}
	name, err := p.Name()
	if err != nil {
		return "", errors.Wrapf(err, "failed to read name of process %d", pid)
	}
	return name, nil
}

// Terminate asks the process to exit. On Windows this is TerminateProcess.
func Terminate(pid int) error {
	p, err := gops.NewProcess(int32(pid))
	if err != nil {
		return errors.Wrapf(err, "failed to find process %d", pid)
	}
	if err := p.Terminate(); err != nil {
		return errors.Wrapf(err, "failed to terminate process %d", pid)
	}
	return nil
}
