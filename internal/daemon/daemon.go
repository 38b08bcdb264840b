package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"admute/pkg/integrations/process"
)

// ErrAlreadyRunning is returned by Acquire when another monitor holds the PID file
var ErrAlreadyRunning = errors.New("admute is already running")

type Daemon struct {
	pidFile string
	self    string
	alive   func(pid int) bool
	name    func(pid int) (string, error)
	kill    func(pid int) error
}

func New(pidFile string) *Daemon {
	self := ""
	if exe, err := os.Executable(); err == nil {
		self = filepath.Base(exe)
	}
	return &Daemon{
		pidFile: pidFile,
		self:    self,
		alive:   process.IsRunning,
		name:    process.Name,
		kill:    process.Terminate,
	}
}

func (d *Daemon) PIDFile() string {
	return d.pidFile
}

func (d *Daemon) WritePID() error {
	if err := os.MkdirAll(filepath.Dir(d.pidFile), 0755); err != nil {
		return errors.Wrap(err, "failed to create PID directory")
	}
	pid := os.Getpid()
	return os.WriteFile(d.pidFile, fmt.Appendf([]byte{}, "%d", pid), 0644)
}

func (d *Daemon) ReadPID() (int, error) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in file")
	}

	return pid, nil
}

func (d *Daemon) RemovePID() error {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

// IsRunning reports whether the PID file names a live process running this
// executable. A stale file, including one whose PID was reused by another
// program, is removed.
func (d *Daemon) IsRunning() (bool, int, error) {
	pid, err := d.ReadPID()
	if err != nil {
		return false, 0, err
	}

	if pid == 0 {
		return false, 0, nil
	}

	if !d.owns(pid) {
		_ = d.RemovePID()
		return false, 0, nil
	}

	return true, pid, nil
}

func (d *Daemon) owns(pid int) bool {
	if !d.alive(pid) {
		return false
	}
	name, err := d.name(pid)
	if err != nil {
		return false
	}
	return SameExecutable(name, d.self)
}

// SameExecutable compares a process name with an executable base name. Case
// and a trailing ".exe" are ignored. Linux truncates process names to 15
// bytes, so a 15-byte name also matches as a prefix.
func SameExecutable(procName, exe string) bool {
	norm := func(s string) string {
		return strings.TrimSuffix(strings.ToLower(s), ".exe")
	}
	a, b := norm(procName), norm(exe)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return len(procName) == 15 && strings.HasPrefix(b, a)
}

// Acquire writes the PID file unless another live monitor owns it
func (d *Daemon) Acquire() error {
	running, pid, err := d.IsRunning()
	if err != nil {
		return err
	}
	if running && pid != os.Getpid() {
		return errors.Wrapf(ErrAlreadyRunning, "pid %d", pid)
	}
	return d.WritePID()
}

func (d *Daemon) Stop() error {
	running, pid, err := d.IsRunning()
	if err != nil {
		return errors.Wrap(err, "error checking monitor status")
	}

	if !running {
		return errors.New("monitor is not running or PID file is stale")
	}

	if err := d.kill(pid); err != nil {
		if !d.alive(pid) {
			_ = d.RemovePID()
			return errors.New("monitor process already terminated")
		}
		return err
	}

	if err := d.RemovePID(); err != nil {
		return errors.Wrap(err, "failed to remove PID file")
	}

	return nil
}
