package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDaemon returns a daemon whose process table is procs (pid to
// executable name) and which believes it runs as "admute"
func newTestDaemon(t *testing.T, procs map[int]string) (*Daemon, *[]int) {
	t.Helper()
	killed := []int{}
	d := New(filepath.Join(t.TempDir(), "admute.pid"))
	d.self = "admute"
	d.alive = func(pid int) bool {
		_, ok := procs[pid]
		return ok
	}
	d.name = func(pid int) (string, error) {
		name, ok := procs[pid]
		if !ok {
			return "", errors.New("no such process")
		}
		return name, nil
	}
	d.kill = func(pid int) error {
		killed = append(killed, pid)
		delete(procs, pid)
		return nil
	}
	return d, &killed
}

func TestReadPIDMissingFile(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Zero(t, pid)
}

func TestWriteAndReadPID(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	require.NoError(t, d.WritePID())

	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestReadPIDTrimsWhitespace(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("1234\n"), 0644))

	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)
}

func TestReadPIDGarbage(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("abc"), 0644))

	_, err := d.ReadPID()
	assert.Error(t, err)
}

func TestIsRunningRemovesStaleFile(t *testing.T) {
	d, _ := newTestDaemon(t, map[int]string{})
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("999"), 0644))

	running, pid, err := d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)
	assert.Zero(t, pid)

	_, statErr := os.Stat(d.PIDFile())
	assert.True(t, os.IsNotExist(statErr))
}

func TestAcquireRefusesSecondInstance(t *testing.T) {
	d, _ := newTestDaemon(t, map[int]string{777: "admute"})
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("777"), 0644))

	err := d.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
	assert.Equal(t, ErrAlreadyRunning, pkgerrors.Cause(err))
}

func TestAcquireReplacesStaleFile(t *testing.T) {
	d, _ := newTestDaemon(t, map[int]string{})
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("777"), 0644))

	require.NoError(t, d.Acquire())
	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestStop(t *testing.T) {
	d, killed := newTestDaemon(t, map[int]string{555: "admute.exe"})
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("555"), 0644))

	require.NoError(t, d.Stop())
	assert.Equal(t, []int{555}, *killed)

	_, statErr := os.Stat(d.PIDFile())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStopNotRunning(t *testing.T) {
	d, killed := newTestDaemon(t, map[int]string{})
	assert.Error(t, d.Stop())
	assert.Empty(t, *killed)
}

func TestReusedPIDIsNotTreatedAsMonitor(t *testing.T) {
	d, killed := newTestDaemon(t, map[int]string{4410: "bash"})
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("4410"), 0644))

	running, _, err := d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("4410"), 0644))
	assert.Error(t, d.Stop())
	assert.Empty(t, *killed, "an unrelated process must never be terminated")

	require.NoError(t, os.WriteFile(d.PIDFile(), []byte("4410"), 0644))
	require.NoError(t, d.Acquire())
	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestParentProcessIsNotTreatedAsMonitor(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "admute.pid"))
	d.kill = func(pid int) error {
		t.Fatalf("kill called for pid %d", pid)
		return nil
	}

	parent := os.Getppid()
	require.NoError(t, os.WriteFile(d.PIDFile(), []byte(strconv.Itoa(parent)), 0644))

	running, _, err := d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, os.WriteFile(d.PIDFile(), []byte(strconv.Itoa(parent)), 0644))
	assert.Error(t, d.Stop())
}

func TestOwnPIDIsTreatedAsMonitor(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "admute.pid"))
	require.NoError(t, d.WritePID())

	running, pid, err := d.IsRunning()
	require.NoError(t, err)
	if !running {
		t.Skip("process name unavailable on this platform")
	}
	assert.Equal(t, os.Getpid(), pid)
}

func TestSameExecutable(t *testing.T) {
	tests := []struct {
		procName string
		exe      string
		want     bool
	}{
		{"admute", "admute", true},
		{"admute.exe", "admute.exe", true},
		{"ADMUTE.EXE", "admute.exe", true},
		{"admute", "admute.exe", true},
		{"bash", "admute", false},
		{"go", "daemon.test", false},
		{"admute-monitor-", "admute-monitor-linux-amd64", true},
		{"admute-mon", "admute-monitor", false},
		{"", "admute", false},
		{"admute", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SameExecutable(tt.procName, tt.exe), "%q vs %q", tt.procName, tt.exe)
	}
}
