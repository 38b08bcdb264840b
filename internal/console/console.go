package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	colorReset = "\x1b[0m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorCyan  = "\x1b[36m"

	clearScreen = "\x1b[2J\x1b[1;1H"
)

// Printer writes the user-facing status lines of the monitor
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	color  bool
	tty    bool
	target string
}

// New creates a printer on stdout. mode is "auto", "always" or "never"; auto
// enables color only when stdout is a terminal.
func New(mode, target string) *Printer {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	color := false
	switch mode {
	case "always":
		color = true
	case "auto":
		color = tty
	}
	return NewWithWriter(colorable.NewColorableStdout(), color, tty, target)
}

// NewWithWriter creates a printer on an arbitrary writer. tty tells whether
// w is a terminal.
func NewWithWriter(w io.Writer, color, tty bool, target string) *Printer {
	return &Printer{out: w, color: color, tty: tty, target: target}
}

func (p *Printer) printf(color, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf(format, args...)
	if p.color && color != "" {
		line = color + line + colorReset
	}
	fmt.Fprintln(p.out, line)
}

// ClearScreen clears the terminal and homes the cursor. It is a no-op when
// the output is not a terminal, whatever the color mode.
func (p *Printer) ClearScreen() {
	if !p.tty {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, clearScreen)
}

// Banner announces that the monitor is active on a backend
func (p *Printer) Banner(backend string) {
	p.printf(colorCyan, " admute → ON (%s)", backend)
}

// TitleChanged reports a newly observed window title
func (p *Printer) TitleChanged(title string) {
	p.printf("", " Active window: %q", title)
}

// MuteChanged reports an applied mute change. It satisfies audio.Notifier.
func (p *Printer) MuteChanged(pid uint32, muted bool) {
	if muted {
		p.printf(colorRed, "🔇 Advertisement detected → muting %s (pid %d)", p.target, pid)
		return
	}
	p.printf(colorGreen, "🎵 Normal playback → unmuting %s (pid %d)", p.target, pid)
}

// NotRunning reports that no target process was found
func (p *Printer) NotRunning() {
	p.printf("", "%s is not running. Waiting...", p.target)
}

// WindowClosed reports that the tracked process lost its window
func (p *Printer) WindowClosed() {
	p.printf("", "Window closed. %s may have exited, searching again...", p.target)
}

// Found reports the process being tracked
func (p *Printer) Found(pid uint32) {
	p.printf("", "Found %s (pid %d)", p.target, pid)
}

// Line writes an uncolored line. Used by the diagnostic commands.
func (p *Printer) Line(format string, args ...any) {
	p.printf("", format, args...)
}
