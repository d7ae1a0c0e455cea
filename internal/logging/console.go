package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ConsolePrefix tags every line nextron prints for humans.
const ConsolePrefix = "[nextron]"

// Console prints short human-facing status lines, e.g.
//
//	[nextron] Run main process: electron . 8888 --inspect=9292
//
// Color is used only when the destination is a terminal and NO_COLOR is
// unset. It is safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	prefix lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	bold   lipgloss.Style
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	if !colorEnabled(out) {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Console{
		out:    out,
		prefix: r.NewStyle().Foreground(lipgloss.Color("6")),
		err:    r.NewStyle().Foreground(lipgloss.Color("1")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		bold:   r.NewStyle().Bold(true),
	}
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Info prints a status line.
func (c *Console) Info(format string, args ...any) {
	c.println(fmt.Sprintf(format, args...))
}

// Error prints an error line in red.
func (c *Console) Error(format string, args ...any) {
	c.println(c.err.Render(fmt.Sprintf(format, args...)))
}

// Diagnostics prints compiler diagnostics, one block per entry.
func (c *Console) Diagnostics(diagnostics []string) {
	for _, d := range diagnostics {
		for _, line := range strings.Split(strings.TrimRight(d, "\n"), "\n") {
			c.println(c.warn.Render(line))
		}
	}
}

// Fatal prints a headline and the error beneath it, used when a command
// gives up entirely.
func (c *Console) Fatal(headline string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n%s\n%s\n\n",
		c.bold.Inherit(c.err).Render(headline),
		c.bold.Inherit(c.warn).Render(err.Error()))
}

func (c *Console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s %s\n", c.prefix.Render(ConsolePrefix), text)
}
