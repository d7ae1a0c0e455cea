package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestConsole_Info(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Info("Run renderer process: next -p %d %s", 8888, "renderer")

	want := "[nextron] Run renderer process: next -p 8888 renderer\n"
	if buf.String() != want {
		t.Errorf("Info() wrote %q, want %q", buf.String(), want)
	}
}

func TestConsole_NoColorForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Error("The option `--port` has been removed.")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no ANSI escapes for a buffer, got %q", buf.String())
	}
}

func TestConsole_Diagnostics(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Diagnostics([]string{"main/background.ts:1:4: ERROR: Expected \";\"\n  1 | let x y\n", "second"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, ConsolePrefix+" ") {
			t.Errorf("line %q missing prefix", line)
		}
	}
}

func TestConsole_Fatal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Fatal("Cannot build electron packages:", errors.New("next build exited with status 1"))

	out := buf.String()
	if !strings.Contains(out, "Cannot build electron packages:") || !strings.Contains(out, "exited with status 1") {
		t.Errorf("Fatal() wrote %q", out)
	}
}
