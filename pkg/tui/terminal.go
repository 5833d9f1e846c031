package tui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/vt"
	"github.com/creack/pty"
)

// terminalTickMsg triggers a re-render of the embedded terminal.
type terminalTickMsg struct{}

// terminalExitMsg signals that the embedded process has exited.
type terminalExitMsg struct{ err error }

// terminalTick returns a command that ticks at ~30fps for terminal re-renders.
func terminalTick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(time.Time) tea.Msg {
		return terminalTickMsg{}
	})
}

// TerminalModel runs a command inside an embedded virtual terminal
// (charmbracelet/x/vt) backed by a PTY. The extract editor uses it to host
// $EDITOR without giving up the screen.
type TerminalModel struct {
	emulator *vt.Emulator
	ptmx     *os.File // PTY master
	cmd      *exec.Cmd
	width    int
	height   int

	mu      sync.Mutex // guards done/exitErr
	done    bool
	exitErr error
}

// NewTerminal starts cmd in a PTY of the given size and returns the model
// with the command that begins rendering.
func NewTerminal(w, h int, cmd *exec.Cmd) (*TerminalModel, tea.Cmd) {
	em := vt.NewEmulator(w, h)
	t := &TerminalModel{emulator: em, cmd: cmd, width: w, height: h}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(h), Cols: uint16(w)})
	if err != nil {
		t.done, t.exitErr = true, err
		return t, func() tea.Msg { return terminalExitMsg{err: err} }
	}
	t.ptmx = ptmx

	go func() {
		_, _ = io.Copy(em, ptmx)
		waitErr := cmd.Wait()
		t.mu.Lock()
		t.done, t.exitErr = true, waitErr
		t.mu.Unlock()
	}()

	return t, terminalTick()
}

// Update forwards keys to the process and polls for its exit.
func (t *TerminalModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if t.ptmx != nil {
			if b := encodeKey(msg); len(b) > 0 {
				_, _ = t.ptmx.Write(b)
			}
		}
		return nil

	case terminalTickMsg:
		t.mu.Lock()
		done, err := t.done, t.exitErr
		t.mu.Unlock()
		if done {
			return func() tea.Msg { return terminalExitMsg{err: err} }
		}
		return terminalTick()
	}
	return nil
}

// View renders the terminal emulator contents.
func (t *TerminalModel) View() string {
	return t.emulator.Render()
}

// Resize resizes the terminal emulator and PTY.
func (t *TerminalModel) Resize(w, h int) {
	t.width, t.height = w, h
	t.emulator.Resize(w, h)
	if t.ptmx != nil {
		_ = pty.Setsize(t.ptmx, &pty.Winsize{Rows: uint16(h), Cols: uint16(w)})
	}
}

// Close kills the process and cleans up resources.
func (t *TerminalModel) Close() {
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	if t.ptmx != nil {
		_ = t.ptmx.Close()
	}
}

// resolveEditor picks the program used to edit extracts: the configured
// one, then $VISUAL, then $EDITOR, then vi.
func resolveEditor(configured string) string {
	for _, e := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if e = strings.TrimSpace(e); e != "" {
			return e
		}
	}
	return "vi"
}

// editorCommand runs editor on path through a login shell so the user's
// editor config is loaded.
func editorCommand(editor, path string) *exec.Cmd {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, "-l", "-c", fmt.Sprintf("%s %q", editor, path))
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	return cmd
}

// writeExtractFile stores an extract in a temp file for the editor.
func writeExtractFile(extract string) (string, error) {
	f, err := os.CreateTemp("", "simplepedia-extract-*.md")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.WriteString(extract); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	return path, nil
}

// readExtractFile reads the edited extract back and removes the file. Most
// editors add a final newline; it is dropped.
func readExtractFile(path string) (string, error) {
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// keySequences maps named keys to the bytes an xterm sends for them.
var keySequences = map[string]string{
	"enter":     "\r",
	"backspace": "\x7f",
	"tab":       "\t",
	"shift+tab": "\x1b[Z",
	" ":         " ",
	"space":     " ",
	"esc":       "\x1b",
	"up":        "\x1b[A",
	"down":      "\x1b[B",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"home":      "\x1b[H",
	"end":       "\x1b[F",
	"pgup":      "\x1b[5~",
	"pgdown":    "\x1b[6~",
	"insert":    "\x1b[2~",
	"delete":    "\x1b[3~",
	"f1":        "\x1bOP",
	"f2":        "\x1bOQ",
	"f3":        "\x1bOR",
	"f4":        "\x1bOS",
	"f5":        "\x1b[15~",
	"f6":        "\x1b[17~",
	"f7":        "\x1b[18~",
	"f8":        "\x1b[19~",
	"f9":        "\x1b[20~",
	"f10":       "\x1b[21~",
	"f11":       "\x1b[23~",
	"f12":       "\x1b[24~",
}

// encodeKey converts a tea.KeyMsg into raw bytes suitable for writing to a PTY.
func encodeKey(msg tea.KeyMsg) []byte {
	if msg.Type == tea.KeyRunes {
		b := []byte(string(msg.Runes))
		if msg.Alt {
			b = append([]byte{0x1b}, b...)
		}
		return b
	}

	s := msg.String()
	if seq, ok := keySequences[s]; ok {
		return []byte(seq)
	}
	if c, ok := strings.CutPrefix(s, "ctrl+"); ok && len(c) == 1 && c[0] >= 'a' && c[0] <= 'z' {
		return []byte{c[0] - 'a' + 1}
	}
	return nil
}
