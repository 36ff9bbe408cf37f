package tui

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// copyToClipboard writes text to the system clipboard via the OSC 52
// terminal escape sequence, writing directly to /dev/tty to bypass
// the managed renderer (OSC 52 has no screen effect, so this is safe
// alongside the TUI).
//
// BEL terminates the OSC rather than ST because the single byte
// survives layered terminal environments (SSH, tmux, screen). Under
// tmux the sequence is additionally sent through DCS passthrough;
// duplicate clipboard sets are harmless.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			return nil
		}
		defer tty.Close()

		encoded := base64.StdEncoding.EncodeToString([]byte(text))
		osc52 := fmt.Sprintf("\x1b]52;c;%s\x07", encoded)

		inTmux := os.Getenv("TMUX") != "" ||
			strings.HasPrefix(os.Getenv("TERM"), "tmux") ||
			strings.HasPrefix(os.Getenv("TERM"), "screen")
		if inTmux {
			fmt.Fprintf(tty, "\x1bPtmux;\x1b%s\x1b\\", osc52)
		}

		_, _ = tty.WriteString(osc52)
		return nil
	}
}
