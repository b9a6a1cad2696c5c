package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"linecap/pkg/line"
)

const clockFormat = "15:04:05.000"

type textStyles struct {
	enabled bool
	stdout  lipgloss.Style
	stderr  lipgloss.Style
	faint   lipgloss.Style
	failed  lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	if !color {
		return textStyles{}
	}
	// The caller decided on color already; don't let lipgloss detect it again.
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return textStyles{
		enabled: true,
		stdout:  r.NewStyle().Foreground(lipgloss.Color("2")),
		stderr:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		faint:   r.NewStyle().Faint(true),
		failed:  r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (s textStyles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

func (s textStyles) tag(stream line.Stream) string {
	if stream == line.Stderr {
		return s.render(s.stderr, "err")
	}
	return s.render(s.stdout, "out")
}

// writeText writes one line per captured line followed by a summary:
//
//	12:00:00.000 out hello
//	12:00:00.001 err oops
//	-- exit status 0 after 2ms
func writeText(w io.Writer, inv Invocation, color bool) error {
	styles := newTextStyles(w, color)

	if !inv.Captured {
		if _, err := fmt.Fprintln(w, styles.render(styles.faint, "(lines not captured)")); err != nil {
			return err
		}
	}
	for _, l := range inv.Lines {
		clock := styles.render(styles.faint, l.Time.Local().Format(clockFormat))
		if _, err := fmt.Fprintf(w, "%s %s %s\n", clock, styles.tag(l.PrintedTo), l.Content); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("-- %s after %s", statusText(inv), inv.Duration())
	if inv.Finished && inv.Status.Success() {
		summary = styles.render(styles.faint, summary)
	} else {
		summary = styles.render(styles.failed, summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}
