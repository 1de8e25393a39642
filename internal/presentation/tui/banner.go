package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// PrintBanner writes the console banner with the build version and terminal id.
func PrintBanner(w io.Writer, version, terminalID string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []termenv.Style{
		out.String("  ____   ___  ____  ").Foreground(p.Color("#34d399")),
		out.String(" |  _ \\ / _ \\/ ___| ").Foreground(p.Color("#2dd4bf")),
		out.String(" | |_) | | | \\___ \\ ").Foreground(p.Color("#22d3ee")),
		out.String(" |  __/| |_| |___) |").Foreground(p.Color("#38bdf8")),
		out.String(" |_|    \\___/|____/ ").Foreground(p.Color("#60a5fa")),
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintf(w, " %s  terminal %s\n\n",
		out.String("v"+version).Faint(),
		out.String(terminalID).Bold(),
	)
}

// ModeColor picks the status color of a mode: red when fatal, amber while a
// transaction is closing, green otherwise.
func ModeColor(mode domain.Mode) string {
	switch mode {
	case domain.ModeFatalError:
		return "#f87171"
	case domain.ModeWaitingToClose, domain.ModeWaitingToClearTransaction, domain.ModeVoidTransaction:
		return "#fbbf24"
	}
	return "#34d399"
}

// PrintStatus writes a one-line colored summary of the interaction state.
func PrintStatus(w io.Writer, s domain.InteractionState) {
	out := termenv.NewOutput(w)
	mode := string(s.Mode)
	if mode == "" {
		mode = "-"
	}
	state := string(s.LogicalState)
	if state == "" {
		state = "Undefined"
	}
	fmt.Fprintf(w, "%s %s\n",
		out.String(state).Bold(),
		out.String("["+mode+"]").Foreground(out.ColorProfile().Color(ModeColor(s.Mode))),
	)
}
