package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/opencode-ai/illo/internal/renderer"
)

var (
	statusOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950")).Bold(true)
	statusBusy = lipgloss.NewStyle().Foreground(lipgloss.Color("#58A6FF")).Bold(true)
	statusWait = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922")).Bold(true)
	statusErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F85149")).Bold(true)
)

func formatState(state renderer.State, color bool) string {
	label, style := statusLabelForState(state)
	text := formatStatusLabel(label, state.String())
	if !color {
		return text
	}
	return style.Render(text)
}

func statusLabelForState(state renderer.State) (string, lipgloss.Style) {
	switch state {
	case renderer.StateReady:
		return "OK", statusOK
	case renderer.StateConnecting, renderer.StateAwaitingLoad:
		return "WAIT", statusWait
	case renderer.StateIdle:
		return "IDLE", statusBusy
	default:
		return "END", statusErr
	}
}

func formatStatusLabel(label, status string) string {
	normalized := strings.TrimSpace(status)
	if normalized != "" {
		normalized = strings.ReplaceAll(normalized, "_", " ")
	}
	if normalized == "" {
		return label
	}
	return fmt.Sprintf("%s %s", label, normalized)
}
