package palette

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	swatchLabel = lipgloss.NewStyle().Width(40)
	swatchHex   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B9AAE"))
)

// Swatches renders one line per palette entry: a color block, the variable
// name and the hex value.
func Swatches(p Palette) string {
	var b strings.Builder
	for _, name := range p.Variables() {
		color := p[name]
		block := lipgloss.NewStyle().
			Background(lipgloss.Color(terminalHex(color))).
			Render("    ")
		fmt.Fprintf(&b, "%s %s %s\n", block, swatchLabel.Render(name), swatchHex.Render(color))
	}
	return b.String()
}

// terminalHex drops the alpha channel, which terminals cannot display.
func terminalHex(color string) string {
	color = strings.TrimSpace(color)
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	if len(color) == 9 {
		return color[:7]
	}
	return color
}
