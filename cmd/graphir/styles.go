package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// renderOrder lists the nodes of g in their current order.
func renderOrder(g *ir.Graph) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%s, %d nodes)", g.Name(), g.SortState(), g.NodeCount())))
	b.WriteByte('\n')
	for n := range g.Nodes() {
		fmt.Fprintf(&b, "%4d  %-24s %s\n", n.ID(), n.Name(), dimStyle.Render(n.Type()))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderError(err error) string {
	return errorStyle.Render("✗ " + err.Error())
}

func renderSuccess(msg string) string {
	return successStyle.Render("✓ " + msg)
}
