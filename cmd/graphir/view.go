package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 1)
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next graph"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev graph"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Up, k.Down},
		{k.Quit},
	}
}

// viewModel browses the node order of a graph and its subgraphs, one tab
// per graph.
type viewModel struct {
	graphs  []*ir.Graph
	current int
	table   table.Model
	help    help.Model
	keys    keyMap
	width   int
	message string
	failed  bool
}

func newViewModel(g *ir.Graph, sortErr error) viewModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Name", Width: 28},
			{Title: "Type", Width: 18},
			{Title: "Bytes", Width: 12},
			{Title: "Consumers", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	m := viewModel{
		graphs: append([]*ir.Graph{g}, g.AllSubgraphs()...),
		table:  t,
		help:   help.New(),
		keys:   keys,
	}
	if sortErr != nil {
		m.message, m.failed = sortErr.Error(), true
	} else {
		m.message = fmt.Sprintf("sorted %d graphs", len(m.graphs))
	}
	m.loadRows()
	return m
}

func (m *viewModel) loadRows() {
	g := m.graphs[m.current]
	rows := make([]table.Row, 0, g.NodeCount())
	for n := range g.Nodes() {
		rows = append(rows, table.Row{
			strconv.FormatInt(n.ID(), 10),
			n.Name(),
			n.Type(),
			formatBytes(ir.EstimateOutputBytes(n)),
			strconv.Itoa(n.OutDataEdgeCount() + n.OutControlAnchor().PeerCount()),
		})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func formatBytes(b int64) string {
	if b >= ir.UnknownTensorBytes {
		return "unknown"
	}
	return strconv.FormatInt(b, 10)
}

func (m viewModel) Init() tea.Cmd { return nil }

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.current = (m.current + 1) % len(m.graphs)
			m.loadRows()
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.current = (m.current + len(m.graphs) - 1) % len(m.graphs)
			m.loadRows()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m viewModel) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("graphir"))
	s.WriteString("\n\n")

	tabs := make([]string, len(m.graphs))
	for i, g := range m.graphs {
		label := fmt.Sprintf("%s [%s]", g.Name(), g.SortState())
		if i == m.current {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = inactiveTabStyle.Render(label)
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	s.WriteString("\n\n")
	s.WriteString(m.table.View())

	if m.message != "" {
		s.WriteString("\n\n")
		if m.failed {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}
	s.WriteString("\n\n")
	s.WriteString(dimStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func runView(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "configuration file")
	var sf sortFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := graphArg(fs)
	if err != nil {
		return err
	}

	s, err := newSession(*cfgPath, io.Discard)
	if err != nil {
		return err
	}
	opts, err := sf.apply(fs, &s.cfg)
	if err != nil {
		return err
	}
	g, err := s.loadGraph(path)
	if err != nil {
		return err
	}

	m := newViewModel(g, s.sorter.Sort(g, opts))
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(stdout)).Run()
	return err
}
