package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/cypherbridge/pkg/client"
	"github.com/dd0wney/cypherbridge/pkg/config"
	"github.com/dd0wney/cypherbridge/pkg/convert"
	"github.com/dd0wney/cypherbridge/pkg/harness"
	"github.com/dd0wney/cypherbridge/pkg/logging"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2).
			MarginTop(1)

	uriStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(2)

	inputBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1).
			MarginLeft(2).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			MarginLeft(2)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			MarginLeft(2)

	resultStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Enter key.Binding
	Up    key.Binding
	Down  key.Binding
	Clear key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run query"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "history back"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "history forward"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Up, k.Clear, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.Up, k.Down},
		{k.Clear, k.Quit},
	}
}

type model struct {
	sess        *client.Session
	uri         string
	queryInput  textinput.Model
	resultTable table.Model
	hasResults  bool
	help        help.Model
	keys        keyMap
	history     []string
	histPos     int
	width       int
	height      int
	message     string
	messageErr  bool
}

func initialModel(sess *client.Session, uri string) model {
	ti := textinput.New()
	ti.Placeholder = "MATCH (n) RETURN n LIMIT 25"
	ti.CharLimit = 500
	ti.Width = 76
	ti.Focus()

	return model{
		sess:       sess,
		uri:        uri,
		queryInput: ti,
		help:       help.New(),
		keys:       keys,
		histPos:    -1,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Enter):
			m.executeQuery()

		case key.Matches(msg, m.keys.Up):
			m.recallHistory(-1)
			return m, nil

		case key.Matches(msg, m.keys.Down):
			m.recallHistory(1)
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.queryInput.SetValue("")
			m.message = ""
			m.hasResults = false
		}
	}

	m.queryInput, cmd = m.queryInput.Update(msg)
	cmds = append(cmds, cmd)

	if m.hasResults {
		m.resultTable, cmd = m.resultTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) recallHistory(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.histPos == -1 {
		m.histPos = len(m.history)
	}
	m.histPos += dir
	if m.histPos < 0 {
		m.histPos = 0
	}
	if m.histPos >= len(m.history) {
		m.histPos = -1
		m.queryInput.SetValue("")
		return
	}
	m.queryInput.SetValue(m.history[m.histPos])
	m.queryInput.CursorEnd()
}

func (m *model) executeQuery() {
	cypher := strings.TrimSpace(m.queryInput.Value())
	if cypher == "" {
		m.message = "Query cannot be empty"
		m.messageErr = true
		return
	}

	m.history = append(m.history, cypher)
	m.histPos = -1

	start := time.Now()
	records, err := m.sess.Run(context.Background(), cypher, nil)
	if err != nil {
		m.message = fmt.Sprintf("Query error: %v", err)
		m.messageErr = true
		m.hasResults = false
		return
	}
	elapsed := time.Since(start)

	m.message = fmt.Sprintf("%d record(s) in %s", len(records), elapsed.Round(time.Microsecond))
	m.messageErr = false
	m.updateResultTable(records)
	m.queryInput.SetValue("")
}

func (m *model) updateResultTable(records []convert.Record) {
	if len(records) == 0 {
		m.hasResults = false
		return
	}

	keys := records[0].Keys()
	columns := make([]table.Column, len(keys))
	for i, k := range keys {
		columns[i] = table.Column{Title: k, Width: 24}
	}

	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		row := make(table.Row, len(keys))
		for i, k := range keys {
			v, _ := rec.Get(k)
			row[i] = formatValue(v)
		}
		rows = append(rows, row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(min(len(rows)+1, 15)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(s)

	m.resultTable = t
	m.hasResults = true
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		parts := make([]string, 0, len(val))
		for k, v := range val {
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
		if len(parts) > 3 {
			parts = parts[:3]
			parts = append(parts, "...")
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (m model) View() string {
	if m.width == 0 {
		return "Connecting..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("⚡ Cypher Shell"))
	s.WriteString("\n")
	s.WriteString(uriStyle.Render(m.uri))
	s.WriteString("\n")

	s.WriteString(inputBoxStyle.Render(m.queryInput.View()))
	s.WriteString("\n")

	if m.message != "" {
		s.WriteString("\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
		s.WriteString("\n")
	}

	if m.hasResults {
		s.WriteString(resultStyle.Render(m.resultTable.View()))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML profile file")
		profile    = flag.String("profile", "", "profile name (default profile when empty)")
		uri        = flag.String("uri", "", "connect directly to this URI, bypassing profiles")
		ephemeral  = flag.Bool("ephemeral", false, "boot a throwaway embedded database")
	)
	flag.Parse()

	ctx := context.Background()
	quiet := logging.NewNopLogger()

	var conn *client.Connection
	switch {
	case *ephemeral:
		db, err := harness.Provision(client.WithLogger(quiet))
		if err != nil {
			log.Fatalf("Failed to provision ephemeral database: %v", err)
		}
		defer db.Destroy(ctx)
		conn = db.Conn

	case *uri != "":
		var err error
		conn, err = client.Connect(*uri, client.WithLogger(quiet))
		if err != nil {
			log.Fatalf("Failed to connect to %s: %v", *uri, err)
		}
		defer conn.Close(ctx)

	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		conn, err = cfg.Connect(*profile, client.WithLogger(quiet))
		if err != nil {
			log.Fatalf("Failed to connect: %v", err)
		}
		defer conn.Close(ctx)

	default:
		log.Fatal("One of -config, -uri, or -ephemeral is required")
	}

	sess, err := conn.Session(ctx)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	defer sess.Close(ctx)

	p := tea.NewProgram(initialModel(sess, conn.URI()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
