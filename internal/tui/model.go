// Package tui provides the Bubble Tea chat interface.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	thinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
)

const (
	headerHeight = 2
	statusHeight = 1
	inputHeight  = 5
)

// entry is one message on screen.
type entry struct {
	id   string
	user bool
	text string
}

// Messages delivered to the model by the platform.
type (
	sendMsg struct {
		id   string
		text string
	}
	editMsg struct {
		id   string
		text string
	}
	// readyMsg means the platform is waiting for the next line.
	readyMsg struct{}
)

// Model is the chat screen: a transcript viewport above a prompt.
type Model struct {
	title    string
	entries  []entry
	index    map[string]int
	busy     bool
	ready    bool
	quitting bool
	width    int
	height   int

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// submit hands a prompt to the platform; it must not block.
	submit func(string) bool
}

// NewModel creates the chat screen. submit receives each entered line.
func NewModel(title string, submit func(string) bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textarea.New()
	ti.Placeholder = "Message or /command... (Enter to send)"
	ti.ShowLineNumbers = false
	ti.CharLimit = 8000
	ti.SetWidth(80)
	ti.SetHeight(3)
	ti.Focus()

	return Model{
		title:   title,
		index:   make(map[string]int),
		busy:    true,
		input:   ti,
		spinner: s,
		submit:  submit,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := m.handleKeyMsg(msg); handled {
			return model, cmd
		}

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case sendMsg:
		m.index[msg.id] = len(m.entries)
		m.entries = append(m.entries, entry{id: msg.id, text: msg.text})
		m.refresh()
		return m, nil

	case editMsg:
		if i, ok := m.index[msg.id]; ok {
			m.entries[i].text = msg.text
			m.refresh()
		}
		return m, nil

	case readyMsg:
		m.busy = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.busy {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit, true

	case "enter":
		return m.handleEnterKey()

	case "alt+enter", "ctrl+j":
		if !m.busy {
			m.input.InsertString("\n")
		}
		return m, nil, true

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true

	case "up", "down":
		if m.busy {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd, true
		}
	}
	return m, nil, false
}

func (m Model) handleEnterKey() (Model, tea.Cmd, bool) {
	text := strings.TrimSpace(m.input.Value())
	if m.busy || text == "" {
		return m, nil, true
	}
	if m.submit != nil && !m.submit(text) {
		return m, nil, true
	}
	m.input.Reset()
	m.busy = true
	m.entries = append(m.entries, entry{user: true, text: text})
	m.refresh()
	return m, m.spinner.Tick, true
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - headerHeight - statusHeight - inputHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 4)
	m.refresh()
	return m
}

// refresh re-renders the transcript and follows the newest message.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
