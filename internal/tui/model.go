// Package tui is the terminal chat front end of the assistant.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dusk-indust/ensemble/internal/chat"
	"github.com/dusk-indust/ensemble/internal/orchestrator"
)

// Slash commands handled by the UI itself.
const (
	ClearCommand = "/clear"
	QuitCommand  = "/quit"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Submitter runs chat turns. *chat.Surface implements it.
type Submitter interface {
	SubmitWithProgress(ctx context.Context, id, message string, onProgress func(orchestrator.ProgressEvent)) chat.Exchange
	Clear(id string)
}

type progressMsg struct {
	event orchestrator.ProgressEvent
}

type replyMsg struct {
	exchange chat.Exchange
}

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx          context.Context
	submitter    Submitter
	conversation string
	style        string
	renderer     *glamour.TermRenderer
	events       chan tea.Msg

	exchanges []chat.Exchange
	rendered  []string
	progress  []string
	busy      bool
	status    string

	width  int
	height int

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	theme    theme
}

// Option configures a Model.
type Option func(*Model)

// WithConversation selects the conversation id. The default is
// chat.DefaultConversation.
func WithConversation(id string) Option {
	return func(m *Model) {
		if id != "" {
			m.conversation = id
		}
	}
}

// WithMarkdownStyle selects a glamour standard style such as "dark",
// "light" or "notty". The default picks one from the terminal.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) {
		m.style = style
	}
}

// New creates the chat screen. ctx bounds every turn started from it.
func New(ctx context.Context, submitter Submitter, opts ...Option) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Placeholder = "Ask a question, or type `show more`"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	vp := viewport.New(defaultWidth, defaultHeight)
	vp.MouseWheelEnabled = true

	m := Model{
		ctx:          ctx,
		submitter:    submitter,
		conversation: chat.DefaultConversation,
		events:       make(chan tea.Msg, 64),
		input:        input,
		viewport:     vp,
		spinner:      sp,
		theme:        newTheme(),
		width:        defaultWidth,
		height:       defaultHeight,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.renderer, _ = newRenderer(m.style, m.width-4)
	m.resize()
	m.refresh()
	return m
}

// Init starts the cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles input, window changes and turn results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer, _ = newRenderer(m.style, m.width-4)
		m.rerender()
		m.resize()
		m.refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case progressMsg:
		m.progress = append(m.progress, strings.TrimSpace(orchestrator.FormatProgress(msg.event)))
		cmds = append(cmds, m.listen())
	case replyMsg:
		m.busy = false
		m.progress = nil
		m.status = ""
		m.exchanges = append(m.exchanges, msg.exchange)
		m.rendered = append(m.rendered, renderMarkdown(m.renderer, msg.exchange.Reply))
		m.refresh()
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit handles the text in the input box.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.busy {
		m.status = "still working on the previous question"
		return m, nil
	}
	m.input.Reset()

	switch strings.ToLower(text) {
	case QuitCommand:
		return m, tea.Quit
	case ClearCommand:
		m.submitter.Clear(m.conversation)
		m.exchanges = nil
		m.rendered = nil
		m.status = "history cleared"
		m.refresh()
		return m, nil
	}

	m.busy = true
	m.progress = nil
	m.status = ""
	return m, tea.Batch(m.runTurn(text), m.listen(), m.spinner.Tick)
}

// runTurn submits text in the background. Progress and the final reply
// are delivered through m.events.
func (m Model) runTurn(text string) tea.Cmd {
	ctx, submitter, id, events := m.ctx, m.submitter, m.conversation, m.events
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}
	return func() tea.Msg {
		ex := submitter.SubmitWithProgress(ctx, id, text, func(ev orchestrator.ProgressEvent) {
			send(progressMsg{event: ev})
		})
		send(replyMsg{exchange: ex})
		return nil
	}
}

// listen waits for the next message of the running turn.
func (m Model) listen() tea.Cmd {
	ctx, events := m.ctx, m.events
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.theme.input.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.theme.help.Render("enter send · show more · /clear · esc quit"))
	return b.String()
}

func (m Model) headerView() string {
	return m.theme.header.Render(chat.Title) + "\n" +
		m.theme.blurb.Width(m.width).Render(chat.Description)
}

func (m Model) statusView() string {
	if m.busy {
		line := "working..."
		if n := len(m.progress); n > 0 {
			line = m.progress[n-1]
		}
		view := m.spinner.View() + " " + m.theme.progress.Render(line)
		if m.status != "" {
			view += "  " + m.theme.status.Render(m.status)
		}
		return view
	}
	return m.theme.status.Render(m.status)
}

// resize fits the viewport between the header and the input box.
func (m *Model) resize() {
	// status line, bordered input box and help line
	reserved := lipgloss.Height(m.headerView()) + 5
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-reserved, 3)
}

// rerender renders every reply again, after the wrap width changed.
func (m *Model) rerender() {
	m.rendered = make([]string, 0, len(m.exchanges))
	for _, ex := range m.exchanges {
		m.rendered = append(m.rendered, renderMarkdown(m.renderer, ex.Reply))
	}
}

// refresh rebuilds the transcript shown in the viewport.
func (m *Model) refresh() {
	var b strings.Builder
	for i, ex := range m.exchanges {
		b.WriteString(m.theme.user.Render("You: "))
		b.WriteString(ex.Message)
		b.WriteString("\n\n")
		b.WriteString(m.rendered[i])
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Exchanges returns the exchanges currently shown.
func (m Model) Exchanges() []chat.Exchange {
	return append([]chat.Exchange(nil), m.exchanges...)
}

// Busy reports whether a turn is running.
func (m Model) Busy() bool {
	return m.busy
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, submitter Submitter, opts ...Option) error {
	p := tea.NewProgram(New(ctx, submitter, opts...), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
