package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/nanocoder/nanocoder/internal/agent"
	"github.com/nanocoder/nanocoder/internal/edit"
)

// tuiDeltaMsg carries streamed text chunks into the TUI event loop.
type tuiDeltaMsg struct {
	// Text is the rendered delta text chunk.
	Text string
}

// tuiDoneMsg signals a completed streaming turn.
type tuiDoneMsg struct {
	// Raw is the finalized reply text.
	Raw string
	// Interrupted marks a turn cut short by the user.
	Interrupted bool
	// Report holds the edit batch outcomes, nil when nothing streamed.
	Report *edit.Report
	// Err is the transport error, if any.
	Err error
}

// tuiModel drives the full-screen UI. Shell tags are reported but not
// executed here; approval prompts belong to the plain REPL.
type tuiModel struct {
	// sess is the shared session state.
	sess *replSession
	// chatView renders the conversation.
	chatView viewport.Model
	// input collects user input for new turns.
	input textarea.Model
	// renderer formats finished assistant replies when available.
	renderer *glamour.TermRenderer
	// transcript holds completed display blocks.
	transcript []string
	// streamBuf accumulates the in-flight assistant reply.
	streamBuf strings.Builder
	// streamCh delivers stream messages into the update loop.
	streamCh chan tea.Msg
	// cancel interrupts the in-flight turn.
	cancel context.CancelFunc
	// streaming indicates an in-flight request.
	streaming bool
	// status is the bottom status line.
	status string
	// width and height track the terminal size.
	width  int
	height int
}

var (
	tuiUserStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	tuiStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// runTUI starts the bubbletea program for a session.
func runTUI(sess *replSession) error {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	input := textarea.New()
	input.Placeholder = "Ask for a change..."
	input.SetHeight(3)
	input.Focus()

	model := &tuiModel{
		sess:     sess,
		chatView: viewport.New(width, height-6),
		input:    input,
		status:   "model " + sess.turn.Model,
		width:    width,
		height:   height,
	}
	if renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	); err == nil {
		model.renderer = renderer
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *tuiModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatView.Width = msg.Width
		m.chatView.Height = msg.Height - m.input.Height() - 3
		m.input.SetWidth(msg.Width - 2)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.streaming && m.cancel != nil {
				m.cancel()
				m.status = "interrupting..."
				return m, nil
			}
			return m, tea.Quit
		case "ctrl+d":
			return m, tea.Quit
		case "enter":
			if m.streaming {
				return m, nil
			}
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.startTurn(prompt)
		}

	case tuiDeltaMsg:
		m.streamBuf.WriteString(msg.Text)
		m.refresh()
		return m, m.waitForStream()

	case tuiDoneMsg:
		m.finishTurn(msg)
		return m, nil
	}

	var inputCmd, viewCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.chatView, viewCmd = m.chatView.Update(msg)
	return m, tea.Batch(inputCmd, viewCmd)
}

func (m *tuiModel) View() string {
	status := tuiStatusStyle.Render(m.status)
	return m.chatView.View() + "\n" + m.input.View() + "\n" + status
}

// startTurn launches the streaming request off the UI goroutine.
func (m *tuiModel) startTurn(prompt string) tea.Cmd {
	m.transcript = append(m.transcript, tuiUserStyle.Render("> "+prompt))
	m.streamBuf.Reset()
	m.streaming = true
	m.status = "thinking..."
	m.refresh()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.streamCh = make(chan tea.Msg, 64)
	ch := m.streamCh

	sess := m.sess
	messages := agent.BuildMessages(sess.root, sess.contextSet, sess.history, prompt)
	go func() {
		turn := &agent.Turn{Client: sess.turn.Client, Model: sess.turn.Model, Out: chanWriter{ch: ch}}
		raw, interrupted, err := turn.Stream(ctx, messages)

		var report *edit.Report
		if raw != "" {
			sess.remember("user", prompt, false)
			sess.remember("assistant", raw, interrupted)
			report = edit.Apply(raw, sess.root)
			for _, path := range report.Requested {
				_ = sess.contextSet.Add(path)
			}
			for _, path := range report.Dropped {
				sess.contextSet.Drop(path)
			}
		}
		ch <- tuiDoneMsg{Raw: raw, Interrupted: interrupted, Report: report, Err: err}
	}()

	return m.waitForStream()
}

// waitForStream pulls the next stream message into the update loop.
func (m *tuiModel) waitForStream() tea.Cmd {
	ch := m.streamCh
	return func() tea.Msg {
		return <-ch
	}
}

// finishTurn reconciles the transcript once a turn completes.
func (m *tuiModel) finishTurn(msg tuiDoneMsg) {
	m.streaming = false
	m.cancel = nil
	m.status = "model " + m.sess.turn.Model

	display := m.streamBuf.String()
	if msg.Raw != "" && m.renderer != nil {
		if rendered, err := m.renderer.Render(msg.Raw); err == nil {
			display = strings.TrimRight(rendered, "\n")
		}
	}
	if display != "" {
		m.transcript = append(m.transcript, display)
	}
	m.streamBuf.Reset()

	switch {
	case msg.Err != nil && msg.Raw == "":
		m.status = "no content produced: " + msg.Err.Error()
	case msg.Interrupted:
		m.status = "interrupted"
	}

	if msg.Report != nil {
		for _, outcome := range msg.Report.Outcomes {
			line := fmt.Sprintf("%s %s: %s (%s)", outcome.Kind, outcome.Path, outcome.Status, outcome.Detail)
			m.transcript = append(m.transcript, tuiStatusStyle.Render(strings.TrimSpace(line)))
		}
		for _, command := range msg.Report.Commands {
			m.transcript = append(m.transcript, tuiStatusStyle.Render("proposed command (run it from the plain REPL): "+command))
		}
	}
	m.refresh()
}

// refresh rewrites the viewport content and pins it to the bottom.
func (m *tuiModel) refresh() {
	content := strings.Join(m.transcript, "\n")
	if m.streamBuf.Len() > 0 {
		if content != "" {
			content += "\n"
		}
		content += m.streamBuf.String()
	}
	m.chatView.SetContent(content)
	m.chatView.GotoBottom()
}

// chanWriter adapts the stream processor's writer to tea messages.
type chanWriter struct {
	// ch receives one delta message per write.
	ch chan tea.Msg
}

func (w chanWriter) Write(p []byte) (int, error) {
	text := string(p)
	w.ch <- tuiDeltaMsg{Text: text}
	return len(p), nil
}
