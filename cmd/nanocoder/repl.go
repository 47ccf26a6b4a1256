package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/nanocoder/nanocoder/internal/agent"
	"github.com/nanocoder/nanocoder/internal/edit"
	"github.com/nanocoder/nanocoder/internal/llm/openai"
	"github.com/nanocoder/nanocoder/internal/session"
	"github.com/nanocoder/nanocoder/internal/workspace"
)

// maxFollowUps bounds automatic follow-up turns triggered by requested
// files or approved shell commands, so a confused model cannot loop.
const maxFollowUps = 3

var (
	styleBanner = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	styleInfo   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// replSession is the state of one interactive run.
type replSession struct {
	// turn executes assistant turns.
	turn *agent.Turn
	// store persists history; nil when persistence is disabled.
	store *session.Store
	// sessionID identifies the current session.
	sessionID string
	// root is the working tree all operations apply against.
	root string
	// contextSet tracks files sent with every prompt.
	contextSet *workspace.ContextSet
	// history is the in-memory conversation, oldest first.
	history []openai.Message
}

// restoreHistory reloads persisted turns into the in-memory history.
func (s *replSession) restoreHistory() {
	turns, err := s.store.LoadTurns(s.sessionID)
	if err != nil {
		fmt.Println(styleWarn.Render("could not restore session: " + err.Error()))
		return
	}
	for _, turn := range turns {
		s.history = append(s.history, openai.Message{Role: turn.Role, Content: turn.Content})
	}
}

// run drives the plain interactive loop.
func (s *replSession) run() error {
	output := termenv.NewOutput(os.Stdout)
	output.SetWindowTitle("nanocoder - " + filepath.Base(s.root))

	fmt.Println(styleBanner.Render("nanocoder "+version) + styleInfo.Render("  model "+s.turn.Model))
	fmt.Println(styleInfo.Render("/help for commands, !cmd runs a shell command, ctrl-d exits"))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				continue
			}
			// EOF: the explicit way out.
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch {
		case strings.HasPrefix(input, "/"):
			if quit := s.handleSlash(input); quit {
				return nil
			}
		case strings.HasPrefix(input, "!"):
			s.handleBang(line, strings.TrimSpace(input[1:]))
		default:
			s.runTurn(line, input, 0)
		}
	}
}

// runPrint executes a single prompt non-interactively. Shell tags are
// reported but never executed; there is nobody to approve them.
func (s *replSession) runPrint(prompt string) error {
	raw, err := s.streamOnce(context.Background(), prompt)
	if err != nil && raw == "" {
		return fmt.Errorf("no content produced: %w", err)
	}
	report := edit.Apply(raw, s.root)
	s.printReport(report)
	for _, command := range report.Commands {
		fmt.Println(styleWarn.Render("proposed command (not run): " + command))
	}
	return nil
}

// handleSlash dispatches a slash command; it reports whether to exit.
func (s *replSession) handleSlash(input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/exit", "/quit":
		return true
	case "/help":
		fmt.Println(styleInfo.Render(strings.TrimSpace(`
/add <path>...   add files to the context
/drop <path>...  remove files from the context
/context         list context files
/clear           forget the conversation
/undo            discard the last commit
/exit            leave`)))
	case "/clear":
		s.history = nil
		fmt.Println(styleInfo.Render("history cleared"))
	case "/undo":
		if err := edit.UndoLastCommit(s.root); err != nil {
			fmt.Println(styleError.Render(err.Error()))
		} else {
			fmt.Println(styleOK.Render("last commit discarded"))
		}
	case "/add":
		for _, path := range fields[1:] {
			if err := s.contextSet.Add(path); err != nil {
				fmt.Println(styleError.Render(err.Error()))
			} else {
				fmt.Println(styleOK.Render("added " + path))
			}
		}
	case "/drop":
		for _, path := range fields[1:] {
			s.contextSet.Drop(path)
			fmt.Println(styleInfo.Render("dropped " + path))
		}
	case "/context":
		paths := s.contextSet.Paths()
		if len(paths) == 0 {
			fmt.Println(styleInfo.Render("context is empty"))
		}
		for _, path := range paths {
			fmt.Println(styleInfo.Render("  " + path))
		}
	default:
		fmt.Println(styleWarn.Render("unknown command; /help lists commands"))
	}
	return false
}

// handleBang runs a user shell command and optionally records its output
// in the conversation.
func (s *replSession) handleBang(line *liner.State, command string) {
	if command == "" {
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	lines, exitCode := workspace.RunInteractive(ctx, command, os.Stdout)
	stop()
	fmt.Println(styleInfo.Render(fmt.Sprintf("exit %d", exitCode)))

	answer, err := line.Prompt("add output to context? [f]ull/[t]runcated/[n]o ")
	if err != nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "t":
		lines = workspace.TruncateLines(lines)
	case "f":
	default:
		return
	}
	note := fmt.Sprintf("Output of `%s` (exit %d):\n%s", command, exitCode, strings.Join(lines, "\n"))
	s.remember("user", note, false)
}

// runTurn runs one assistant turn plus any automatic follow-ups.
func (s *replSession) runTurn(line *liner.State, userText string, depth int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	raw, err := s.streamTurn(ctx, userText)
	stop()
	if err != nil {
		if raw == "" {
			fmt.Println(styleWarn.Render("no content produced: " + err.Error()))
			return
		}
		fmt.Println(styleWarn.Render("stream ended early: " + err.Error()))
	}
	if raw == "" {
		return
	}

	report := edit.Apply(raw, s.root)
	s.printReport(report)

	added := 0
	for _, path := range report.Requested {
		if err := s.contextSet.Add(path); err != nil {
			fmt.Println(styleError.Render(err.Error()))
			continue
		}
		fmt.Println(styleOK.Render("added to context: " + path))
		added++
	}
	for _, path := range report.Dropped {
		s.contextSet.Drop(path)
		fmt.Println(styleInfo.Render("dropped from context: " + path))
	}

	if depth >= maxFollowUps {
		return
	}

	if len(report.Commands) > 0 {
		var results []string
		for _, command := range report.Commands {
			results = append(results, s.runProposedCommand(line, command))
		}
		s.runTurn(line, strings.Join(results, "\n\n"), depth+1)
		return
	}
	if added > 0 {
		s.runTurn(line, "The requested files were added to the context.", depth+1)
	}
}

// streamTurn streams one turn and records it in history and the store.
func (s *replSession) streamTurn(ctx context.Context, userText string) (string, error) {
	raw, interrupted, err := s.streamOnceWithHistory(ctx, userText)
	if err != nil && raw == "" {
		return "", err
	}
	s.remember("user", userText, false)
	s.remember("assistant", raw, interrupted)
	if interrupted {
		fmt.Println(styleWarn.Render("[interrupted]"))
	}
	return raw, err
}

// streamOnceWithHistory runs the streaming request with full history.
func (s *replSession) streamOnceWithHistory(ctx context.Context, userText string) (string, bool, error) {
	messages := agent.BuildMessages(s.root, s.contextSet, s.history, userText)
	raw, interrupted, err := s.turn.Stream(ctx, messages)
	fmt.Println()
	return raw, interrupted, err
}

// streamOnce is the history-recording variant used by print mode.
func (s *replSession) streamOnce(ctx context.Context, userText string) (string, error) {
	raw, _, err := s.streamOnceWithHistory(ctx, userText)
	if err != nil && raw == "" {
		return "", err
	}
	s.remember("user", userText, false)
	s.remember("assistant", raw, false)
	return raw, err
}

// runProposedCommand asks for approval and executes one shell tag.
func (s *replSession) runProposedCommand(line *liner.State, command string) string {
	if line == nil || !s.approve(line, command) {
		fmt.Println(styleInfo.Render("not run"))
		return fmt.Sprintf("Command not approved: %s", command)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	lines, exitCode := workspace.RunInteractive(ctx, command, os.Stdout)
	stop()
	lines = workspace.TruncateLines(lines)
	return fmt.Sprintf("Output of `%s` (exit %d):\n%s", command, exitCode, strings.Join(lines, "\n"))
}

// approve prompts for a y/N decision on a proposed command.
func (s *replSession) approve(line *liner.State, command string) bool {
	fmt.Println(styleWarn.Render("assistant wants to run: ") + command)
	answer, err := line.Prompt("run it? [y/N] ")
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

// printReport prints per-operation outcomes.
func (s *replSession) printReport(report *edit.Report) {
	for _, outcome := range report.Outcomes {
		label := string(outcome.Kind)
		if outcome.Path != "" {
			label += " " + outcome.Path
		}
		text := fmt.Sprintf("%s: %s (%s)", label, outcome.Status, outcome.Detail)
		switch outcome.Status {
		case edit.StatusApplied:
			fmt.Println(styleOK.Render(text))
		case edit.StatusFailed:
			fmt.Println(styleError.Render(text))
		default:
			fmt.Println(styleWarn.Render(text))
		}
	}
}

// remember appends to in-memory history and, when enabled, the store.
func (s *replSession) remember(role string, content string, interrupted bool) {
	s.history = append(s.history, openai.Message{Role: role, Content: content})
	if s.store == nil {
		return
	}
	turn := session.Turn{Role: role, Content: content, Interrupted: interrupted, Time: time.Now()}
	if err := s.store.AppendTurn(s.sessionID, turn); err != nil {
		fmt.Println(styleWarn.Render("session not saved: " + err.Error()))
		return
	}
	if err := s.store.SaveLatest(session.ProjectHash(s.root), s.sessionID); err != nil {
		fmt.Println(styleWarn.Render("session pointer not saved: " + err.Error()))
	}
}
