package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nanocoder/nanocoder/internal/agent"
	"github.com/nanocoder/nanocoder/internal/config"
	"github.com/nanocoder/nanocoder/internal/llm/openai"
	"github.com/nanocoder/nanocoder/internal/session"
	"github.com/nanocoder/nanocoder/internal/workspace"
)

// version is the CLI build version.
const version = "0.1.0"

// options holds all CLI flags.
type options struct {
	// Config is an explicit config file path.
	Config string
	// Model overrides the configured default model.
	Model string
	// Print runs a single prompt non-interactively and exits.
	Print bool
	// TUI selects the full-screen terminal UI instead of the plain REPL.
	TUI bool
	// Continue resumes the most recent session for this project.
	Continue bool
	// NoSessionPersistence disables saving history to disk.
	NoSessionPersistence bool
	// Version prints the CLI version.
	Version bool
}

// main wires Cobra and executes the CLI.
func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "nanocoder [prompt]",
		Short: "nanocoder - terminal AI pair programmer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Version {
				fmt.Println(version)
				return nil
			}
			return runRoot(opts, args)
		},
	}
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.SilenceUsage = true
	applyFlags(rootCmd.Flags(), opts)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlags defines all CLI flags.
func applyFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.Config, "config", "", "Config file path")
	flags.StringVar(&opts.Model, "model", "", "Model for the current session")
	flags.BoolVarP(&opts.Print, "print", "p", false, "Run one prompt, print the reply, and exit")
	flags.BoolVar(&opts.TUI, "tui", false, "Use the full-screen terminal UI")
	flags.BoolVarP(&opts.Continue, "continue", "c", false, "Continue the most recent conversation")
	flags.BoolVar(&opts.NoSessionPersistence, "no-session-persistence", false, "Disable session persistence")
	flags.BoolVarP(&opts.Version, "version", "v", false, "Output the version number")
}

// runRoot resolves configuration and dispatches to the selected mode.
func runRoot(opts *options, args []string) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	model := cfg.DefaultModel
	if opts.Model != "" {
		model = opts.Model
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working dir: %w", err)
	}

	client := openai.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.Timeout())
	turn := &agent.Turn{Client: client, Model: model, Out: os.Stdout}

	var store *session.Store
	sessionID := uuid.NewString()
	if !opts.NoSessionPersistence {
		store, err = session.NewStore()
		if err != nil {
			return err
		}
		if opts.Continue {
			if latest := store.Latest(session.ProjectHash(root)); latest != "" {
				sessionID = latest
			}
		}
	}

	sess := &replSession{
		turn:       turn,
		store:      store,
		sessionID:  sessionID,
		root:       root,
		contextSet: workspace.NewContextSet(root),
	}
	if store != nil {
		sess.restoreHistory()
	}

	if opts.Print {
		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" {
			return fmt.Errorf("print mode needs a prompt argument")
		}
		return sess.runPrint(prompt)
	}
	if opts.TUI {
		return runTUI(sess)
	}
	return sess.run()
}
