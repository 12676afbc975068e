package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"tasklist/internal/api"
	"tasklist/internal/config"
	"tasklist/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Opener builds the API for a loaded configuration
type Opener func(ctx context.Context, cfg *config.Config, opts api.Options) (api.API, error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd    *cobra.Command
	opener Opener
	config *config.Config
	app    *App

	in  io.Reader
	out io.Writer
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(opener Opener) *RootCommand {
	root := &RootCommand{
		opener: opener,
		in:     os.Stdin,
		out:    os.Stdout,
	}

	root.cmd = &cobra.Command{
		Use:   "tl",
		Short: "A local task list with live search",
		Long: `Task List (tl) keeps a local list of tasks with a title and an optional
description, and searches them by title.

EXAMPLES:
  tl add "Buy milk" -d "2 litres"          # Add a task
  tl list                                  # List every task, newest first
  tl list buy                              # Tasks whose title contains "buy"
  tl edit 3 --title "Buy oat milk"         # Change a task
  tl rm 3                                  # Delete a task (asks first)
  tl clear --yes                           # Delete every task
  tl watch                                 # Interactive list that filters as you type

CONFIGURATION:
  Configuration follows this priority order: command-line flags > environment variables > defaults

  TL_DB_DIR                                Database directory (default: ~/.tasklist)
  TL_DB_FILENAME                           Database filename (default: tasks.db)
  TL_DB_DIR_PERMISSIONS                    Directory permissions, octal (default: 0755)
  TL_DB_BUSY_TIMEOUT                       SQLite busy timeout (default: 5s)
  TL_QUEUE_CAPACITY                        Pending changes before writers block (default: 64)
  TL_VALIDATION_TITLE_MAX                  Max title length (default: 255)
  TL_VALIDATION_DESCRIPTION_MAX            Max description length (default: 4096)
  TL_LOG_LEVEL                             Log level (default: info)
  TL_LOG_FORMAT                            Log format, text or json (default: text)
  TL_ENV                                   production, development or testing (in-memory)
  TL_APP_TIMEOUT                           Command timeout (default: 30s)
  TL_APP_VERBOSE                           Log failed changes as well (default: false)
  TL_DEBUG                                 Enable debug logging`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsStore(cmd) {
				return nil
			}
			return root.setup(cmd)
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// SetIO replaces the streams used by commands
func (r *RootCommand) SetIO(in io.Reader, out io.Writer) {
	r.in = in
	r.out = out
	r.cmd.SetOut(out)
	r.cmd.SetErr(out)
}

// Execute runs the command line args and closes the store afterwards
func (r *RootCommand) Execute(ctx context.Context, args []string) error {
	r.cmd.SetArgs(args)
	defer r.close()
	return r.cmd.ExecuteContext(ctx)
}

// Command exposes the cobra command
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	// Database configuration
	flags.String("db-dir", "", "Database directory (overrides TL_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides TL_DB_FILENAME)")
	flags.Duration("db-busy-timeout", 0, "SQLite busy timeout (overrides TL_DB_BUSY_TIMEOUT)")

	// Queue configuration
	flags.Int("queue-capacity", 0, "Pending changes before writers block (overrides TL_QUEUE_CAPACITY)")

	// Validation configuration
	flags.Int("title-max-length", 0, "Maximum title length (overrides TL_VALIDATION_TITLE_MAX)")
	flags.Int("description-max-length", 0, "Maximum description length (overrides TL_VALIDATION_DESCRIPTION_MAX)")

	// Logging configuration
	flags.String("log-level", "", "Log level (overrides TL_LOG_LEVEL)")
	flags.String("log-format", "", "Log format, text or json (overrides TL_LOG_FORMAT)")

	// Application configuration
	flags.String("env", "", "Environment: production, development or testing (overrides TL_ENV)")
	flags.Duration("app-timeout", 0, "Command timeout (overrides TL_APP_TIMEOUT)")
	flags.Bool("verbose", false, "Log failed changes (overrides TL_APP_VERBOSE)")
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	// Add command
	var description string
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()
			return NewAddCommand(r.app, description).Execute(ctx, args)
		},
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Task description")

	// Edit command
	var editTitle, editDescription string
	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or description of a task",
		Long: `Change the title or description of a task. Fields without a flag keep
their current value.

Examples:
  tl edit 2 --title "Call dad"
  tl edit 2 --description ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()

			var title, desc *string
			if cmd.Flags().Changed("title") {
				title = &editTitle
			}
			if cmd.Flags().Changed("description") {
				desc = &editDescription
			}
			return NewEditCommand(r.app, title, desc).Execute(ctx, args)
		},
	}
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")

	// Remove command
	var removeYes bool
	removeCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Long:    "Delete a task. This cannot be undone; you are asked to confirm unless --yes is given.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()
			return NewRemoveCommand(r.app, removeYes).Execute(ctx, args)
		},
	}
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")

	// Clear command
	var clearYes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()
			return NewClearCommand(r.app, clearYes).Execute(ctx, args)
		},
	}
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")

	// List command
	var listFormat string
	listCmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List tasks, newest first",
		Long: `List tasks, newest first. A query keeps only tasks whose title contains
it, ignoring case and surrounding spaces.

Examples:
  tl list
  tl list buy
  tl list --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()
			return NewListCommand(r.app, listFormat).Execute(ctx, args)
		},
	}
	listCmd.Flags().StringVarP(&listFormat, "format", "f", formatTable, "Output format: table, json or csv")

	// Watch command
	var metricsAddr string
	watchCmd := &cobra.Command{
		Use:   "watch [query]",
		Short: "Interactive list that filters as you type",
		Long: `Show the task list and re-render it whenever it changes. Every input
line becomes the new title filter; lines starting with / are commands.

` + watchHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			// interactive, so no command timeout
			return NewWatchCommand(r.app, metricsAddr).Execute(cmd.Context(), args)
		},
	}
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	r.cmd.AddCommand(
		addCmd,
		editCmd,
		removeCmd,
		clearCmd,
		listCmd,
		watchCmd,
	)
}

// setup loads the configuration, initializes logging and opens the store
func (r *RootCommand) setup(cmd *cobra.Command) error {
	overrides := overridesFromFlags(cmd.Flags())

	cfg, err := config.NewLoader().LoadWithOverrides(overrides)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	r.config = cfg

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	failures := logging.NewCollectingSink()
	var sink logging.ErrorSink = failures
	if cfg.Application.Verbose {
		sink = logging.MultiSink{logging.NewLogSink(logging.Base()), failures}
	}

	registry := prometheus.NewRegistry()
	apiInstance, err := r.opener(cmd.Context(), cfg, api.Options{
		Sink:       sink,
		Registerer: registry,
		Logger:     logging.Base(),
	})
	if err != nil {
		return NewErrorHandler().Handle("open task store", err)
	}

	r.app = NewApp(apiInstance, failures)
	r.app.SetIO(r.in, r.out)
	r.app.SetMetrics(registry)
	return nil
}

func (r *RootCommand) close() {
	if r.app == nil {
		return
	}
	if err := r.app.api.Close(); err != nil {
		logging.Base().WithError(err).Error("failed to close task store")
	}
	r.app = nil
}

// commandContext bounds a command by the configured application timeout
func (r *RootCommand) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), r.getAppTimeout())
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.config != nil {
		return r.config.Application.Timeout
	}
	return 30 * time.Second
}

// needsStore reports whether cmd works on tasks, as opposed to help and
// shell completion
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return cmd.Runnable() && cmd.HasParent()
}

// overridesFromFlags collects the global flags the user actually set
func overridesFromFlags(flags *pflag.FlagSet) *config.ConfigOverrides {
	overrides := &config.ConfigOverrides{}

	if flags.Changed("db-dir") {
		v, _ := flags.GetString("db-dir")
		overrides.DBDir = &v
	}
	if flags.Changed("db-filename") {
		v, _ := flags.GetString("db-filename")
		overrides.DBFilename = &v
	}
	if flags.Changed("db-busy-timeout") {
		v, _ := flags.GetDuration("db-busy-timeout")
		overrides.DBBusyTimeout = &v
	}
	if flags.Changed("queue-capacity") {
		v, _ := flags.GetInt("queue-capacity")
		overrides.QueueCapacity = &v
	}
	if flags.Changed("title-max-length") {
		v, _ := flags.GetInt("title-max-length")
		overrides.TitleMaxLength = &v
	}
	if flags.Changed("description-max-length") {
		v, _ := flags.GetInt("description-max-length")
		overrides.DescriptionMaxLength = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		overrides.LogLevel = &v
	}
	if flags.Changed("log-format") {
		v, _ := flags.GetString("log-format")
		overrides.LogFormat = &v
	}
	if flags.Changed("env") {
		v, _ := flags.GetString("env")
		env := config.ParseEnvironment(v)
		overrides.Environment = &env
	}
	if flags.Changed("app-timeout") {
		v, _ := flags.GetDuration("app-timeout")
		overrides.Timeout = &v
	}
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		overrides.Verbose = &v
	}

	return overrides
}
