package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/keychord/internal/config"
	"github.com/roach88/keychord/internal/harness"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config returns the loaded settings, or the defaults when the command
// runs without the root command.
func (o *RootOptions) Config() *config.Config {
	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}
	return o.cfg
}

// Logger returns the command logger. Logs go to stderr so they never mix
// with JSON output.
func (o *RootOptions) Logger(cmd *cobra.Command) *slog.Logger {
	if o.logger == nil {
		o.logger = o.Config().Logger(cmd.ErrOrStderr(), o.Verbose)
	}
	return o.logger
}

// harnessOptions returns the harness options the settings describe.
func (o *RootOptions) harnessOptions(cmd *cobra.Command) []harness.Option {
	cfg := o.Config()
	return []harness.Option{
		harness.WithLogger(o.Logger(cmd)),
		harness.WithIgnoreWindow(cfg.IgnoreWindow),
		harness.WithLayer(cfg.Engine.DefaultLayer),
		harness.WithEngineOptions(cfg.EngineOptions()...),
	}
}

// NewRootCommand creates the root command for the keychord CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keychord",
		Short: "keychord - chord resolution for keyboard firmware",
		Long: `Tooling for the keychord chord engine.

Validates chord fixtures, runs scripted scenarios against the engine,
records their scan cycles to SQLite and replays recordings to check
that the engine still behaves the same.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if err := cfg.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid config", err)
			}
			opts.cfg = cfg
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.FileName+" if present)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// dbPath returns the flag value, falling back to the configured path.
func (o *RootOptions) dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	return o.Config().Paths.DB
}
