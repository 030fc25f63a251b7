package cli

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/autotile/internal/config"
	"github.com/roach88/autotile/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are filled in before any subcommand runs. Commands
	// built directly (as in tests) fall back to defaults.
	Config *config.Config
	Logger zerolog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the autotile CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "autotile",
		Short: "autotile - auto-layer rule solver",
		Long: `Solve auto-layer rules over integer grids.

Rules are written in CUE and matched against an IntGrid level; every
matching rule stamps tiles into the auto-layer. Edits are re-solved
incrementally and can be recorded to SQLite for replay.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./autotile.toml if present)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSolveCommand(opts))
	cmd.AddCommand(NewPaintCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads configuration and logging. Flags given on the command line
// win over configured values.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg

	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Output.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	lvl := cfg.Log.Level
	if o.Verbose {
		lvl = "debug"
	}
	logger, err := logging.Setup(lvl, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	o.Logger = logger
	return nil
}

func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		o.Config = config.Default()
	}
	return o.Config
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
