package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tagproxy/internal/config"
	"github.com/roach88/tagproxy/internal/proxy"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "cbor"
	Config  string
	DB      string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "cbor"}

// NewRootCommand creates the root command for the tagproxy CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tagproxy",
		Short: "tagproxy - property views over package headers",
		Long: `Inspect package headers through property proxies.

Headers come from YAML fixtures, binary header images or the header
database (db:<id>). Tags read as properties, dependency sets walk as
cursors and query formats render tags as text.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|cbor)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (.cue or .toml)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "header database path (overrides config)")

	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewDepsCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// prepare validates the global flags, loads the configuration and builds
// the logger. It runs once; later calls are no-ops.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if o.cfg != nil {
		return nil
	}
	if o.Format == "" {
		o.Format = "text"
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DB == "" {
		o.DB = cfg.Database
	}

	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	o.cfg = cfg
	return nil
}

// registry builds a proxy registry from the configuration.
func (o *RootOptions) registry() *proxy.Registry {
	return proxy.NewRegistry(
		proxy.WithLogger(o.logger),
		proxy.WithHeaderDebug(o.cfg.Debug.Header),
		proxy.WithDepsDebug(o.cfg.Debug.Deps),
		proxy.WithLocales(o.cfg.LanguageTags()...),
	)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
