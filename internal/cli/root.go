package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/memelib/internal/config"
	"github.com/roach88/memelib/internal/library"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	LibraryDir string
	Database   string

	// Set by the root command before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the memelib CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "memelib",
		Short: "memelib - a local meme library",
		Long: `A local meme and image library.

Files are stored by SHA-256 digest under the library's files directory and
described in a SQLite database with summaries, namespaced tags, favorites
and a trash bin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			cfg.ApplyOverrides(opts.LibraryDir, opts.Database)
			opts.Config = cfg

			level := cfg.LogLevel()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default $XDG_CONFIG_HOME/memelib/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LibraryDir, "library", "", "library directory")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default <library>/memes.db)")

	// Add subcommands
	cmd.AddCommand(NewDBCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewTouchCommand(opts))
	cmd.AddCommand(NewFavCommand(opts))
	cmd.AddCommand(NewTrashCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewUntagCommand(opts))
	cmd.AddCommand(NewTagsCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flag", err)
	})
	wrapArgs(cmd)

	return cmd, opts
}

// wrapArgs makes positional argument errors exit with ExitCommandError.
func wrapArgs(cmd *cobra.Command) {
	if validate := cmd.Args; validate != nil {
		cmd.Args = func(c *cobra.Command, args []string) error {
			if err := validate(c, args); err != nil {
				return WrapExitError(ExitCommandError, "invalid arguments", err)
			}
			return nil
		}
	}
	for _, sub := range cmd.Commands() {
		wrapArgs(sub)
	}
}

// Main runs the CLI with args and returns the process exit code. Errors
// are reported in the selected format: JSON envelopes on stdout, text on
// stderr.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format := opts.Format
	if !isValidFormat(format) {
		format = "text"
	}
	var exitErr *ExitError
	if format == "json" && errors.As(err, &exitErr) && exitErr.Reported {
		return exitErr.Code
	}

	w := stdout
	if format == "text" {
		w = stderr
	}
	formatter := &OutputFormatter{Format: format, Writer: w, ErrWriter: stderr, Verbose: opts.Verbose}
	_ = formatter.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openLibrary opens the configured library. The caller closes it.
func (o *RootOptions) openLibrary() (*library.Library, error) {
	lib, err := library.Open(o.Config, library.WithLogger(o.Logger))
	if err != nil {
		return nil, WrapExitError(GetExitCode(err), "failed to open library", err)
	}
	return lib, nil
}

// withLibrary opens the library, runs fn and closes the library.
func (o *RootOptions) withLibrary(fn func(lib *library.Library) error) error {
	lib, err := o.openLibrary()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := lib.Close(); closeErr != nil {
			o.Logger.Error("error closing library", slog.Any("error", closeErr))
		}
	}()
	return fn(lib)
}

// parseID parses a meme id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid meme id %q", arg))
	}
	return id, nil
}
