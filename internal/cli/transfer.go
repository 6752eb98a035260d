package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/memelib/internal/library"
	"github.com/roach88/memelib/internal/manifest"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var move bool

	cmd := &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Add every file listed in a manifest",
		Long: `Add the files listed in a YAML manifest with their summaries, tags
and flags. The whole manifest is validated before anything is added; entries
that then fail to import are reported and skipped.

Manifest format:
  files:
    - path: cats/grumpy.png
      summary: grumpy cat
      desc: not amused
      thumbnail: cats/grumpy.thumb.jpg
      tags: [artist:alice, mood:grumpy]
      fav: true

Exit codes:
  0 - Every entry was imported
  1 - One or more entries failed
  2 - The manifest is invalid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("move") {
				move = rootOpts.Config.Import.Move
			}

			m, err := manifest.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid manifest", err)
			}
			rootOpts.formatter(cmd).VerboseLog("importing %d file(s) from %s", len(m.Files), args[0])

			return rootOpts.withLibrary(func(lib *library.Library) error {
				report, err := lib.Import(cmd.Context(), m, move)
				if err != nil {
					return err
				}

				if rootOpts.Format == "json" {
					if err := rootOpts.formatter(cmd).Success(report); err != nil {
						return err
					}
				} else {
					w := cmd.OutOrStdout()
					for _, f := range report.Failed {
						fmt.Fprintf(w, "✗ %s: %s\n", f.Path, f.Error)
					}
					fmt.Fprintf(w, "Imported %d of %d file(s).\n", len(report.Added), len(m.Files))
				}

				if len(report.Failed) > 0 {
					return NewReportedError(ExitFailure, fmt.Sprintf("%d file(s) failed to import", len(report.Failed)))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&move, "move", false, "delete source files after copying them in")
	return cmd
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a manifest of the whole library",
		Long: `Write a YAML manifest listing every meme, trashed ones included,
with paths pointing into the library's files directory. The output can be
fed back to "memelib import".

Example:
  memelib export -o backup.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLibrary(func(lib *library.Library) error {
				m, err := lib.Export(cmd.Context())
				if err != nil {
					return err
				}

				if output == "" {
					if rootOpts.Format == "json" {
						return rootOpts.formatter(cmd).Success(m)
					}
					return manifest.Write(cmd.OutOrStdout(), m)
				}

				f, err := os.Create(output)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to create output file", err)
				}
				if err := manifest.Write(f, m); err != nil {
					f.Close()
					return WrapExitError(ExitFailure, "failed to write manifest", err)
				}
				if err := f.Close(); err != nil {
					return WrapExitError(ExitFailure, "failed to write manifest", err)
				}

				if rootOpts.Format == "json" {
					return rootOpts.formatter(cmd).Success(map[string]any{"path": output, "files": len(m.Files)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d file(s) to %s\n", len(m.Files), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
