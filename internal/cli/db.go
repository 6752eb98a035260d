package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/memelib/internal/library"
	"github.com/roach88/memelib/internal/store"
)

// NewDBCommand creates the db command group.
func NewDBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Create the database if it does not exist and apply pending schema
upgrades. Every command migrates on open; this command does only that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLibrary(func(lib *library.Library) error {
				version, err := lib.Store().SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return rootOpts.formatter(cmd).Success(map[string]any{
						"database":       rootOpts.Config.Database,
						"schema_version": version,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d.\n", rootOpts.Config.Database, version)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the stored and supported schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLibrary(func(lib *library.Library) error {
				version, err := lib.Store().SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return rootOpts.formatter(cmd).Success(map[string]int{
						"schema_version":  version,
						"current_version": store.CurrentSchemaVersion(),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (this build supports %d)\n",
					version, store.CurrentSchemaVersion())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check that every referenced file is present and intact",
		Long: `Rehash every file referenced by a meme and report missing or
corrupt files, plus files no meme references.

Exit codes:
  0 - All referenced files are intact
  1 - Missing or corrupt files were found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLibrary(func(lib *library.Library) error {
				report, err := lib.Verify(cmd.Context())
				if err != nil {
					return err
				}

				if rootOpts.Format == "json" {
					if err := rootOpts.formatter(cmd).Success(report); err != nil {
						return err
					}
				} else {
					w := cmd.OutOrStdout()
					for _, d := range report.Missing {
						fmt.Fprintf(w, "missing:      %s\n", d)
					}
					for _, d := range report.Corrupt {
						fmt.Fprintf(w, "corrupt:      %s\n", d)
					}
					for _, d := range report.Unreferenced {
						fmt.Fprintf(w, "unreferenced: %s\n", d)
					}
					fmt.Fprintf(w, "Checked %d file(s): %d missing, %d corrupt, %d unreferenced.\n",
						report.Checked, len(report.Missing), len(report.Corrupt), len(report.Unreferenced))
				}

				if !report.OK() {
					return NewReportedError(ExitFailure,
						fmt.Sprintf("verification failed: %d missing, %d corrupt", len(report.Missing), len(report.Corrupt)))
				}
				return nil
			})
		},
	})

	return cmd
}
