package cli

import (
	"fmt"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/roach88/memelib/internal/library"
	"github.com/roach88/memelib/internal/store"
)

var version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count memes, tags and stored files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLibrary(func(lib *library.Library) error {
				stats, err := lib.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return rootOpts.formatter(cmd).Success(stats)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "memes:          %d\n", stats.Memes)
				fmt.Fprintf(w, "tags:           %d\n", stats.Tags)
				fmt.Fprintf(w, "files:          %d\n", stats.Blobs)
				fmt.Fprintf(w, "schema version: %d\n", stats.SchemaVersion)
				return nil
			})
		},
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the memelib version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Format == "json" {
				return rootOpts.formatter(cmd).Success(map[string]any{
					"version":        version.String(),
					"schema_version": store.CurrentSchemaVersion(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "memelib %s (schema %d)\n", version.String(), store.CurrentSchemaVersion())
			return nil
		},
	}
}
