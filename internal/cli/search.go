package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/memelib/internal/library"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/queryir"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Mode model.SearchMode
	Page int
}

// SearchResult is the JSON payload of the search command.
type SearchResult struct {
	Query string           `json:"query"`
	Mode  model.SearchMode `json:"mode"`
	Page  int              `json:"page"`
	Total int64            `json:"total"`
	Memes []model.Meme     `json:"memes"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Search memes",
		Long: `Search memes, most recently updated first, 30 per page.

Terms are combined with AND:
  namespace:value   the meme has this tag
  namespace:        the meme has any tag in this namespace
  word              the summary or description contains word
  -term             negates any of the above

Put negated terms after "--" so they are not read as flags.

Modes: Normal (everything not trashed), OnlyFav, OnlyTrash.

Example:
  memelib search artist:alice cat
  memelib search --mode OnlyFav --page 1 -- cat -mood:sad`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mode") {
				opts.Mode = opts.Config.SearchMode()
			}
			return runSearch(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().Var(&opts.Mode, "mode", "search mode (Normal|OnlyFav|OnlyTrash)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "zero-based page number")

	return cmd
}

func runSearch(opts *SearchOptions, expr string, cmd *cobra.Command) error {
	if opts.Page < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid page %d: must be >= 0", opts.Page))
	}

	return opts.withLibrary(func(lib *library.Library) error {
		ctx := cmd.Context()

		memes, err := lib.Store().Search(ctx, expr, opts.Mode, opts.Page)
		if err != nil {
			return err
		}
		total, err := lib.Store().CountMatches(ctx, expr, opts.Mode)
		if err != nil {
			return err
		}

		if opts.Format == "json" {
			return opts.formatter(cmd).Success(SearchResult{
				Query: expr,
				Mode:  opts.Mode,
				Page:  opts.Page,
				Total: total,
				Memes: memes,
			})
		}

		w := cmd.OutOrStdout()
		for _, m := range memes {
			writeMemeLine(w, m)
		}
		pages := (total + queryir.PageSize - 1) / queryir.PageSize
		fmt.Fprintf(w, "-- page %d of %d, %d match(es)\n", opts.Page+1, max(pages, 1), total)
		return nil
	})
}
