package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/memelib/internal/library"
)

// NewTagCommand creates the tag command.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <namespace:value>...",
		Short: "Attach tags to a meme",
		Long: `Attach tags to a meme, creating tags that do not exist yet.
Attaching a tag the meme already has is a no-op.

Example:
  memelib tag 12 artist:alice mood:grumpy`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tags, err := parseTags(args[1:])
			if err != nil {
				return err
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				if err := lib.TagMeme(cmd.Context(), id, tags); err != nil {
					return err
				}
				return outputDetail(rootOpts, cmd, lib, id)
			})
		},
	}
}

// NewUntagCommand creates the untag command.
func NewUntagCommand(rootOpts *RootOptions) *cobra.Command {
	var reclaim bool

	cmd := &cobra.Command{
		Use:   "untag <id> <namespace:value>...",
		Short: "Detach tags from a meme",
		Long: `Detach tags from a meme. Tags left without any meme are kept for
autocompletion unless --reclaim is given; "memelib tags sweep" removes
them later.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tags, err := parseTags(args[1:])
			if err != nil {
				return err
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				if err := lib.UntagMeme(cmd.Context(), id, tags, reclaim); err != nil {
					return err
				}
				return outputDetail(rootOpts, cmd, lib, id)
			})
		},
	}
	cmd.Flags().BoolVar(&reclaim, "reclaim", false, "delete tags that end up with no memes")
	return cmd
}

// NewTagsCommand creates the tags command group.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Look up and maintain tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "namespaces [prefix]",
		Short: "List tag namespaces starting with prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				names, err := lib.Store().NamespacesWithPrefix(cmd.Context(), prefix)
				if err != nil {
					return err
				}
				return outputStrings(rootOpts, cmd, names)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "values <namespace> [prefix]",
		Short: "List values in a namespace starting with prefix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				values, err := lib.Store().ValuesWithPrefix(cmd.Context(), args[0], prefix)
				if err != nil {
					return err
				}
				return outputStrings(rootOpts, cmd, values)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "fuzzy <keyword>",
		Short: "List tags in any namespace whose value starts with keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLibrary(func(lib *library.Library) error {
				tags, err := lib.Store().ValuesFuzzy(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return rootOpts.formatter(cmd).Success(tags)
				}
				for _, tag := range tags {
					fmt.Fprintln(cmd.OutOrStdout(), tag.String())
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete tags attached to no meme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withLibrary(func(lib *library.Library) error {
				n, err := lib.Store().SweepOrphanTags(cmd.Context())
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return rootOpts.formatter(cmd).Success(map[string]int64{"removed": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphan tag(s).\n", n)
				return nil
			})
		},
	})

	return cmd
}

func outputStrings(opts *RootOptions, cmd *cobra.Command, values []string) error {
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(values)
	}
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}
