package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/memelib/internal/library"
	"github.com/roach88/memelib/internal/model"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Summary   string
	Desc      string
	Extra     string
	Thumbnail string
	Tags      []string
	Move      bool
	Fav       bool
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add a file to the library",
		Long: `Copy a file into the library and record it as a new meme.

The summary defaults to the file name without its extension. Tags are given
as namespace:value and may be repeated.

Example:
  memelib add grumpy.png --summary "grumpy cat" --tag artist:alice --tag mood:grumpy
  memelib add clip.gif --thumbnail clip.jpg --move`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("move") {
				opts.Move = opts.Config.Import.Move
			}
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Summary, "summary", "", "short summary (default: file name)")
	cmd.Flags().StringVar(&opts.Desc, "desc", "", "longer description")
	cmd.Flags().StringVar(&opts.Extra, "extra", "", "opaque extra data")
	cmd.Flags().StringVar(&opts.Thumbnail, "thumbnail", "", "thumbnail file")
	cmd.Flags().StringArrayVarP(&opts.Tags, "tag", "t", nil, "tag as namespace:value (repeatable)")
	cmd.Flags().BoolVar(&opts.Move, "move", false, "delete source files after copying them in")
	cmd.Flags().BoolVar(&opts.Fav, "fav", false, "mark as favorite")

	return cmd
}

func runAdd(opts *AddOptions, path string, cmd *cobra.Command) error {
	tags, err := parseTags(opts.Tags)
	if err != nil {
		return err
	}

	req := library.AddRequest{
		Path:      path,
		Thumbnail: opts.Thumbnail,
		Summary:   opts.Summary,
		Tags:      tags,
		Fav:       opts.Fav,
		Move:      opts.Move,
	}
	if req.Summary == "" {
		req.Summary = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if cmd.Flags().Changed("desc") {
		req.Description = &opts.Desc
	}
	if cmd.Flags().Changed("extra") {
		req.ExtraData = &opts.Extra
	}

	return opts.withLibrary(func(lib *library.Library) error {
		meme, err := lib.AddMeme(cmd.Context(), req)
		if err != nil {
			return err
		}
		return outputDetail(opts.RootOptions, cmd, lib, meme.ID)
	})
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a meme with its tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				return outputDetail(rootOpts, cmd, lib, id)
			})
		},
	}
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Summary   string
	Desc      string
	Extra     string
	Thumbnail string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a meme's fields",
		Long: `Overwrite the fields given as flags and leave the rest untouched.
The meme moves to the top of search results.

Example:
  memelib edit 12 --summary "grumpier cat"
  memelib edit 12 --desc "" --thumbnail new-thumb.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runEdit(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Summary, "summary", "", "new summary")
	cmd.Flags().StringVar(&opts.Desc, "desc", "", "new description")
	cmd.Flags().StringVar(&opts.Extra, "extra", "", "new extra data")
	cmd.Flags().StringVar(&opts.Thumbnail, "thumbnail", "", "new thumbnail file")

	return cmd
}

func runEdit(opts *EditOptions, id int64, cmd *cobra.Command) error {
	var update model.MemeUpdate
	if cmd.Flags().Changed("summary") {
		update.Summary = &opts.Summary
	}
	if cmd.Flags().Changed("desc") {
		update.Description = &opts.Desc
	}
	if cmd.Flags().Changed("extra") {
		update.ExtraData = &opts.Extra
	}
	if update.IsEmpty() && opts.Thumbnail == "" {
		return NewExitError(ExitCommandError, "nothing to edit: pass --summary, --desc, --extra or --thumbnail")
	}

	return opts.withLibrary(func(lib *library.Library) error {
		if _, err := lib.EditMeme(cmd.Context(), id, update, opts.Thumbnail); err != nil {
			return err
		}
		return outputDetail(opts.RootOptions, cmd, lib, id)
	})
}

// NewTouchCommand creates the touch command.
func NewTouchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <id>",
		Short: "Move a meme to the top of search results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				if err := lib.Store().TouchMeme(cmd.Context(), id); err != nil {
					return err
				}
				return outputMeme(rootOpts, cmd, lib, id)
			})
		},
	}
}

// NewFavCommand creates the fav command.
func NewFavCommand(rootOpts *RootOptions) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "fav <id>",
		Short: "Mark a meme as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				if err := lib.Store().SetFavorite(cmd.Context(), id, !off); err != nil {
					return err
				}
				return outputMeme(rootOpts, cmd, lib, id)
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "clear the favorite flag instead")
	return cmd
}

// NewTrashCommand creates the trash command.
func NewTrashCommand(rootOpts *RootOptions) *cobra.Command {
	var restore bool

	cmd := &cobra.Command{
		Use:   "trash <id>",
		Short: "Move a meme to the trash",
		Long: `Move a meme to the trash. Trashed memes only appear in OnlyTrash
searches; nothing is deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return rootOpts.withLibrary(func(lib *library.Library) error {
				if err := lib.Store().SetTrash(cmd.Context(), id, !restore); err != nil {
					return err
				}
				return outputMeme(rootOpts, cmd, lib, id)
			})
		},
	}
	cmd.Flags().BoolVar(&restore, "restore", false, "take the meme out of the trash instead")
	return cmd
}

func outputDetail(opts *RootOptions, cmd *cobra.Command, lib *library.Library, id int64) error {
	detail, err := lib.Describe(cmd.Context(), id)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(detail)
	}

	w := cmd.OutOrStdout()
	writeMemeLine(w, detail.Meme)
	if detail.Meme.Description != nil && *detail.Meme.Description != "" {
		fmt.Fprintf(w, "  desc:    %s\n", *detail.Meme.Description)
	}
	if len(detail.Tags) > 0 {
		fmt.Fprintf(w, "  tags:    %s\n", joinTags(detail.Tags))
	}
	fmt.Fprintf(w, "  file:    %s\n", detail.Path)
	if detail.Meme.Thumbnail != nil {
		fmt.Fprintf(w, "  thumb:   %s\n", lib.Content().Path(*detail.Meme.Thumbnail))
	}
	fmt.Fprintf(w, "  created: %s\n", detail.Meme.CreateTime.Format(timeFormat))
	fmt.Fprintf(w, "  updated: %s\n", detail.Meme.UpdateTime.Format(timeFormat))
	return nil
}

func outputMeme(opts *RootOptions, cmd *cobra.Command, lib *library.Library, id int64) error {
	meme, err := lib.Store().GetMeme(cmd.Context(), id)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(meme)
	}
	writeMemeLine(cmd.OutOrStdout(), meme)
	return nil
}

const timeFormat = "2006-01-02 15:04:05"

// writeMemeLine prints "<id> [flags] summary".
func writeMemeLine(w io.Writer, m model.Meme) {
	flags := ""
	if m.Fav {
		flags += "*"
	}
	if m.Trash {
		flags += "T"
	}
	if flags != "" {
		flags = " [" + flags + "]"
	}
	fmt.Fprintf(w, "%d%s %s\n", m.ID, flags, m.Summary)
}

func joinTags(tags []model.Tag) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = tag.String()
	}
	return strings.Join(parts, " ")
}

func parseTags(raw []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(raw))
	for _, r := range raw {
		tag, err := model.ParseTag(r)
		if err != nil {
			return nil, NewExitError(ExitCommandError, err.Error())
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
