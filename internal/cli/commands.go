package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"linkdeck/internal/client"
	"linkdeck/internal/content"
	"linkdeck/internal/models"
)

func newItemsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "items",
		Short: "Print the profile's content in page order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, _, err := openEditor(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTree(ed.Tree(), app.NoColor))
			return nil
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <key> <over-key>",
		Short: "Move an item to where another item is, as a drag and drop would",
		Long: strings.TrimSpace(`
Moves <key> to the position of <over-key>. Dropping content on a section
puts it inside that section; dropping it on an item inside a section moves
it there. Sections only move among top-level entries.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, _, err := openEditor(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ed.Move(cmd.Context(), args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTree(ed.Tree(), app.NoColor))
			return nil
		},
	}
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <key>",
		Short: "Show or hide an item on the public page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, _, err := openEditor(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ed.Toggle(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			it, _ := ed.Tree().Find(args[0])
			state := "hidden"
			if it != nil && it.Active() {
				state = "visible"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], state)
			return nil
		},
	}
}

func newArchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <key>",
		Short: "Archive an item; it leaves the page but is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, _, err := openEditor(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ed.Archive(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived %s\n", args[0])
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete an item; deleting a section deletes its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, _, err := openEditor(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ed.Delete(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newUngroupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ungroup <section-key>",
		Short: "Remove a section and keep its content where the section was",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, _, err := openEditor(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ed.Ungroup(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTree(ed.Tree(), app.NoColor))
			return nil
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add content to the end of the page or of a section",
	}
	cmd.AddCommand(newAddLinkCmd(app))
	cmd.AddCommand(newAddTextCmd(app))
	cmd.AddCommand(newAddSectionCmd(app))
	return cmd
}

func newAddLinkCmd(app *App) *cobra.Command {
	var title, url, section, badge string
	var sensitive bool
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Add a link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := &models.Link{Block: models.Block{Active: true}, Title: title, URL: url, Sensitive: sensitive}
			if badge != "" {
				l.Badge = &badge
			}
			return addRecord(cmd, app, l, section)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Link title")
	cmd.Flags().StringVar(&url, "url", "", "Target URL")
	cmd.Flags().StringVar(&section, "section", "", "Key of the section to add it to")
	cmd.Flags().StringVar(&badge, "badge", "", "Optional badge text")
	cmd.Flags().BoolVar(&sensitive, "sensitive", false, "Mark as sensitive content")
	return cmd
}

func newAddTextCmd(app *App) *cobra.Command {
	var title, description, section, position string
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Add a text block (description is Markdown)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := &models.Text{
				Block:       models.Block{Active: true},
				Title:       title,
				Description: description,
				Position:    models.TextPosition(position),
			}
			return addRecord(cmd, app, t, section)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Block title")
	cmd.Flags().StringVar(&description, "description", "", "Markdown body")
	cmd.Flags().StringVar(&section, "section", "", "Key of the section to add it to")
	cmd.Flags().StringVar(&position, "position", string(models.TextCenter), "Alignment: left, center or right")
	return cmd
}

func newAddSectionCmd(app *App) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Add a section at the end of the page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, _, err := openEditor(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			key, err := ed.CreateSection(cmd.Context(), title)
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Section title")
	return cmd
}

// addRecord creates rec, inside the section named by sectionKey if set.
func addRecord(cmd *cobra.Command, app *App, rec models.Record, sectionKey string) error {
	if sectionKey != "" {
		kind, id, err := content.ParseKey(sectionKey)
		if err != nil || kind != content.KindSection {
			return writeErr(cmd, fmt.Errorf("--section: %q is not a saved section key", sectionKey))
		}
		rec.Placement().SectionID = &id
	}
	ed, _, err := openEditor(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	out, err := ed.Create(cmd.Context(), rec)
	if err != nil {
		return writeErr(cmd, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", content.RecordKey(out.Kind(), out.Placement().ID))
	return nil
}

func newPreviewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Print a signed link to the live preview of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := app.connect(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, ok := remote.(*client.Client)
			if !ok {
				return writeErr(cmd, fmt.Errorf("preview needs a server connection"))
			}
			url, err := c.PreviewURL(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}
