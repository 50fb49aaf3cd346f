// Package cli implements linkdeckctl, a command-line editor for a linkdeck
// profile. Every command signs in, loads the profile into an editor and
// applies one change through it, so the CLI follows the same ordering
// and rollback rules as the web editor.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"linkdeck/internal/client"
	"linkdeck/internal/editor"
)

// App holds the global flags and how commands reach the server.
type App struct {
	URL      string
	Email    string
	Password string
	Timeout  time.Duration
	NoColor  bool

	// connect returns the remote the editor talks to. Tests replace it.
	connect func(ctx context.Context, app *App) (editor.Remote, error)
}

// NewRootCmd builds the linkdeckctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{connect: dial})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "linkdeckctl",
		Short:        "Edit a linkdeck profile from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Show the profile's content in page order
  linkdeckctl items

  # Drop link-3 where section-1 is
  linkdeckctl move link-3 section-1

  # Add a link inside a section
  linkdeckctl add link --title Shop --url https://shop.example --section section-1
`),
	}

	cmd.PersistentFlags().StringVar(&app.URL, "url", envOr("LINKDECK_URL", "http://localhost:8080"), "Server base URL")
	cmd.PersistentFlags().StringVar(&app.Email, "email", envOr("LINKDECK_EMAIL", ""), "Account email")
	cmd.PersistentFlags().StringVar(&app.Password, "password", envOr("LINKDECK_PASSWORD", ""), "Account password")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 10*time.Second, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored output")

	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newArchiveCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newUngroupCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newPreviewCmd(app))

	return cmd
}

// dial signs in to the server named by the flags.
func dial(ctx context.Context, app *App) (editor.Remote, error) {
	if app.Email == "" || app.Password == "" {
		return nil, errors.New("credentials required: set --email and --password (or LINKDECK_EMAIL, LINKDECK_PASSWORD)")
	}
	c, err := client.New(app.URL, &http.Client{Timeout: app.Timeout})
	if err != nil {
		return nil, err
	}
	if _, err := c.Login(ctx, app.Email, app.Password); err != nil {
		return nil, err
	}
	return c, nil
}

// openEditor connects and loads the profile into a fresh editor.
func openEditor(cmd *cobra.Command, app *App) (*editor.Editor, editor.Remote, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	remote, err := app.connect(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	ed := editor.New(remote, app.Timeout)
	if err := ed.Load(ctx); err != nil {
		return nil, nil, err
	}
	return ed, remote, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
