package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <server>",
	Short: "Show catalog details for one server",
	Long: `Show what a catalog server does, how it is launched, and which
environment variables and paths it expects, rendered as markdown.

Example:
  capstan info github`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		def, ok := d.catalog.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no server named %q in the catalog (try `capstan check` for the full list)", args[0])
		}

		fmt.Fprint(os.Stdout, renderServerInfo(def))
		return nil
	},
}

// renderServerInfo builds the markdown sheet for a definition and runs
// it through glamour. Falls back to the raw markdown when the terminal
// renderer cannot be set up.
func renderServerInfo(def core.ServerDef) string {
	md := serverMarkdown(def)

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

func serverMarkdown(def core.ServerDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", def.Description)
	}

	fmt.Fprintf(&b, "- **Category:** %s\n", def.Category.Title())
	fmt.Fprintf(&b, "- **Transport:** %s\n", def.Transport)
	if def.Transport == core.TransportStdio {
		launch := def.Command
		if len(def.Args) > 0 {
			launch += " " + strings.Join(def.Args, " ")
		}
		fmt.Fprintf(&b, "- **Launch:** `%s`\n", launch)
	} else {
		fmt.Fprintf(&b, "- **Endpoint:** %s\n", def.URL)
	}
	if len(def.RequiredEnv) > 0 {
		fmt.Fprintf(&b, "- **Required env:** %s\n", codeList(def.RequiredEnv))
	}
	if len(def.OptionalEnv) > 0 {
		fmt.Fprintf(&b, "- **Optional env:** %s\n", codeList(def.OptionalEnv))
	}
	if len(def.RequiredPaths) > 0 {
		fmt.Fprintf(&b, "- **Required paths:** %s\n", codeList(def.RequiredPaths))
	}
	if def.Starter {
		fmt.Fprintf(&b, "- **Starter:** included in `capstan init` by default\n")
	}

	if def.Docs != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(def.Docs))
	}
	return b.String()
}

func codeList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "`" + item + "`"
	}
	return strings.Join(quoted, ", ")
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
