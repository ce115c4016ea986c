package cmd

import (
	"fmt"
	"os"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed MCP servers",
	Long: `List the MCP servers recorded in the registry.

By default the global registry (~/.claude.json) is read. With --project
the .mcp.json at the enclosing git root is read instead. --available
skips the registry entirely and prints the catalog grouped by category.

Example:
  capstan list
  capstan list --project
  capstan list --available`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if available, _ := cmd.Flags().GetBool("available"); available {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runListAvailable(d.catalog)
		}
		return runList(cmd)
	},
}

// runList prints the registry contents without modifying anything.
// Shared by `capstan list`, `capstan --list`, and the menu.
func runList(cmd *cobra.Command) error {
	d, err := newDeps()
	if err != nil {
		return err
	}

	reg := d.globalRegistry(cmd)
	if project, _ := cmd.Flags().GetBool("project"); project {
		root, err := core.FindProjectRoot(".")
		if err != nil {
			return err
		}
		reg = core.ProjectRegistry(root)
	}

	snap, err := reg.Snapshot()
	if err != nil {
		return fmt.Errorf("reading %s: %w", reg.Path, err)
	}
	if snap.Malformed {
		return fmt.Errorf("%s is not valid JSON; fix or remove it before listing", reg.Path)
	}

	names := snap.Names()
	if len(names) == 0 {
		fmt.Fprintf(os.Stdout, "No MCP servers installed in %s\n", reg.Path)
		return nil
	}

	fmt.Fprintf(os.Stdout, "MCP servers in %s:\n\n", reg.Path)
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "  %-24s %s\n", name, entryHint(d.catalog, name, snap.Entries[name]))
	}
	return nil
}

// runListAvailable prints the merged catalog grouped by category, the
// same set the install category flags select from. Starter servers are
// marked; they are what a bare `capstan init` installs.
func runListAvailable(catalog *core.Catalog) error {
	fmt.Fprintf(os.Stdout, "%d servers available\n", catalog.Len())
	printCategory := func(title string, defs []core.ServerDef) {
		if len(defs) == 0 {
			return
		}
		fmt.Fprintf(os.Stdout, "\n%s:\n", title)
		for _, def := range defs {
			name := def.Name
			if def.Starter {
				name += " *"
			}
			fmt.Fprintf(os.Stdout, "  %-24s %s\n", name, def.Description)
		}
	}
	for _, cat := range core.Categories() {
		printCategory(cat.Title(), catalog.ByCategory(cat))
	}
	// Overlay entries may leave the category out.
	printCategory("Other", catalog.ByCategory(""))
	fmt.Fprintf(os.Stdout, "\n* installed by a bare capstan init\n")
	return nil
}

// entryHint is the one-line annotation next to a listed server: the
// catalog description when the name is known, otherwise what the entry
// actually launches.
func entryHint(catalog *core.Catalog, name string, entry core.RegistryEntry) string {
	if def, ok := catalog.Lookup(name); ok {
		return def.Description
	}
	if entry.Remote() {
		return entry.URL
	}
	if len(entry.Args) > 0 {
		return entry.Command + " " + entry.Args[0]
	}
	return entry.Command
}

func init() {
	listCmd.Flags().Bool("project", false, "Read the project registry (.mcp.json) instead of the global one")
	listCmd.Flags().Bool("available", false, "List the catalog by category instead of the registry")

	rootCmd.AddCommand(listCmd)
}
