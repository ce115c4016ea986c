package cmd

import (
	"fmt"
	"os"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/capstanhq/capstan/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var removeCmd = &cobra.Command{
	Use:   "remove [server]",
	Short: "Remove an installed MCP server",
	Long: `Remove one server entry from the registry. Other entries and any
unrelated settings in the file are left untouched.

With no argument on a terminal, an interactive picker lists what is
installed.

Examples:
  capstan remove github
  capstan remove --project github
  capstan remove`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if len(args) == 1 {
			return removeNamed(reg, args[0])
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return usageErrorf("server name required when not running on a terminal")
		}
		return pickAndRemove(cmd, d, reg)
	},
}

// runRemovePicker is the menu entry point: always the global registry.
func runRemovePicker(cmd *cobra.Command) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	return pickAndRemove(cmd, d, d.globalRegistry(cmd))
}

func pickAndRemove(cmd *cobra.Command, d *deps, reg *core.Registry) error {
	snap, err := reg.Snapshot()
	if err != nil {
		return fmt.Errorf("reading %s: %w", reg.Path, err)
	}
	if snap.Malformed {
		return fmt.Errorf("%s is not valid JSON; fix or remove it by hand", reg.Path)
	}

	names := snap.Names()
	if len(names) == 0 {
		fmt.Fprintf(os.Stdout, "No MCP servers installed in %s\n", reg.Path)
		return nil
	}

	items := make([]tui.PickItem, 0, len(names))
	for _, name := range names {
		items = append(items, tui.PickItem{
			Name: name,
			Hint: entryHint(d.catalog, name, snap.Entries[name]),
		})
	}

	name, err := tui.RunRemovePicker(cmd.OutOrStdout(), "Remove a server from "+reg.Path, items)
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Fprintln(os.Stdout, "Nothing removed.")
		return nil
	}
	return removeNamed(reg, name)
}

// removeNamed deletes one entry and reports the result. A missing name
// is an error so scripts notice typos.
func removeNamed(reg *core.Registry, name string) error {
	res, err := reg.Remove(name)
	if err != nil {
		return fmt.Errorf("updating %s: %w", reg.Path, err)
	}
	if res.Malformed {
		return fmt.Errorf("%s is not valid JSON; fix or remove it by hand", res.Path)
	}
	if !res.Found {
		return fmt.Errorf("no server named %q in %s", name, res.Path)
	}
	fmt.Fprintf(os.Stdout, "Removed %q from %s\n", name, res.Path)
	return nil
}

func init() {
	removeCmd.Flags().Bool("project", false, "Remove from the project registry (.mcp.json) instead of the global one")

	rootCmd.AddCommand(removeCmd)
}
