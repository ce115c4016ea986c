package cmd

import (
	"fmt"
	"os"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/capstanhq/capstan/internal/logging"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [server...]",
	Short: "Set up MCP servers for the current project",
	Long: `Write a project-level .mcp.json at the root of the enclosing git
repository, so the whole team gets the same MCP servers.

With no arguments the catalog's starter set is installed. Name servers
or pass a category flag to choose differently. Required variables can
live in a project .env.capstan, which is added to .gitignore so secrets
stay out of the repository.

Examples:
  capstan init
  capstan init filesystem git
  capstan init --dev --wrap`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveTargetDir(cmd)
		if err != nil {
			return err
		}
		root, err := core.FindProjectRoot(dir)
		if err != nil {
			return err
		}
		logging.Debug("project root resolved", "root", root)

		d, err := newDeps()
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		dev, _ := cmd.Flags().GetBool("dev")
		ai, _ := cmd.Flags().GetBool("ai")
		wrap, _ := cmd.Flags().GetBool("wrap")

		sel := selectionFromFlags(all, dev, ai, args)
		if sel.Empty() {
			starter := d.catalog.Starter()
			if len(starter) == 0 {
				return fmt.Errorf("the catalog has no starter servers; name servers to install")
			}
			for _, def := range starter {
				sel.Names = append(sel.Names, def.Name)
			}
		}

		reg := core.ProjectRegistry(root)
		if err := runInstallInto(d, installOptions{
			registry: reg,
			env:      d.proberEnv(root),
			wrap:     wrap,
		}, sel); err != nil {
			return err
		}

		// Keep project env files out of version control once the
		// registry exists.
		if err := core.EnsureGitignore(root); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: updating .gitignore: %v\n", err)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringP("dir", "d", "", "Project directory (default: current directory)")
	initCmd.Flags().Bool("all", false, "Install every server in the catalog")
	initCmd.Flags().Bool("dev", false, "Install the development tools category")
	initCmd.Flags().Bool("ai", false, "Install the search & AI category")
	initCmd.Flags().Bool("wrap", false, "Write entries that launch through 'capstan env' instead of ${VAR} placeholders")

	rootCmd.AddCommand(initCmd)
}
