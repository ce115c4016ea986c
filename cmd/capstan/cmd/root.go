package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/capstanhq/capstan/internal/logging"
	"github.com/capstanhq/capstan/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "capstan [flags] [server...]",
	Short: "Set up MCP servers for AI coding assistants",
	Long: `Capstan validates and installs Model Context Protocol server
configurations.

Servers come from a built-in catalog, optionally extended by
~/.capstan/catalog.yaml. Every target is probed before anything is
written: the launcher must be on PATH, required environment variables
must be set, required paths must exist. Servers that pass are written to
the registry in one atomic batch; blocked servers are skipped with the
missing requirement named.

Run with no arguments on a terminal to get the interactive menu.

Examples:
  capstan                  interactive menu
  capstan filesystem git   install two servers into ~/.claude.json
  capstan --dev            install the development category
  capstan --list           show what is installed`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logging.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		dev, _ := cmd.Flags().GetBool("dev")
		ai, _ := cmd.Flags().GetBool("ai")
		list, _ := cmd.Flags().GetBool("list")

		if list {
			if all || dev || ai || len(args) > 0 {
				return usageErrorf("--list does not combine with install targets")
			}
			return runList(cmd)
		}

		sel := selectionFromFlags(all, dev, ai, args)
		if !sel.Empty() {
			return runGlobalInstall(cmd, sel)
		}

		// Bare invocation: menu on a terminal, help text otherwise.
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return cmd.Help()
		}
		return runMenu(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("capstan %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

// selectionFromFlags reduces the install flag surface to a Selection.
// Duplicate names are dropped during resolution, so args pass through
// as given.
func selectionFromFlags(all, dev, ai bool, names []string) core.Selection {
	sel := core.Selection{All: all, Names: names}
	if dev {
		sel.Categories = append(sel.Categories, core.CategoryDevelopment)
	}
	if ai {
		sel.Categories = append(sel.Categories, core.CategorySearch)
	}
	return sel
}

// runMenu shows the interactive menu and executes the chosen action.
// Each action runs the same code path as the matching flag or
// subcommand, then the process ends.
func runMenu(cmd *cobra.Command) error {
	action, err := tui.RunMenu(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	logging.Debug("menu selection", "action", action.String())

	switch action {
	case tui.ActionInstallRecommended:
		return runGlobalInstall(cmd, core.Selection{Categories: []core.Category{core.CategoryCore}})
	case tui.ActionInstallDevelopment:
		return runGlobalInstall(cmd, core.Selection{Categories: []core.Category{core.CategoryDevelopment}})
	case tui.ActionInstallSearch:
		return runGlobalInstall(cmd, core.Selection{Categories: []core.Category{core.CategorySearch}})
	case tui.ActionListInstalled:
		return runList(cmd)
	case tui.ActionRemoveServer:
		return runRemovePicker(cmd)
	}
	return nil
}

func init() {
	rootCmd.Flags().Bool("all", false, "Install every server in the catalog")
	rootCmd.Flags().Bool("dev", false, "Install the development tools category")
	rootCmd.Flags().Bool("ai", false, "Install the search & AI category")
	rootCmd.Flags().Bool("list", false, "List installed servers instead of installing")
	rootCmd.Flags().Bool("wrap", false, "Write entries that launch through 'capstan env' instead of ${VAR} placeholders")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("registry", "", "Global registry file to edit (default ~/.claude.json; also CAPSTAN_REGISTRY)")

	// Malformed flags are usage errors, not runtime failures.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return exitWithCode(ExitUsage, err)
	})

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and reports the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
		var coded interface{ ExitCode() int }
		if errors.As(err, &coded) {
			return coded.ExitCode()
		}
		return ExitFailure
	}
	return ExitSuccess
}
