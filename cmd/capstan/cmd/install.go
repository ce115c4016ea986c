package cmd

import (
	"fmt"
	"os"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/capstanhq/capstan/internal/logging"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [server...]",
	Short: "Validate and install MCP servers into the global registry",
	Long: `Validate catalog servers against this machine and write the ones
that pass into ~/.claude.json.

Each target is probed first: launcher on PATH, required environment
variables set, required paths present. Blocked servers are skipped and
reported with the missing requirement; degraded servers (an optional
variable unset) install with a warning. All successful entries are
written in a single atomic batch.

Examples:
  capstan install filesystem git
  capstan install --dev
  capstan install --all --wrap`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		dev, _ := cmd.Flags().GetBool("dev")
		ai, _ := cmd.Flags().GetBool("ai")

		sel := selectionFromFlags(all, dev, ai, args)
		if sel.Empty() {
			return usageErrorf("nothing to install: name servers or pass --all, --dev, or --ai")
		}
		return runGlobalInstall(cmd, sel)
	},
}

// installOptions carries the per-invocation knobs shared by the global
// and project install paths.
type installOptions struct {
	registry *core.Registry
	env      map[string]string
	wrap     bool
}

// runGlobalInstall installs into the user-level registry. The probe
// environment is the process env plus ~/.capstan/.env.capstan; there is
// no project layer when installing globally.
func runGlobalInstall(cmd *cobra.Command, sel core.Selection) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	wrap, _ := cmd.Flags().GetBool("wrap")

	return runInstallInto(d, installOptions{
		registry: d.globalRegistry(cmd),
		env:      d.proberEnv(""),
		wrap:     wrap,
	}, sel)
}

// runInstallInto validates the selection, reports every verdict, and
// applies the installable remainder in one batch. Unknown names and
// blocked servers never abort the rest; a registry write failure does.
func runInstallInto(d *deps, opts installOptions, sel core.Selection) error {
	inst := &core.Installer{
		Catalog:  d.catalog,
		Registry: opts.registry,
		Env:      opts.env,
		System:   core.HostSystem(),
		WrapEnv:  opts.wrap,
	}

	plan := inst.Validate(sel)
	logging.Debug("validated selection",
		"targets", len(plan.Outcomes), "unknown", len(plan.Unknown))

	fmt.Fprintf(os.Stdout, "Validating %d server(s) against %s\n\n", len(plan.Outcomes), opts.registry.Path)
	printPlan(plan)

	if plan.Empty() {
		fmt.Fprintln(os.Stdout, "\nNothing to install.")
		return nil
	}

	printCounts(plan)

	if plan.AllBlocked() {
		printRemediation(plan)
		return exitWithCode(ExitFailure, fmt.Errorf("no server is ready to install"))
	}

	result, err := inst.Apply(plan)
	if err != nil {
		return fmt.Errorf("saving registry: %w", err)
	}

	apply := result.Apply
	if apply.Replaced {
		fmt.Fprintf(os.Stderr, "Warning: %s was not valid JSON; rebuilt with only the new entries\n", apply.Path)
	}
	if apply.Wrote {
		fmt.Fprintf(os.Stdout, "\nWrote %s\n", apply.Path)
		for _, name := range apply.Added {
			fmt.Fprintf(os.Stdout, "  + %-24s added\n", name)
		}
		for _, name := range apply.Updated {
			fmt.Fprintf(os.Stdout, "  + %-24s updated\n", name)
		}
		for _, name := range apply.Unchanged {
			fmt.Fprintf(os.Stdout, "  . %-24s unchanged\n", name)
		}
	} else {
		fmt.Fprintf(os.Stdout, "\n%s is already up to date (%d unchanged)\n", apply.Path, len(apply.Unchanged))
	}

	printRemediation(plan)
	return nil
}

func init() {
	installCmd.Flags().Bool("all", false, "Install every server in the catalog")
	installCmd.Flags().Bool("dev", false, "Install the development tools category")
	installCmd.Flags().Bool("ai", false, "Install the search & AI category")
	installCmd.Flags().Bool("wrap", false, "Write entries that launch through 'capstan env' instead of ${VAR} placeholders")

	rootCmd.AddCommand(installCmd)
}
