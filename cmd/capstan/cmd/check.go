package cmd

import (
	"fmt"
	"os"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [server...]",
	Short: "Probe servers without writing anything",
	Long: `Run the same validation as an install, but stop before touching any
registry file.

With no arguments every catalog server is checked. The exit code is
non-zero when at least one checked server is blocked, so check works as
a doctor step in scripts and CI.

Examples:
  capstan check
  capstan check github linear`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		sel := core.Selection{All: len(args) == 0, Names: args}
		inst := &core.Installer{
			Catalog: d.catalog,
			Env:     d.proberEnv(""),
			System:  core.HostSystem(),
		}

		plan := inst.Validate(sel)
		fmt.Fprintf(os.Stdout, "Checking %d server(s)\n\n", len(plan.Outcomes))
		printPlan(plan)

		if plan.Empty() {
			return nil
		}

		printCounts(plan)
		printRemediation(plan)

		if _, _, blocked := plan.Counts(); blocked > 0 {
			return exitWithCode(ExitFailure, fmt.Errorf("%d server(s) blocked", blocked))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
