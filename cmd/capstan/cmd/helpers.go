package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/capstanhq/capstan/internal/tui"
	"github.com/spf13/cobra"
)

// resolveTargetDir resolves the --dir flag or falls back to cwd.
func resolveTargetDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// formatOutcome renders one server's validation verdict, e.g.
//
//	alpha: Installable
//	gamma: Blocked (missing executable "gamma-cli")
//	delta: Degraded (warning: DELTA_TOKEN not set)
func formatOutcome(oc core.ServerOutcome) string {
	name := oc.Report.Server.Name
	switch oc.Status {
	case core.StatusInstallable:
		return fmt.Sprintf("%s: Installable", name)
	case core.StatusDegraded:
		return fmt.Sprintf("%s: Degraded (%s)", name, probeReasons(oc.Report, core.SeverityWarning))
	default:
		return fmt.Sprintf("%s: Blocked (%s)", name, probeReasons(oc.Report, core.SeverityError))
	}
}

// probeReasons names every finding of the given severity, the most
// specific requirement first as probes run in declaration order.
func probeReasons(r core.Report, sev core.Severity) string {
	var parts []string
	for _, res := range r.Results {
		if res.Severity != sev {
			continue
		}
		switch res.Kind {
		case core.CheckExecutable:
			parts = append(parts, fmt.Sprintf("missing executable %q", res.Subject))
		case core.CheckEnvVar:
			if sev == core.SeverityWarning {
				parts = append(parts, fmt.Sprintf("warning: %s not set", res.Subject))
			} else {
				parts = append(parts, fmt.Sprintf("required %s not set", res.Subject))
			}
		case core.CheckPath:
			parts = append(parts, fmt.Sprintf("missing path %q", res.Subject))
		}
	}
	return strings.Join(parts, "; ")
}

// printPlan writes the per-server verdict lines. Unknown names are part
// of the report, not fatal, so they show up alongside real outcomes.
// Marks carry the severity color; the styles fall back to plain text on
// pipes.
func printPlan(plan *core.Plan) {
	for _, oc := range plan.Outcomes {
		switch oc.Status {
		case core.StatusInstallable:
			fmt.Fprintf(os.Stdout, "  %s %s\n", tui.Success.Render("+"), formatOutcome(oc))
		case core.StatusDegraded:
			fmt.Fprintf(os.Stdout, "  %s %s\n", tui.Warning.Render("!"), formatOutcome(oc))
		default:
			fmt.Fprintf(os.Stdout, "  %s %s\n", tui.Danger.Render("x"), formatOutcome(oc))
		}
	}
	for _, name := range plan.Unknown {
		fmt.Fprintf(os.Stdout, "  %s %s: Warning (unknown server)\n", tui.Warning.Render("!"), name)
	}
}

// printCounts writes the one-line category summary for a plan.
func printCounts(plan *core.Plan) {
	installable, degraded, blocked := plan.Counts()
	fmt.Fprintf(os.Stdout, "\n%d installable, %d degraded, %d blocked\n", installable, degraded, blocked)
}

// printRemediation tells the user how to unblock what the probes
// rejected: env vars to set, executables to install.
func printRemediation(plan *core.Plan) {
	envMap := make(map[string][]string)
	for _, oc := range plan.Outcomes {
		for _, v := range oc.Report.MissingRequiredEnv() {
			envMap[v] = append(envMap[v], oc.Report.Server.Name)
		}
	}
	printRequiredEnvSummary(envMap)

	var hints []string
	for _, oc := range plan.Outcomes {
		for _, res := range oc.Report.Results {
			if res.Severity != core.SeverityError || res.Kind == core.CheckEnvVar || res.Hint == "" {
				continue
			}
			hints = append(hints, fmt.Sprintf("  %s: %s", oc.Report.Server.Name, res.Hint))
		}
	}
	if len(hints) > 0 {
		fmt.Fprintf(os.Stdout, "\n%s To unblock:\n", tui.Warning.Render("!"))
		for _, h := range hints {
			fmt.Fprintln(os.Stdout, h)
		}
	}
}

// printRequiredEnvSummary prints a warning about required environment
// variables that blocked installation. envMap maps env var name ->
// []server names that need it.
func printRequiredEnvSummary(envMap map[string][]string) {
	if len(envMap) == 0 {
		return
	}

	// Collect and sort env var names for deterministic output.
	var vars []string
	for v := range envMap {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	fmt.Fprintf(os.Stdout, "\n%s The following environment variables are required:\n", tui.Warning.Render("!"))
	for _, v := range vars {
		servers := envMap[v]
		fmt.Fprintf(os.Stdout, "  %s  (used by %s)\n", v, strings.Join(servers, ", "))
	}
	fmt.Fprintf(os.Stdout, "\n  Add values to %s or ~/.capstan/%s\n", core.EnvFileName(), core.EnvFileName())
}
