package core

import "sort"

// Actions recorded per server after an apply.
const (
	ActionAdded     = "added"
	ActionUpdated   = "updated"
	ActionUnchanged = "unchanged"
	ActionSkipped   = "skipped" // blocked, not written
)

// Installer coordinates target selection, probing, and the registry
// write for one run. Every input is injected, so the flow has no
// hidden dependencies on the process environment.
type Installer struct {
	Catalog  *Catalog
	Registry *Registry
	Env      map[string]string // environment snapshot the probe sees
	System   System            // nil means the real machine

	// WrapEnv rewrites stdio entries to launch through
	// `capstan env --server <name>`, so variables from env files reach
	// the server at start time.
	WrapEnv bool
}

// ServerOutcome pairs one target's probe report with what the run
// decided to do about it.
type ServerOutcome struct {
	Report Report
	Status Status
	Action string // set by Apply
}

// Plan is the probed outcome for a resolved target set. Building a
// plan is read-only; nothing is written until Apply.
type Plan struct {
	Outcomes []ServerOutcome // target order
	Unknown  []string        // selection names the catalog does not know
}

// Empty reports whether the plan has no targets at all.
func (p *Plan) Empty() bool {
	return len(p.Outcomes) == 0
}

// Counts tallies the plan by verdict.
func (p *Plan) Counts() (installable, degraded, blocked int) {
	for _, oc := range p.Outcomes {
		switch oc.Status {
		case StatusInstallable:
			installable++
		case StatusDegraded:
			degraded++
		case StatusBlocked:
			blocked++
		}
	}
	return installable, degraded, blocked
}

// AllBlocked reports whether every target is blocked.
func (p *Plan) AllBlocked() bool {
	if p.Empty() {
		return false
	}
	_, _, blocked := p.Counts()
	return blocked == len(p.Outcomes)
}

// MissingRequiredEnv lists the required variables that blocked
// targets, sorted and de-duplicated across servers.
func (p *Plan) MissingRequiredEnv() []string {
	seen := make(map[string]bool)
	var out []string
	for _, oc := range p.Outcomes {
		for _, name := range oc.Report.MissingRequiredEnv() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// InstallRunResult is the outcome of one Apply.
type InstallRunResult struct {
	Plan  *Plan
	Apply *ApplyResult // nil when no server was eligible
}

// Installed counts servers whose entries are present after the run,
// whether newly written or already up to date.
func (r *InstallRunResult) Installed() int {
	n := 0
	for _, oc := range r.Plan.Outcomes {
		switch oc.Action {
		case ActionAdded, ActionUpdated, ActionUnchanged:
			n++
		}
	}
	return n
}

func (ins *Installer) sys() System {
	if ins.System != nil {
		return ins.System
	}
	return HostSystem()
}

// Validate resolves the selection and probes every target. It touches
// nothing on disk.
func (ins *Installer) Validate(sel Selection) *Plan {
	targets, unknown := ins.Catalog.Resolve(sel)
	plan := &Plan{Unknown: unknown}
	for _, def := range targets {
		report := ProbeServer(def, ins.Env, ins.sys())
		plan.Outcomes = append(plan.Outcomes, ServerOutcome{
			Report: report,
			Status: report.Status(),
		})
	}
	return plan
}

// Apply writes entries for every non-blocked target as one registry
// batch. Blocked targets are skipped and never touch the file; a
// blocked neighbor does not keep an installable server from landing.
func (ins *Installer) Apply(plan *Plan) (*InstallRunResult, error) {
	run := &InstallRunResult{Plan: plan}

	entries := make(map[string]RegistryEntry)
	for i := range plan.Outcomes {
		oc := &plan.Outcomes[i]
		if oc.Status == StatusBlocked {
			oc.Action = ActionSkipped
			continue
		}
		entries[oc.Report.Server.Name] = ins.BuildEntry(oc.Report.Server)
	}
	if len(entries) == 0 {
		return run, nil
	}

	res, err := ins.Registry.Apply(entries)
	if err != nil {
		return nil, err
	}
	run.Apply = res

	actions := make(map[string]string, len(entries))
	for _, name := range res.Added {
		actions[name] = ActionAdded
	}
	for _, name := range res.Updated {
		actions[name] = ActionUpdated
	}
	for _, name := range res.Unchanged {
		actions[name] = ActionUnchanged
	}
	for i := range plan.Outcomes {
		oc := &plan.Outcomes[i]
		if action, ok := actions[oc.Report.Server.Name]; ok {
			oc.Action = action
		}
	}
	return run, nil
}

// Run validates and applies in one step, for non-interactive use.
func (ins *Installer) Run(sel Selection) (*InstallRunResult, error) {
	return ins.Apply(ins.Validate(sel))
}

// BuildEntry renders the registry entry for one definition. Entries
// for servers with an environment contract carry ${VAR} placeholders,
// which hosts expand at launch; with WrapEnv the entry instead runs
// through the env wrapper, which resolves variables from env files.
func (ins *Installer) BuildEntry(def ServerDef) RegistryEntry {
	if def.Transport != TransportStdio {
		return RegistryEntry{Type: string(def.Transport), URL: def.URL}
	}

	if ins.WrapEnv {
		args := []string{"env", "--server", def.Name, "--", def.Command}
		args = append(args, def.Args...)
		return RegistryEntry{Command: "capstan", Args: args}
	}

	entry := RegistryEntry{
		Command: def.Command,
		Args:    append([]string(nil), def.Args...),
	}
	if n := len(def.RequiredEnv) + len(def.OptionalEnv); n > 0 {
		entry.Env = make(map[string]string, n)
		for _, name := range def.RequiredEnv {
			entry.Env[name] = "${" + name + "}"
		}
		for _, name := range def.OptionalEnv {
			entry.Env[name] = "${" + name + "}"
		}
	}
	return entry
}
