package core

import (
	"fmt"

	"github.com/cli/safeexec"
)

// Severity grades a single probe finding.
type Severity int

const (
	SeverityOk      Severity = iota // requirement satisfied
	SeverityWarning                 // usable, but degraded
	SeverityError                   // server cannot work
)

func (s Severity) String() string {
	switch s {
	case SeverityOk:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// CheckKind identifies what a probe finding examined.
type CheckKind string

const (
	CheckExecutable CheckKind = "executable"
	CheckEnvVar     CheckKind = "env"
	CheckPath       CheckKind = "path"
)

// ProbeResult is one finding about one requirement of a server.
type ProbeResult struct {
	Kind     CheckKind
	Subject  string // executable name, variable name, or path
	Severity Severity
	Detail   string // what was found
	Hint     string // how to fix it, when known
}

// Status is the overall readiness verdict for a server, derived from
// the worst finding in its report.
type Status int

const (
	StatusInstallable Status = iota
	StatusDegraded
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusInstallable:
		return "installable"
	case StatusDegraded:
		return "degraded"
	case StatusBlocked:
		return "blocked"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Report is the full probe outcome for one server definition.
type Report struct {
	Server  ServerDef
	Results []ProbeResult
}

// Status derives the verdict: any error blocks, any warning degrades,
// otherwise the server is installable.
func (r Report) Status() Status {
	status := StatusInstallable
	for _, res := range r.Results {
		switch res.Severity {
		case SeverityError:
			return StatusBlocked
		case SeverityWarning:
			status = StatusDegraded
		}
	}
	return status
}

// MissingRequiredEnv lists required variables the probe found unset,
// in definition order.
func (r Report) MissingRequiredEnv() []string {
	var out []string
	for _, res := range r.Results {
		if res.Kind == CheckEnvVar && res.Severity == SeverityError {
			out = append(out, res.Subject)
		}
	}
	return out
}

// System is the machine surface the probe consults. The host
// implementation looks at PATH and the filesystem; tests substitute
// fixed answers.
type System interface {
	// LookPath resolves an executable name the way the shell would.
	LookPath(name string) (string, error)
	// PathExists reports whether a file or directory exists.
	PathExists(path string) bool
}

type hostSystem struct{}

func (hostSystem) LookPath(name string) (string, error) { return safeexec.LookPath(name) }
func (hostSystem) PathExists(path string) bool          { return pathExists(path) }

// HostSystem returns the System backed by the real machine.
func HostSystem() System {
	return hostSystem{}
}

// ProbeServer checks one definition against the given environment
// snapshot and system. It is read-only and deterministic: findings are
// ordered executable first, then required variables, then optional
// variables, then paths, each in definition order.
func ProbeServer(def ServerDef, env map[string]string, sys System) Report {
	r := Report{Server: def}

	if def.Transport == TransportStdio {
		if path, err := sys.LookPath(def.Command); err == nil {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckExecutable,
				Subject:  def.Command,
				Severity: SeverityOk,
				Detail:   path,
			})
		} else {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckExecutable,
				Subject:  def.Command,
				Severity: SeverityError,
				Detail:   "not found on PATH",
				Hint:     installHint(def.Command),
			})
		}
	}

	for _, name := range def.RequiredEnv {
		if env[name] != "" {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckEnvVar,
				Subject:  name,
				Severity: SeverityOk,
				Detail:   "set",
			})
		} else {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckEnvVar,
				Subject:  name,
				Severity: SeverityError,
				Detail:   "required variable is not set",
				Hint:     fmt.Sprintf("export %s=... or add it to your env file (capstan env --help)", name),
			})
		}
	}

	for _, name := range def.OptionalEnv {
		if env[name] != "" {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckEnvVar,
				Subject:  name,
				Severity: SeverityOk,
				Detail:   "set",
			})
		} else {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckEnvVar,
				Subject:  name,
				Severity: SeverityWarning,
				Detail:   "optional variable is not set; some features will be unavailable",
			})
		}
	}

	for _, p := range def.RequiredPaths {
		expanded := expandPath(p)
		if sys.PathExists(expanded) {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckPath,
				Subject:  p,
				Severity: SeverityOk,
				Detail:   "exists",
			})
		} else {
			r.Results = append(r.Results, ProbeResult{
				Kind:     CheckPath,
				Subject:  p,
				Severity: SeverityError,
				Detail:   "does not exist",
				Hint:     pathHint(p),
			})
		}
	}

	return r
}

// installHint maps well-known launcher commands to setup pointers.
func installHint(command string) string {
	switch command {
	case "npx":
		return "install Node.js 18+ (https://nodejs.org)"
	case "uvx":
		return "install uv (https://docs.astral.sh/uv/getting-started/installation/)"
	case "docker":
		return "install Docker (https://docs.docker.com/get-docker/)"
	}
	return fmt.Sprintf("install %s and make sure it is on PATH", command)
}

func pathHint(path string) string {
	if path == "/var/run/docker.sock" {
		return "start the Docker daemon"
	}
	return ""
}
