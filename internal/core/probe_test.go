package core

import (
	"reflect"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// ProbeServer
// ---------------------------------------------------------------------------

func TestProbeServer_AllRequirementsSatisfied(t *testing.T) {
	def := ServerDef{
		Name:          "full",
		Transport:     TransportStdio,
		Command:       "full-srv",
		RequiredEnv:   []string{"FULL_KEY"},
		OptionalEnv:   []string{"FULL_EXTRA"},
		RequiredPaths: []string{"/var/run/full.sock"},
	}
	sys := fakeSystem{
		bins:  map[string]string{"full-srv": "/usr/bin/full-srv"},
		paths: map[string]bool{"/var/run/full.sock": true},
	}
	env := map[string]string{"FULL_KEY": "k", "FULL_EXTRA": "e"}

	report := ProbeServer(def, env, sys)

	if got := report.Status(); got != StatusInstallable {
		t.Fatalf("status = %v, want installable", got)
	}
	if len(report.Results) != 4 {
		t.Fatalf("got %d findings, want 4", len(report.Results))
	}
	for _, res := range report.Results {
		if res.Severity != SeverityOk {
			t.Errorf("%s %q: severity = %v, want ok", res.Kind, res.Subject, res.Severity)
		}
	}
	if report.Results[0].Detail != "/usr/bin/full-srv" {
		t.Errorf("executable detail = %q, want resolved path", report.Results[0].Detail)
	}
}

func TestProbeServer_MissingExecutable(t *testing.T) {
	def := ServerDef{Name: "gamma", Transport: TransportStdio, Command: "gamma-cli"}

	report := ProbeServer(def, nil, fakeSystem{})

	if got := report.Status(); got != StatusBlocked {
		t.Fatalf("status = %v, want blocked", got)
	}
	res := report.Results[0]
	if res.Kind != CheckExecutable || res.Severity != SeverityError {
		t.Errorf("finding = %s/%v, want executable error", res.Kind, res.Severity)
	}
	if res.Detail != "not found on PATH" {
		t.Errorf("detail = %q", res.Detail)
	}
	if res.Hint != "install gamma-cli and make sure it is on PATH" {
		t.Errorf("hint = %q", res.Hint)
	}
}

func TestProbeServer_MissingRequiredEnv(t *testing.T) {
	def := ServerDef{Name: "alpha", Transport: TransportStdio, Command: "alpha-srv", RequiredEnv: []string{"ALPHA_KEY"}}
	sys := fakeSystem{bins: map[string]string{"alpha-srv": "/usr/bin/alpha-srv"}}

	report := ProbeServer(def, nil, sys)

	if got := report.Status(); got != StatusBlocked {
		t.Fatalf("status = %v, want blocked", got)
	}
	res := report.Results[1]
	if res.Kind != CheckEnvVar || res.Subject != "ALPHA_KEY" {
		t.Fatalf("finding = %s %q, want env ALPHA_KEY", res.Kind, res.Subject)
	}
	if res.Detail != "required variable is not set" {
		t.Errorf("detail = %q", res.Detail)
	}
	if !strings.Contains(res.Hint, "export ALPHA_KEY=") {
		t.Errorf("hint = %q, want export pointer", res.Hint)
	}
	if got := report.MissingRequiredEnv(); !reflect.DeepEqual(got, []string{"ALPHA_KEY"}) {
		t.Errorf("missing required = %v", got)
	}
}

func TestProbeServer_EmptyValueCountsAsUnset(t *testing.T) {
	def := ServerDef{Name: "alpha", Transport: TransportStdio, Command: "alpha-srv", RequiredEnv: []string{"ALPHA_KEY"}}
	sys := fakeSystem{bins: map[string]string{"alpha-srv": "/usr/bin/alpha-srv"}}

	report := ProbeServer(def, map[string]string{"ALPHA_KEY": ""}, sys)

	if got := report.Status(); got != StatusBlocked {
		t.Errorf("status = %v, want blocked for empty required var", got)
	}
}

func TestProbeServer_MissingOptionalEnvDegrades(t *testing.T) {
	def := ServerDef{Name: "delta", Transport: TransportStdio, Command: "delta-srv", OptionalEnv: []string{"DELTA_TOKEN"}}
	sys := fakeSystem{bins: map[string]string{"delta-srv": "/usr/bin/delta-srv"}}

	report := ProbeServer(def, nil, sys)

	if got := report.Status(); got != StatusDegraded {
		t.Fatalf("status = %v, want degraded", got)
	}
	res := report.Results[1]
	if res.Severity != SeverityWarning {
		t.Errorf("severity = %v, want warning", res.Severity)
	}
	if res.Detail != "optional variable is not set; some features will be unavailable" {
		t.Errorf("detail = %q", res.Detail)
	}
}

func TestProbeServer_MissingPath(t *testing.T) {
	def := ServerDef{
		Name:          "github",
		Transport:     TransportStdio,
		Command:       "docker",
		RequiredPaths: []string{"/var/run/docker.sock"},
	}
	sys := fakeSystem{bins: map[string]string{"docker": "/usr/bin/docker"}}

	report := ProbeServer(def, nil, sys)

	if got := report.Status(); got != StatusBlocked {
		t.Fatalf("status = %v, want blocked", got)
	}
	res := report.Results[1]
	if res.Kind != CheckPath || res.Subject != "/var/run/docker.sock" {
		t.Fatalf("finding = %s %q, want path /var/run/docker.sock", res.Kind, res.Subject)
	}
	if res.Detail != "does not exist" {
		t.Errorf("detail = %q", res.Detail)
	}
	if res.Hint != "start the Docker daemon" {
		t.Errorf("hint = %q", res.Hint)
	}
}

func TestProbeServer_RemoteSkipsExecutable(t *testing.T) {
	def := ServerDef{Name: "hub", Transport: TransportHTTP, URL: "https://hub.example/mcp"}

	report := ProbeServer(def, nil, fakeSystem{})

	if got := report.Status(); got != StatusInstallable {
		t.Errorf("status = %v, want installable", got)
	}
	for _, res := range report.Results {
		if res.Kind == CheckExecutable {
			t.Errorf("unexpected executable finding for remote server: %+v", res)
		}
	}
}

func TestProbeServer_FindingOrder(t *testing.T) {
	def := ServerDef{
		Name:          "everything",
		Transport:     TransportStdio,
		Command:       "every-srv",
		RequiredEnv:   []string{"REQ_B", "REQ_A"},
		OptionalEnv:   []string{"OPT_Z"},
		RequiredPaths: []string{"/data/every"},
	}

	report := ProbeServer(def, nil, fakeSystem{})

	want := []struct {
		kind    CheckKind
		subject string
	}{
		{CheckExecutable, "every-srv"},
		{CheckEnvVar, "REQ_B"},
		{CheckEnvVar, "REQ_A"},
		{CheckEnvVar, "OPT_Z"},
		{CheckPath, "/data/every"},
	}
	if len(report.Results) != len(want) {
		t.Fatalf("got %d findings, want %d", len(report.Results), len(want))
	}
	for i, w := range want {
		res := report.Results[i]
		if res.Kind != w.kind || res.Subject != w.subject {
			t.Errorf("finding[%d] = %s %q, want %s %q", i, res.Kind, res.Subject, w.kind, w.subject)
		}
	}
}

// ---------------------------------------------------------------------------
// Report
// ---------------------------------------------------------------------------

func TestReportStatus(t *testing.T) {
	tests := []struct {
		name       string
		severities []Severity
		want       Status
	}{
		{"no findings", nil, StatusInstallable},
		{"all ok", []Severity{SeverityOk, SeverityOk}, StatusInstallable},
		{"one warning", []Severity{SeverityOk, SeverityWarning}, StatusDegraded},
		{"error beats warning", []Severity{SeverityWarning, SeverityError}, StatusBlocked},
		{"error first", []Severity{SeverityError, SeverityOk}, StatusBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Report{}
			for _, s := range tt.severities {
				r.Results = append(r.Results, ProbeResult{Severity: s})
			}
			if got := r.Status(); got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReport_MissingRequiredEnvSkipsWarnings(t *testing.T) {
	r := Report{Results: []ProbeResult{
		{Kind: CheckEnvVar, Subject: "REQUIRED", Severity: SeverityError},
		{Kind: CheckEnvVar, Subject: "OPTIONAL", Severity: SeverityWarning},
		{Kind: CheckExecutable, Subject: "bin", Severity: SeverityError},
	}}

	if got := r.MissingRequiredEnv(); !reflect.DeepEqual(got, []string{"REQUIRED"}) {
		t.Errorf("missing required = %v, want [REQUIRED]", got)
	}
}

// ---------------------------------------------------------------------------
// Hints
// ---------------------------------------------------------------------------

func TestInstallHint(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"npx", "install Node.js 18+ (https://nodejs.org)"},
		{"uvx", "install uv (https://docs.astral.sh/uv/getting-started/installation/)"},
		{"docker", "install Docker (https://docs.docker.com/get-docker/)"},
		{"custom-bin", "install custom-bin and make sure it is on PATH"},
	}
	for _, tt := range tests {
		if got := installHint(tt.command); got != tt.want {
			t.Errorf("installHint(%q) = %q, want %q", tt.command, got, tt.want)
		}
	}
}
