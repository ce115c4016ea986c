package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func strictRegistry(t *testing.T) *Registry {
	t.Helper()
	return ProjectRegistry(t.TempDir())
}

func relaxedRegistry(t *testing.T) *Registry {
	t.Helper()
	return GlobalRegistry(filepath.Join(t.TempDir(), "claude.json"))
}

func writeRegistry(t *testing.T, reg *Registry, content string) {
	t.Helper()
	if err := os.WriteFile(reg.Path, []byte(content), 0o644); err != nil {
		t.Fatalf("seeding %s: %v", reg.Path, err)
	}
}

func readRegistry(t *testing.T, reg *Registry) string {
	t.Helper()
	data, err := os.ReadFile(reg.Path)
	if err != nil {
		t.Fatalf("reading %s: %v", reg.Path, err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

func TestSnapshot_MissingFileIsEmpty(t *testing.T) {
	snap, err := strictRegistry(t).Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Entries) != 0 || snap.Malformed {
		t.Errorf("snapshot = %+v, want empty", snap)
	}
}

func TestSnapshot_FileWithoutTableIsEmpty(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{"theme": "dark"}`)

	snap, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Entries) != 0 || snap.Malformed {
		t.Errorf("snapshot = %+v, want empty and well-formed", snap)
	}
}

func TestSnapshot_MalformedFlagged(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{ nope`)

	snap, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Malformed {
		t.Errorf("Malformed = false for unparseable file")
	}
}

func TestSnapshot_TableNotObjectFlagged(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{"mcpServers": []}`)

	snap, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Malformed {
		t.Errorf("Malformed = false for non-object server table")
	}
}

func TestSnapshot_RelaxedAcceptsComments(t *testing.T) {
	reg := relaxedRegistry(t)
	writeRegistry(t, reg, `{
	// hand-written config
	"mcpServers": {
		"alpha": {"command": "alpha-srv"},
	},
}`)

	snap, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Malformed {
		t.Fatalf("Malformed = true for valid JSONC")
	}
	if entry, ok := snap.Entries["alpha"]; !ok || entry.Command != "alpha-srv" {
		t.Errorf("entries = %+v", snap.Entries)
	}
}

func TestSnapshot_NamesSorted(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{"mcpServers": {"zed": {"command": "z"}, "ant": {"command": "a"}}}`)

	snap, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	names := snap.Names()
	if len(names) != 2 || names[0] != "ant" || names[1] != "zed" {
		t.Errorf("names = %v, want [ant zed]", names)
	}
}

// ---------------------------------------------------------------------------
// Apply
// ---------------------------------------------------------------------------

func TestApply_CreatesFile(t *testing.T) {
	reg := strictRegistry(t)

	res, err := reg.Apply(map[string]RegistryEntry{
		"alpha": {Command: "alpha-srv"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if !res.Wrote || len(res.Added) != 1 || res.Added[0] != "alpha" {
		t.Errorf("result = %+v", res)
	}
	snap, _ := reg.Snapshot()
	if snap.Entries["alpha"].Command != "alpha-srv" {
		t.Errorf("entries = %+v", snap.Entries)
	}
}

func TestApply_PreservesForeignKeys(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{"theme": "dark", "mcpServers": {"alpha": {"command": "alpha-srv"}}}`)

	if _, err := reg.Apply(map[string]RegistryEntry{"beta": {Command: "beta-srv"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	content := readRegistry(t, reg)
	if !strings.Contains(content, `"theme"`) {
		t.Errorf("foreign key dropped:\n%s", content)
	}
	snap, _ := reg.Snapshot()
	if len(snap.Entries) != 2 {
		t.Errorf("entries = %v, want alpha and beta", snap.Names())
	}
}

func TestApply_UnchangedEntrySkipsWrite(t *testing.T) {
	reg := strictRegistry(t)

	entries := map[string]RegistryEntry{"alpha": {Command: "alpha-srv", Args: []string{"-x"}}}
	if _, err := reg.Apply(entries); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	res, err := reg.Apply(entries)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if res.Wrote || res.Changed() {
		t.Errorf("identical apply rewrote the file: %+v", res)
	}
	if len(res.Unchanged) != 1 || res.Unchanged[0] != "alpha" {
		t.Errorf("unchanged = %v", res.Unchanged)
	}
}

func TestApply_ChangedEntryUpdates(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{"mcpServers": {"alpha": {"command": "alpha-srv", "args": ["--old"]}}}`)

	res, err := reg.Apply(map[string]RegistryEntry{"alpha": {Command: "alpha-srv"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(res.Updated) != 1 || res.Updated[0] != "alpha" {
		t.Errorf("updated = %v", res.Updated)
	}
	snap, _ := reg.Snapshot()
	if got := snap.Entries["alpha"].Args; len(got) != 0 {
		t.Errorf("args = %v, want none", got)
	}
}

func TestApply_MalformedStrictReplaced(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{ nope`)

	res, err := reg.Apply(map[string]RegistryEntry{"alpha": {Command: "alpha-srv"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if !res.Replaced {
		t.Errorf("Replaced = false")
	}
	snap, _ := reg.Snapshot()
	if snap.Malformed || len(snap.Entries) != 1 {
		t.Errorf("rebuilt registry = %+v", snap)
	}
}

func TestApply_RelaxedPreservesComments(t *testing.T) {
	reg := relaxedRegistry(t)
	writeRegistry(t, reg, `{
	// keep me
	"theme": "dark",
	"mcpServers": {
		"alpha": {"command": "alpha-srv"},
	},
}`)

	if _, err := reg.Apply(map[string]RegistryEntry{"beta": {Command: "beta-srv"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	content := readRegistry(t, reg)
	if !strings.Contains(content, "// keep me") {
		t.Errorf("comment dropped:\n%s", content)
	}
	snap, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("re-snapshot: %v", err)
	}
	if snap.Malformed {
		t.Fatalf("written file no longer parses:\n%s", content)
	}
	if len(snap.Entries) != 2 {
		t.Errorf("entries = %v, want alpha and beta", snap.Names())
	}
}

func TestApply_RelaxedMalformedReplaced(t *testing.T) {
	reg := relaxedRegistry(t)
	writeRegistry(t, reg, `not even close`)

	res, err := reg.Apply(map[string]RegistryEntry{"alpha": {Command: "alpha-srv"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if !res.Replaced || !res.Wrote {
		t.Errorf("result = %+v", res)
	}
	snap, _ := reg.Snapshot()
	if snap.Malformed || len(snap.Entries) != 1 {
		t.Errorf("rebuilt registry = %+v", snap)
	}
}

func TestApply_EmptyIncomingIsNoop(t *testing.T) {
	reg := strictRegistry(t)

	res, err := reg.Apply(nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Wrote || res.Changed() {
		t.Errorf("result = %+v, want noop", res)
	}
	if _, err := os.Stat(reg.Path); !os.IsNotExist(err) {
		t.Errorf("noop apply created the file")
	}
}

func TestApply_DottedEntryName(t *testing.T) {
	reg := strictRegistry(t)

	if _, err := reg.Apply(map[string]RegistryEntry{"my.server": {Command: "my-srv"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	snap, _ := reg.Snapshot()
	if entry, ok := snap.Entries["my.server"]; !ok || entry.Command != "my-srv" {
		t.Fatalf("entries = %+v", snap.Entries)
	}

	res, err := reg.Remove("my.server")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !res.Found {
		t.Errorf("dotted name not found on remove")
	}
}

// ---------------------------------------------------------------------------
// Remove
// ---------------------------------------------------------------------------

func TestRemove_DeletesOnlyNamedEntry(t *testing.T) {
	reg := strictRegistry(t)
	writeRegistry(t, reg, `{"theme": "dark", "mcpServers": {"alpha": {"command": "a"}, "beta": {"command": "b"}}}`)

	res, err := reg.Remove("alpha")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if !res.Found || !res.Wrote {
		t.Errorf("result = %+v", res)
	}
	snap, _ := reg.Snapshot()
	if _, ok := snap.Entries["alpha"]; ok {
		t.Errorf("alpha still present")
	}
	if _, ok := snap.Entries["beta"]; !ok {
		t.Errorf("beta removed too")
	}
	if !strings.Contains(readRegistry(t, reg), `"theme"`) {
		t.Errorf("foreign key dropped")
	}
}

func TestRemove_MissingEntryLeavesFileAlone(t *testing.T) {
	reg := relaxedRegistry(t)
	writeRegistry(t, reg, `{
	// still here after the failed remove
	"mcpServers": {"alpha": {"command": "a"}},
}`)
	before := readRegistry(t, reg)

	res, err := reg.Remove("ghost")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if res.Found || res.Wrote {
		t.Errorf("result = %+v", res)
	}
	if after := readRegistry(t, reg); after != before {
		t.Errorf("file changed:\n%s", after)
	}
}

func TestRemove_MalformedReported(t *testing.T) {
	reg := relaxedRegistry(t)
	writeRegistry(t, reg, `broken{`)
	before := readRegistry(t, reg)

	res, err := reg.Remove("alpha")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if !res.Malformed || res.Wrote {
		t.Errorf("result = %+v", res)
	}
	if after := readRegistry(t, reg); after != before {
		t.Errorf("malformed file was rewritten")
	}
}

func TestRemove_MissingFile(t *testing.T) {
	res, err := strictRegistry(t).Remove("alpha")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Found || res.Wrote || res.Malformed {
		t.Errorf("result = %+v, want all false", res)
	}
}

// ---------------------------------------------------------------------------
// MergeEntries
// ---------------------------------------------------------------------------

func TestMergeEntries(t *testing.T) {
	existing := map[string]RegistryEntry{
		"keep":   {Command: "keep-srv"},
		"update": {Command: "old-srv"},
		"same":   {Command: "same-srv"},
	}
	incoming := map[string]RegistryEntry{
		"update": {Command: "new-srv"},
		"same":   {Command: "same-srv"},
		"add":    {Command: "add-srv"},
	}

	merged, added, updated, unchanged := MergeEntries(existing, incoming)

	if len(merged) != 4 {
		t.Errorf("merged has %d entries, want 4", len(merged))
	}
	if merged["update"].Command != "new-srv" {
		t.Errorf("update = %+v", merged["update"])
	}
	if merged["keep"].Command != "keep-srv" {
		t.Errorf("keep = %+v", merged["keep"])
	}
	if len(added) != 1 || added[0] != "add" {
		t.Errorf("added = %v", added)
	}
	if len(updated) != 1 || updated[0] != "update" {
		t.Errorf("updated = %v", updated)
	}
	if len(unchanged) != 1 || unchanged[0] != "same" {
		t.Errorf("unchanged = %v", unchanged)
	}
}

func TestEscapeJSONKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"my.server", `my\.server`},
		{"a.b.c", `a\.b\.c`},
		{"star*", `star\*`},
	}
	for _, tc := range cases {
		if got := escapeJSONKey(tc.in); got != tc.want {
			t.Errorf("escapeJSONKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
