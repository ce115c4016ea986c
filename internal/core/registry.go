package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const (
	// RegistryKey is the top-level object that holds server entries in
	// every registry file.
	RegistryKey = "mcpServers"

	// DefaultGlobalRegistry is where assistant hosts read user-wide
	// server config from.
	DefaultGlobalRegistry = "~/.claude.json"

	// ProjectRegistryFile is the per-project registry, relative to the
	// project root.
	ProjectRegistryFile = ".mcp.json"
)

// Registry edits the server table inside one JSON config file. All
// mutations are read-merge-write: keys outside the server table are
// carried through untouched, and each mutation lands on disk as a
// single atomic rename.
type Registry struct {
	Path string

	// Relaxed accepts comments and trailing commas and preserves them
	// on write. Hand-maintained files in the home directory get this;
	// project registries stay strict JSON.
	Relaxed bool
}

// GlobalRegistry opens the user-wide registry at path (~ and $VARs are
// expanded).
func GlobalRegistry(path string) *Registry {
	return &Registry{Path: expandPath(path), Relaxed: true}
}

// ProjectRegistry opens the registry file inside a project root.
func ProjectRegistry(root string) *Registry {
	return &Registry{Path: filepath.Join(root, ProjectRegistryFile)}
}

// Snapshot is a read-only view of a registry file.
type Snapshot struct {
	Entries   map[string]RegistryEntry
	Malformed bool // file exists but could not be parsed
}

// Names returns the entry names in sorted order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Entries))
	for name := range s.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot reads the registry. A missing file is an empty registry; a
// file that cannot be parsed is reported via Malformed and otherwise
// treated as empty.
func (r *Registry) Snapshot() (*Snapshot, error) {
	content, err := readRegistryFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.Path, err)
	}
	snap := &Snapshot{Entries: map[string]RegistryEntry{}}
	if content == "" {
		return snap, nil
	}

	if r.Relaxed {
		root, err := hujson.Parse([]byte(content))
		if err != nil {
			snap.Malformed = true
			return snap, nil
		}
		table := root.Find("/" + jsonPointerEscape(RegistryKey))
		if table == nil {
			return snap, nil
		}
		if err := decodeValue(table, &snap.Entries); err != nil {
			snap.Malformed = true
			snap.Entries = map[string]RegistryEntry{}
		}
		return snap, nil
	}

	if !gjson.Valid(content) {
		snap.Malformed = true
		return snap, nil
	}
	table := gjson.Get(content, escapeJSONKey(RegistryKey))
	if !table.Exists() {
		return snap, nil
	}
	if !table.IsObject() {
		snap.Malformed = true
		return snap, nil
	}
	table.ForEach(func(key, value gjson.Result) bool {
		var entry RegistryEntry
		if json.Unmarshal([]byte(value.Raw), &entry) == nil {
			snap.Entries[key.String()] = entry
		}
		return true
	})
	return snap, nil
}

// ApplyResult reports what one batch write did.
type ApplyResult struct {
	Path      string
	Added     []string // new entries, sorted
	Updated   []string // replaced entries, sorted
	Unchanged []string // identical entries left alone, sorted
	Replaced  bool     // a malformed file was overwritten
	Wrote     bool
}

// Changed reports whether the apply modified the file.
func (a *ApplyResult) Changed() bool {
	return len(a.Added) > 0 || len(a.Updated) > 0 || a.Replaced
}

// Apply upserts every incoming entry in one read-merge-write cycle.
// Entries identical to what the file already holds are left untouched;
// if nothing differs, the file is not rewritten at all. A file that
// cannot be parsed is replaced by a fresh registry holding only the
// incoming entries, and the replacement is flagged on the result.
func (r *Registry) Apply(incoming map[string]RegistryEntry) (*ApplyResult, error) {
	res := &ApplyResult{Path: r.Path}
	if len(incoming) == 0 {
		return res, nil
	}

	content, err := readRegistryFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.Path, err)
	}

	if r.Relaxed {
		return r.applyRelaxed(content, incoming, res)
	}
	return r.applyStrict(content, incoming, res)
}

func (r *Registry) applyStrict(content string, incoming map[string]RegistryEntry, res *ApplyResult) (*ApplyResult, error) {
	if content == "" {
		content = "{}"
	} else if !gjson.Valid(content) {
		content = "{}"
		res.Replaced = true
	} else if top := gjson.Get(content, escapeJSONKey(RegistryKey)); top.Exists() && !top.IsObject() {
		content = "{}"
		res.Replaced = true
	}

	for _, name := range sortedNames(incoming) {
		entry := incoming[name]
		path := escapeJSONKey(RegistryKey) + "." + escapeJSONKey(name)

		if cur := gjson.Get(content, path); cur.Exists() {
			var existing RegistryEntry
			if json.Unmarshal([]byte(cur.Raw), &existing) == nil && existing.Equal(entry) {
				res.Unchanged = append(res.Unchanged, name)
				continue
			}
			res.Updated = append(res.Updated, name)
		} else {
			res.Added = append(res.Added, name)
		}

		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("encoding entry %q: %w", name, err)
		}
		content, err = sjson.SetRaw(content, path, string(raw))
		if err != nil {
			return nil, fmt.Errorf("writing entry %q: %w", name, err)
		}
	}

	if !res.Changed() {
		return res, nil
	}
	formatted := pretty.Pretty([]byte(content))
	if err := writeFileAtomic(r.Path, formatted); err != nil {
		return nil, fmt.Errorf("saving %s: %w", r.Path, err)
	}
	res.Wrote = true
	return res, nil
}

func (r *Registry) applyRelaxed(content string, incoming map[string]RegistryEntry, res *ApplyResult) (*ApplyResult, error) {
	if content == "" {
		content = "{}"
	}
	root, err := hujson.Parse([]byte(content))
	if err != nil {
		root, _ = hujson.Parse([]byte("{}"))
		res.Replaced = true
	}

	tablePtr := "/" + jsonPointerEscape(RegistryKey)
	if table := root.Find(tablePtr); table != nil {
		var probe map[string]RegistryEntry
		if decodeValue(table, &probe) != nil {
			patch := fmt.Sprintf(`[{"op":"replace","path":%q,"value":{}}]`, tablePtr)
			if err := root.Patch([]byte(patch)); err != nil {
				return nil, fmt.Errorf("resetting server table: %w", err)
			}
			res.Replaced = true
		}
	}

	for _, name := range sortedNames(incoming) {
		entry := incoming[name]
		ptr := tablePtr + "/" + jsonPointerEscape(name)

		op := "add"
		if cur := root.Find(ptr); cur != nil {
			var existing RegistryEntry
			if decodeValue(cur, &existing) == nil && existing.Equal(entry) {
				res.Unchanged = append(res.Unchanged, name)
				continue
			}
			op = "replace"
			res.Updated = append(res.Updated, name)
		} else {
			res.Added = append(res.Added, name)
		}

		if root.Find(tablePtr) == nil {
			patch := fmt.Sprintf(`[{"op":"add","path":%q,"value":{}}]`, tablePtr)
			if err := root.Patch([]byte(patch)); err != nil {
				return nil, fmt.Errorf("creating server table: %w", err)
			}
		}
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("encoding entry %q: %w", name, err)
		}
		patch := fmt.Sprintf(`[{"op":%q,"path":%q,"value":%s}]`, op, ptr, raw)
		if err := root.Patch([]byte(patch)); err != nil {
			return nil, fmt.Errorf("writing entry %q: %w", name, err)
		}
	}

	if !res.Changed() {
		return res, nil
	}
	root.Format()
	removeTrailingCommas(&root)
	if err := writeFileAtomic(r.Path, root.Pack()); err != nil {
		return nil, fmt.Errorf("saving %s: %w", r.Path, err)
	}
	res.Wrote = true
	return res, nil
}

// RemoveResult reports what a removal did.
type RemoveResult struct {
	Path      string
	Found     bool
	Wrote     bool
	Malformed bool // file could not be parsed, nothing removed
}

// Remove deletes one entry. A missing file, a missing entry, and a
// malformed file all leave the file untouched; the result says which
// case applied.
func (r *Registry) Remove(name string) (*RemoveResult, error) {
	res := &RemoveResult{Path: r.Path}
	content, err := readRegistryFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.Path, err)
	}
	if content == "" {
		return res, nil
	}

	if r.Relaxed {
		root, err := hujson.Parse([]byte(content))
		if err != nil {
			res.Malformed = true
			return res, nil
		}
		ptr := "/" + jsonPointerEscape(RegistryKey) + "/" + jsonPointerEscape(name)
		if root.Find(ptr) == nil {
			return res, nil
		}
		res.Found = true
		patch := fmt.Sprintf(`[{"op":"remove","path":%q}]`, ptr)
		if err := root.Patch([]byte(patch)); err != nil {
			return nil, fmt.Errorf("removing entry %q: %w", name, err)
		}
		root.Format()
		removeTrailingCommas(&root)
		if err := writeFileAtomic(r.Path, root.Pack()); err != nil {
			return nil, fmt.Errorf("saving %s: %w", r.Path, err)
		}
		res.Wrote = true
		return res, nil
	}

	if !gjson.Valid(content) {
		res.Malformed = true
		return res, nil
	}
	path := escapeJSONKey(RegistryKey) + "." + escapeJSONKey(name)
	if !gjson.Get(content, path).Exists() {
		return res, nil
	}
	res.Found = true
	newContent, err := sjson.Delete(content, path)
	if err != nil {
		return nil, fmt.Errorf("removing entry %q: %w", name, err)
	}
	formatted := pretty.Pretty([]byte(newContent))
	if err := writeFileAtomic(r.Path, formatted); err != nil {
		return nil, fmt.Errorf("saving %s: %w", r.Path, err)
	}
	res.Wrote = true
	return res, nil
}

// MergeEntries applies incoming entries over existing ones without
// touching either input. It returns the merged table plus the sorted
// names of entries that were added, replaced, and left as-is. The file
// editors above implement exactly this merge; keeping it as a plain
// function makes the semantics testable without disk.
func MergeEntries(existing, incoming map[string]RegistryEntry) (merged map[string]RegistryEntry, added, updated, unchanged []string) {
	merged = make(map[string]RegistryEntry, len(existing)+len(incoming))
	for name, entry := range existing {
		merged[name] = entry
	}
	for _, name := range sortedNames(incoming) {
		entry := incoming[name]
		if cur, ok := merged[name]; ok {
			if cur.Equal(entry) {
				unchanged = append(unchanged, name)
				continue
			}
			updated = append(updated, name)
		} else {
			added = append(added, name)
		}
		merged[name] = entry
	}
	return merged, added, updated, unchanged
}

// decodeValue standardizes a JSONC subtree and unmarshals it.
func decodeValue(v *hujson.Value, out any) error {
	clone := v.Clone()
	clone.Standardize()
	return json.Unmarshal(clone.Pack(), out)
}

func sortedNames(entries map[string]RegistryEntry) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readRegistryFile reads a registry file. Returns empty string if not found.
func readRegistryFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// escapeJSONKey escapes a key for use with gjson/sjson path syntax, so
// a dot in an entry name is a literal character, not a path separator.
func escapeJSONKey(key string) string {
	var b strings.Builder
	for _, c := range key {
		switch c {
		case '.', '*', '?', '#', '|', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// jsonPointerEscape escapes a string for use as a JSON Pointer token (RFC 6901).
func jsonPointerEscape(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			result = append(result, '~', '0')
		case '/':
			result = append(result, '~', '1')
		default:
			result = append(result, s[i])
		}
	}
	return string(result)
}

// removeTrailingCommas walks the JSONC AST and removes trailing commas.
func removeTrailingCommas(v *hujson.Value) {
	switch vv := v.Value.(type) {
	case *hujson.Object:
		for i := range vv.Members {
			removeTrailingCommas(&vv.Members[i].Name)
			removeTrailingCommas(&vv.Members[i].Value)
		}
		if len(vv.Members) > 0 {
			vv.Members[len(vv.Members)-1].Value.AfterExtra = nil
		}
	case *hujson.Array:
		for i := range vv.Elements {
			removeTrailingCommas(&vv.Elements[i])
		}
		if len(vv.Elements) > 0 {
			vv.Elements[len(vv.Elements)-1].AfterExtra = nil
		}
	}
}
