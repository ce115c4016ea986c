// Package core provides the business logic for capstan.
// It has zero UI dependencies and is independently testable.
package core

// RegistryEntry is the persisted shape of one MCP server in a registry
// file, keyed by server name under the top-level mcpServers object.
// Env values are `${VAR}` placeholder references resolved by the host
// (or by `capstan env`) at launch time; resolved secrets are never
// written to disk.
type RegistryEntry struct {
	Type    string            `json:"type,omitempty"` // "http" or "sse"; omitted for stdio
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	URL     string            `json:"url,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Remote reports whether the entry points at a remote endpoint rather
// than a local command.
func (e RegistryEntry) Remote() bool {
	return e.URL != ""
}

// Equal compares two entries field by field. Used to detect no-op
// installs so repeated runs leave the registry file untouched.
func (e RegistryEntry) Equal(other RegistryEntry) bool {
	if e.Type != other.Type || e.Command != other.Command || e.URL != other.URL {
		return false
	}
	if len(e.Args) != len(other.Args) {
		return false
	}
	for i := range e.Args {
		if e.Args[i] != other.Args[i] {
			return false
		}
	}
	if len(e.Env) != len(other.Env) {
		return false
	}
	for k, v := range e.Env {
		if other.Env[k] != v {
			return false
		}
	}
	return true
}

// Config represents the capstan configuration stored at ~/.capstan/config.json.
type Config struct {
	Settings Settings `json:"settings"`
}

// Settings holds user preferences.
type Settings struct {
	// Registry overrides the global registry file path. Empty means the
	// built-in default (~/.claude.json).
	Registry string `json:"registry,omitempty"`
	// Catalog points at a user catalog overlay file. Empty means
	// ~/.capstan/catalog.yaml (loaded only if present).
	Catalog string `json:"catalog,omitempty"`
	// NoColor disables styled report output.
	NoColor bool `json:"noColor,omitempty"`
}
