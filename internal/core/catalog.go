package core

import (
	"fmt"
	"regexp"
)

// Transport is how the assistant host reaches an MCP server.
type Transport string

const (
	TransportStdio Transport = "stdio" // local process on stdin/stdout
	TransportHTTP  Transport = "http"  // streamable HTTP endpoint
	TransportSSE   Transport = "sse"   // server-sent events endpoint
)

// Valid reports whether t is a known transport.
func (t Transport) Valid() bool {
	switch t {
	case TransportStdio, TransportHTTP, TransportSSE:
		return true
	}
	return false
}

// Category groups catalog servers for menu presentation and the
// category install flags.
type Category string

const (
	CategoryCore        Category = "core"
	CategoryDevelopment Category = "development"
	CategorySearch      Category = "search-ai"
	CategorySpecialized Category = "specialized"
)

// Categories lists all categories in presentation order.
func Categories() []Category {
	return []Category{CategoryCore, CategoryDevelopment, CategorySearch, CategorySpecialized}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Title returns the human-readable category name.
func (c Category) Title() string {
	switch c {
	case CategoryCore:
		return "Core"
	case CategoryDevelopment:
		return "Development"
	case CategorySearch:
		return "Search & AI"
	case CategorySpecialized:
		return "Specialized"
	}
	return string(c)
}

// ServerDef describes one MCP server the catalog knows how to install:
// its launch template plus everything that must exist in the
// environment before the server is worth enabling.
type ServerDef struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    Category `yaml:"category"`

	Transport Transport `yaml:"transport"`
	Command   string    `yaml:"command,omitempty"` // stdio only
	Args      []string  `yaml:"args,omitempty"`
	URL       string    `yaml:"url,omitempty"` // http/sse only

	// RequiredEnv vars must be non-empty for the server to function;
	// OptionalEnv vars merely degrade it when missing. Order is
	// preserved in reports.
	RequiredEnv []string `yaml:"requiredEnv,omitempty"`
	OptionalEnv []string `yaml:"optionalEnv,omitempty"`

	// RequiredPaths are files or directories that must exist (after ~
	// and $VAR expansion) before the server can run.
	RequiredPaths []string `yaml:"requiredPaths,omitempty"`

	// Starter marks servers included in the project bootstrap default
	// set.
	Starter bool `yaml:"starter,omitempty"`

	// Docs holds markdown setup notes rendered by `capstan info`.
	Docs string `yaml:"docs,omitempty"`
}

var serverNameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate checks that the definition is internally consistent.
func (d ServerDef) Validate() error {
	if !serverNameRegexp.MatchString(d.Name) {
		return fmt.Errorf("invalid server name %q (lowercase letters, digits, and dashes only)", d.Name)
	}
	if !d.Transport.Valid() {
		return fmt.Errorf("server %q: unknown transport %q", d.Name, d.Transport)
	}
	if d.Category != "" && !d.Category.Valid() {
		return fmt.Errorf("server %q: unknown category %q", d.Name, d.Category)
	}
	switch d.Transport {
	case TransportStdio:
		if d.Command == "" {
			return fmt.Errorf("server %q: stdio transport requires a command", d.Name)
		}
		if d.URL != "" {
			return fmt.Errorf("server %q: stdio transport does not take a url", d.Name)
		}
	default:
		if d.URL == "" {
			return fmt.Errorf("server %q: %s transport requires a url", d.Name, d.Transport)
		}
		if d.Command != "" {
			return fmt.Errorf("server %q: %s transport does not take a command", d.Name, d.Transport)
		}
	}
	return nil
}

// Catalog is the table of known server definitions, ordered for stable
// listing. Entries are fixed once constructed; the only extension
// point is the user overlay file merged at load time.
type Catalog struct {
	defs  []ServerDef
	index map[string]int
}

// NewCatalog builds a catalog from definitions, rejecting invalid or
// duplicate entries.
func NewCatalog(defs ...ServerDef) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.index[d.Name]; exists {
			return nil, fmt.Errorf("duplicate server name %q", d.Name)
		}
		c.index[d.Name] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// Lookup returns the definition for name, if the catalog knows it.
func (c *Catalog) Lookup(name string) (ServerDef, bool) {
	i, ok := c.index[name]
	if !ok {
		return ServerDef{}, false
	}
	return c.defs[i], true
}

// All returns every definition in catalog order.
func (c *Catalog) All() []ServerDef {
	out := make([]ServerDef, len(c.defs))
	copy(out, c.defs)
	return out
}

// ByCategory returns the definitions in cat, in catalog order.
func (c *Catalog) ByCategory(cat Category) []ServerDef {
	var out []ServerDef
	for _, d := range c.defs {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// Starter returns the project bootstrap default set, in catalog order.
func (c *Catalog) Starter() []ServerDef {
	var out []ServerDef
	for _, d := range c.defs {
		if d.Starter {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Selection describes which servers an invocation asked for. Flags and
// menu choices both reduce to a Selection before any probing happens.
type Selection struct {
	All        bool
	Categories []Category
	Names      []string
}

// Empty reports whether the selection requests nothing.
func (s Selection) Empty() bool {
	return !s.All && len(s.Categories) == 0 && len(s.Names) == 0
}

// Resolve expands a selection into concrete targets. Category and --all
// expansion follow catalog order; named servers keep their mention
// order; duplicates are silently dropped. Names the catalog does not
// know are returned separately — the caller reports them as warnings
// and continues with the rest.
func (c *Catalog) Resolve(sel Selection) (targets []ServerDef, unknown []string) {
	seen := make(map[string]bool)
	add := func(d ServerDef) {
		if !seen[d.Name] {
			seen[d.Name] = true
			targets = append(targets, d)
		}
	}

	if sel.All {
		for _, d := range c.defs {
			add(d)
		}
	}
	for _, cat := range sel.Categories {
		for _, d := range c.ByCategory(cat) {
			add(d)
		}
	}
	for _, name := range dedupe(sel.Names) {
		d, ok := c.Lookup(name)
		if !ok {
			if !seen[name] {
				unknown = append(unknown, name)
			}
			continue
		}
		add(d)
	}

	return targets, unknown
}
