package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogOverlay is the on-disk shape of the user catalog file
// (~/.capstan/catalog.yaml by default).
type catalogOverlay struct {
	Servers []ServerDef `yaml:"servers"`
}

// LoadCatalog returns the builtin catalog merged with the overlay file
// at path. Overlay entries replace builtin definitions with the same
// name and append otherwise, keeping catalog order stable for builtins
// and file order for additions. A missing overlay file is not an
// error; a malformed one is, so a typo cannot silently hide servers.
func LoadCatalog(path string) (*Catalog, error) {
	base := Builtin()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("reading catalog overlay: %w", err)
	}

	var overlay catalogOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	defs := base.All()
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		index[d.Name] = i
	}
	for _, d := range overlay.Servers {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("catalog overlay %s: %w", path, err)
		}
		if i, ok := index[d.Name]; ok {
			defs[i] = d
		} else {
			index[d.Name] = len(defs)
			defs = append(defs, d)
		}
	}

	return NewCatalog(defs...)
}
