package cmd

import (
	"fmt"
	"os"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/capstanhq/capstan/internal/tui"
	"github.com/spf13/cobra"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	config  *core.ConfigManager
	cfg     *core.Config
	catalog *core.Catalog
}

// newDeps creates shared dependencies. Called lazily by commands that need them.
func newDeps() (*deps, error) {
	config, err := core.NewConfigManager()
	if err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Settings.NoColor {
		tui.DisableColor()
	}

	catalog, err := core.LoadCatalog(config.CatalogOverlayPath(cfg))
	if err != nil {
		return nil, err
	}

	return &deps{
		config:  config,
		cfg:     cfg,
		catalog: catalog,
	}, nil
}

// globalRegistryPath resolves the user-wide registry location from the
// environment and settings. The --registry flag, when given, wins before
// this chain is consulted.
func globalRegistryPath(settings core.Settings) string {
	if path := os.Getenv("CAPSTAN_REGISTRY"); path != "" {
		return path
	}
	if settings.Registry != "" {
		return settings.Registry
	}
	return core.DefaultGlobalRegistry
}

// globalRegistry opens the user-wide registry. Precedence for the path:
// --registry flag, CAPSTAN_REGISTRY, the registry setting, then
// ~/.claude.json.
func (d *deps) globalRegistry(cmd *cobra.Command) *core.Registry {
	if path, _ := cmd.Flags().GetString("registry"); path != "" {
		return core.GlobalRegistry(path)
	}
	return core.GlobalRegistry(globalRegistryPath(d.cfg.Settings))
}

// proberEnv builds the environment snapshot probes and reports see:
// env-file layers underneath the process environment. projectDir may be
// empty for global installs, which skips the project layer.
func (d *deps) proberEnv(projectDir string) map[string]string {
	return core.NewEnvResolver(projectDir, d.config.ConfigDir()).Merged()
}
