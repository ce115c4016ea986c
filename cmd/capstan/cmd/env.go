package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"syscall"

	"github.com/capstanhq/capstan/internal/core"
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env --server <name> -- <command> [args...]",
	Short: "Run a server command with its environment variables resolved",
	Long: `Runtime helper that injects environment variables into MCP server
processes.

This command is written into registry entries by installs run with
--wrap and is not usually invoked by hand.

It collects the variables the named server declares (catalog contract
plus any ${VAR} placeholders in its registry entry), resolves values
from the process environment, the project .env.capstan, and
~/.capstan/.env.capstan, then exec's the given command with those
variables set. Without an explicit command the server's own registry
entry is launched.

--scope pins which registry the entry is read from. The default, auto,
tries the project .mcp.json first and falls back to ~/.claude.json.`,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Manual flag parsing because cobra's flag parsing doesn't
		// handle the -- separator well with DisableFlagParsing.
		serverName, targetDir, scope, cmdArgs, err := parseEnvArgs(args)
		if err != nil {
			return err
		}

		if targetDir == "" {
			targetDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
		}

		// The project env layer only applies inside a repository. An
		// explicit project scope needs the repository to exist.
		projectDir := ""
		if root, rootErr := core.FindProjectRoot(targetDir); rootErr == nil {
			projectDir = root
		} else if scope == "project" || !errors.Is(rootErr, core.ErrNotAProject) {
			return rootErr
		}

		entry, haveEntry := lookupRegistryEntry(serverName, projectDir, scope)

		names := serverEnvNames(serverName, entry, haveEntry)
		resolver := core.NewEnvResolver(projectDir, "")
		resolved, missing := resolver.ResolveEnv(names)

		for _, name := range missing {
			fmt.Fprintf(os.Stderr, "Warning: %s needed by server %q is not set\n", name, serverName)
		}

		// Start with the current process env, then layer resolved vars
		// and the entry's own env block on top.
		environ := os.Environ()
		for k, v := range resolved {
			environ = append(environ, k+"="+v)
		}
		if haveEntry {
			for k, v := range entry.Env {
				environ = append(environ, k+"="+expandPlaceholders(v, resolved))
			}
		}

		if len(cmdArgs) == 0 {
			if !haveEntry || entry.Remote() {
				return fmt.Errorf("no command given and server %q has no local registry entry to launch", serverName)
			}
			cmdArgs = append([]string{entry.Command}, entry.Args...)
		}

		binary, err := exec.LookPath(cmdArgs[0])
		if err != nil {
			return fmt.Errorf("command not found: %s", cmdArgs[0])
		}

		// Exec the command (replaces this process).
		return syscall.Exec(binary, cmdArgs, environ)
	},
}

var placeholderRegexp = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// serverEnvNames collects every variable the server is known to want:
// the catalog contract first, then placeholder names found in the
// registry entry that the catalog did not already list.
func serverEnvNames(serverName string, entry core.RegistryEntry, haveEntry bool) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if def, ok := wrapperCatalog().Lookup(serverName); ok {
		for _, n := range def.RequiredEnv {
			add(n)
		}
		for _, n := range def.OptionalEnv {
			add(n)
		}
	}

	if haveEntry {
		for _, v := range entry.Env {
			for _, m := range placeholderRegexp.FindAllStringSubmatch(v, -1) {
				add(m[1])
			}
		}
	}
	return names
}

// wrapperCatalog loads the catalog with the user overlay when the
// config is readable, falling back to the builtin set. The wrapper runs
// at server launch, so a broken config must not keep servers from
// starting.
func wrapperCatalog() *core.Catalog {
	if cm, err := core.NewConfigManager(); err == nil {
		if cfg, err := cm.Load(); err == nil {
			if catalog, err := core.LoadCatalog(cm.CatalogOverlayPath(cfg)); err == nil {
				return catalog
			}
		}
	}
	return core.Builtin()
}

// lookupRegistryEntry finds the server's entry within the requested
// scope, project registry before the global one under auto. A malformed
// or missing file just means no entry.
func lookupRegistryEntry(serverName, projectDir, scope string) (core.RegistryEntry, bool) {
	if scope != "global" && projectDir != "" {
		if snap, err := core.ProjectRegistry(projectDir).Snapshot(); err == nil {
			if entry, ok := snap.Entries[serverName]; ok {
				return entry, true
			}
		}
	}
	if scope == "project" {
		return core.RegistryEntry{}, false
	}

	// Same location chain the install path uses, minus the flag; a
	// broken config falls back to the default rather than failing the
	// launch.
	var settings core.Settings
	if cm, err := core.NewConfigManager(); err == nil {
		if cfg, err := cm.Load(); err == nil {
			settings = cfg.Settings
		}
	}
	if snap, err := core.GlobalRegistry(globalRegistryPath(settings)).Snapshot(); err == nil {
		if entry, ok := snap.Entries[serverName]; ok {
			return entry, true
		}
	}
	return core.RegistryEntry{}, false
}

// expandPlaceholders substitutes ${VAR} in a registry entry value from
// the resolved set, falling back to the process environment. Unknown
// variables are left as-is so the child sees what the file said.
func expandPlaceholders(value string, resolved map[string]string) string {
	return placeholderRegexp.ReplaceAllStringFunc(value, func(match string) string {
		name := placeholderRegexp.FindStringSubmatch(match)[1]
		if v, ok := resolved[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// parseEnvArgs manually parses the args for `capstan env`.
// Expected format: --server <name> [--scope global|project|auto]
// [-d <dir>] [-- <command> [args...]]
func parseEnvArgs(args []string) (serverName, targetDir, scope string, cmdArgs []string, err error) {
	scope = "auto"
	i := 0
	for i < len(args) {
		switch args[i] {
		case "--server":
			if i+1 >= len(args) {
				return "", "", "", nil, fmt.Errorf("--server requires a value")
			}
			serverName = args[i+1]
			i += 2
		case "--scope":
			if i+1 >= len(args) {
				return "", "", "", nil, fmt.Errorf("--scope requires a value")
			}
			scope = args[i+1]
			if scope != "auto" && scope != "global" && scope != "project" {
				return "", "", "", nil, fmt.Errorf("invalid scope %q (use global, project, or auto)", scope)
			}
			i += 2
		case "-d", "--dir":
			if i+1 >= len(args) {
				return "", "", "", nil, fmt.Errorf("%s requires a value", args[i])
			}
			targetDir = args[i+1]
			i += 2
		case "--":
			cmdArgs = args[i+1:]
			i = len(args) // exit loop
		default:
			return "", "", "", nil, fmt.Errorf("unexpected argument: %s", args[i])
		}
	}

	if serverName == "" {
		return "", "", "", nil, fmt.Errorf("--server flag is required")
	}

	return serverName, targetDir, scope, cmdArgs, nil
}

func init() {
	rootCmd.AddCommand(envCmd)
}
