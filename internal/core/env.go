package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envFileName = ".env.capstan"
)

// EnvResolver resolves environment variable values for servers.
// It follows the precedence: process env > project .env.capstan > global .env.capstan.
type EnvResolver struct {
	projectDir string
	globalDir  string // ~/.capstan/
}

// NewEnvResolver creates an EnvResolver for the given project directory.
// globalDir defaults to ~/.capstan/ if empty. projectDir may be empty
// when no project applies; the project layer is skipped then.
func NewEnvResolver(projectDir, globalDir string) *EnvResolver {
	if globalDir == "" {
		home, _ := os.UserHomeDir()
		globalDir = filepath.Join(home, configDirName)
	}
	return &EnvResolver{
		projectDir: projectDir,
		globalDir:  globalDir,
	}
}

// EnvFileName returns the file name env files use in both the project
// root and the global config directory.
func EnvFileName() string {
	return envFileName
}

// ResolveEnv resolves the values for the given env var names.
// Returns a map of var name -> value for vars that were found.
// Vars not found in any source are reported in missing.
//
// Precedence (highest to lowest):
//  1. Process environment (os.LookupEnv)
//  2. Project .env.capstan (in projectDir)
//  3. Global ~/.capstan/.env.capstan
func (r *EnvResolver) ResolveEnv(names []string) (map[string]string, []string) {
	if len(names) == 0 {
		return nil, nil
	}

	globalEnv := parseEnvFile(filepath.Join(r.globalDir, envFileName))
	projectEnv := r.projectEnv()

	resolved := make(map[string]string, len(names))
	var missing []string

	for _, name := range names {
		if val, ok := os.LookupEnv(name); ok {
			resolved[name] = val
			continue
		}
		if val, ok := projectEnv[name]; ok {
			resolved[name] = val
			continue
		}
		if val, ok := globalEnv[name]; ok {
			resolved[name] = val
			continue
		}
		missing = append(missing, name)
	}

	return resolved, missing
}

// Merged returns a full environment snapshot with env file values
// layered underneath the process environment. This is what probes see,
// so a key stored in an env file counts as set even before a shell
// exports it.
func (r *EnvResolver) Merged() map[string]string {
	env := make(map[string]string)
	for k, v := range parseEnvFile(filepath.Join(r.globalDir, envFileName)) {
		env[k] = v
	}
	for k, v := range r.projectEnv() {
		env[k] = v
	}
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	return env
}

func (r *EnvResolver) projectEnv() map[string]string {
	if r.projectDir == "" {
		return nil
	}
	return parseEnvFile(filepath.Join(r.projectDir, envFileName))
}

// parseEnvFile reads a dotenv file into key-value pairs. Returns nil
// if the file does not exist or cannot be parsed.
func parseEnvFile(path string) map[string]string {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil
	}
	return env
}

// EnvSource indicates where an env var value was resolved from.
type EnvSource string

const (
	EnvSourceProcess EnvSource = "process"
	EnvSourceProject EnvSource = "project"
	EnvSourceGlobal  EnvSource = "global"
)

// ResolvedEnvVar holds a resolved env var value and its source.
type ResolvedEnvVar struct {
	Name   string
	Value  string
	Source EnvSource
}

// ResolveEnvWithSource resolves the given env var names, returning
// both the value and where it was found. Vars not found in any source
// are included with an empty Source.
func (r *EnvResolver) ResolveEnvWithSource(names []string) []ResolvedEnvVar {
	if len(names) == 0 {
		return nil
	}

	globalEnv := parseEnvFile(filepath.Join(r.globalDir, envFileName))
	projectEnv := r.projectEnv()

	results := make([]ResolvedEnvVar, len(names))
	for i, name := range names {
		results[i] = ResolvedEnvVar{Name: name}

		if val, ok := os.LookupEnv(name); ok {
			results[i].Value = val
			results[i].Source = EnvSourceProcess
			continue
		}
		if val, ok := projectEnv[name]; ok {
			results[i].Value = val
			results[i].Source = EnvSourceProject
			continue
		}
		if val, ok := globalEnv[name]; ok {
			results[i].Value = val
			results[i].Source = EnvSourceGlobal
			continue
		}
	}

	return results
}

// WriteEnvVar writes or updates a single env var in a .env.capstan
// file. The file is created if needed; an existing var is updated in
// place so comments and ordering survive.
func WriteEnvVar(dir, name, value string) error {
	path := filepath.Join(dir, envFileName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Quote the value if it contains spaces, # or newlines.
	quotedValue := value
	if strings.ContainsAny(value, " #\t\n\"") {
		quotedValue = `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}

	newLine := name + "=" + quotedValue

	if len(data) == 0 {
		return os.WriteFile(path, []byte(newLine+"\n"), 0o600)
	}

	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimPrefix(trimmed, "export ")
		if idx := strings.IndexByte(trimmed, '='); idx >= 0 {
			if strings.TrimSpace(trimmed[:idx]) == name {
				lines[i] = newLine
				found = true
				break
			}
		}
	}

	if !found {
		content := string(data)
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += newLine + "\n"
		return os.WriteFile(path, []byte(content), 0o600)
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600)
}

// EnsureGitignore adds .env.capstan to the project's .gitignore if not
// already present. Creates the .gitignore file if it does not exist.
func EnsureGitignore(projectDir string) error {
	gitignorePath := filepath.Join(projectDir, ".gitignore")

	data, err := os.ReadFile(gitignorePath)
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == envFileName {
				return nil
			}
		}
		content := string(data)
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += envFileName + "\n"
		return os.WriteFile(gitignorePath, []byte(content), 0o644)
	}

	if !os.IsNotExist(err) {
		return fmt.Errorf("reading .gitignore: %w", err)
	}

	return os.WriteFile(gitignorePath, []byte(envFileName+"\n"), 0o644)
}
