package core

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v6"
)

// ErrNotAProject reports that no version-controlled project encloses
// the starting directory.
var ErrNotAProject = errors.New("not inside a git repository (run `git init` first)")

// FindProjectRoot walks upward from dir to the root of the enclosing
// git repository. Project registries are anchored there, so entries
// use stable paths no matter where in the tree a command runs.
func FindProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", ErrNotAProject
		}
		return "", fmt.Errorf("opening repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no tree to anchor a registry in.
		return "", ErrNotAProject
	}
	return wt.Filesystem.Root(), nil
}
