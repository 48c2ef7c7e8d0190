// Package project implements BMO.md discovery: an optional user-global
// instructions file plus any ancestor-path BMO.md/.bmo/BMO.md files, loaded
// ancestor-first and concatenated into prompt-ready project context (spec
// §4.L).
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxAncestorLevels = 10

// userGlobalRelPath is where the user-global BMO.md lives, relative to the
// home directory (a "bmo" folder, not the ".bmo" folder that holds the
// user settings file).
const userGlobalRelPath = "bmo/BMO.md"

// found is one discovered BMO.md with the path used for its prompt header.
type found struct {
	path string
	rel  string
}

// FindBmoMd returns every BMO.md that applies to workingDir: the
// user-global file first (if present), then any "BMO.md" or ".bmo/BMO.md"
// found walking up from workingDir (at most maxAncestorLevels), reversed
// so ancestors are listed before their descendants.
func FindBmoMd(workingDir string) ([]string, error) {
	var files []found

	if home, err := os.UserHomeDir(); err == nil {
		userFile := filepath.Join(home, userGlobalRelPath)
		if _, err := os.Stat(userFile); err == nil {
			files = append(files, found{path: userFile, rel: "user-global"})
		}
	}

	resolved, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory %q: %w", workingDir, err)
	}

	var ancestors []found
	dir := resolved
	for level := 0; level < maxAncestorLevels; level++ {
		for _, candidate := range []string{filepath.Join(dir, "BMO.md"), filepath.Join(dir, ".bmo", "BMO.md")} {
			if _, err := os.Stat(candidate); err == nil {
				rel, err := filepath.Rel(resolved, candidate)
				if err != nil {
					rel = candidate
				}
				ancestors = append(ancestors, found{path: candidate, rel: rel})
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i := len(ancestors) - 1; i >= 0; i-- {
		files = append(files, ancestors[i])
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// LoadBmoMd reads and concatenates the files FindBmoMd returns, each
// wrapped in a "# Project Context (<rel>)" header and separated by
// "\n\n---\n\n". Returns "" when no BMO.md applies.
func LoadBmoMd(workingDir string) (string, error) {
	paths, err := FindBmoMd(workingDir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", nil
	}

	resolved, _ := filepath.Abs(workingDir)
	var home string
	if h, err := os.UserHomeDir(); err == nil {
		home = h
	}

	var blocks []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		rel := path
		if home != "" && filepath.Dir(path) == filepath.Join(home, "bmo") {
			rel = "user-global"
		} else if r, err := filepath.Rel(resolved, path); err == nil {
			rel = r
		}
		blocks = append(blocks, fmt.Sprintf("# Project Context (%s)\n%s", rel, strings.TrimRight(string(data), "\n")))
	}
	return strings.Join(blocks, "\n\n---\n\n"), nil
}
