// Package commands implements custom slash commands (spec §4.M): markdown
// templates discovered under a user-global and a project-local directory,
// with a literal $ARGUMENTS substitution at load time.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// argumentsToken is the placeholder substituted with whatever text follows
// the command name on invocation.
const argumentsToken = "$ARGUMENTS"

// userCommandsSubpath and projectCommandsSubpath are the two locations discovered,
// in that order, so a project command can override a user command of the
// same name.
const userCommandsSubpath = "bmo/data/commands"
const projectCommandsSubpath = ".bmo/commands"

// Discover scans the user-global commands directory followed by the
// project-local one under cwd, returning a name -> file path mapping. A
// command found in both locations resolves to the project copy.
func Discover(cwd string) map[string]string {
	found := make(map[string]string)

	if home, err := os.UserHomeDir(); err == nil {
		addMarkdownCommands(found, filepath.Join(home, userCommandsSubpath))
	}
	addMarkdownCommands(found, filepath.Join(cwd, projectCommandsSubpath))

	return found
}

func addMarkdownCommands(found map[string]string, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		found[name] = filepath.Join(dir, e.Name())
	}
}

// Load reads the command template at path and substitutes every literal
// "$ARGUMENTS" occurrence with arguments, returning the text ready to
// forward as a user message.
func Load(path, arguments string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read command file %q: %w", path, err)
	}
	return strings.ReplaceAll(string(data), argumentsToken, arguments), nil
}
