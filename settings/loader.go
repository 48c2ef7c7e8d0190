package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	userSettingsRelPath    = ".bmo/settings.json"
	projectSettingsRelName = "settings.local.json"
	projectSettingsSubdir  = ".bmo"
	maxAncestorLevels      = 10
)

// discoveredFile is one settings file found during discovery, most-general
// first.
type discoveredFile struct {
	path  string
	level string // "user" or "project"
}

// discoverFiles returns the settings files to merge, ancestor-first: the
// user-global file, then each ".bmo/settings.local.json" found walking up
// from cwd to the filesystem root (bounded at maxAncestorLevels), reversed
// so ancestors merge before descendants.
func discoverFiles(cwd string) ([]discoveredFile, error) {
	var files []discoveredFile

	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, userSettingsRelPath)
		if _, err := os.Stat(userPath); err == nil {
			files = append(files, discoveredFile{path: userPath, level: "user"})
		}
	}

	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cwd %q: %w", cwd, err)
	}

	var ancestors []discoveredFile
	dir := abs
	for level := 0; level < maxAncestorLevels; level++ {
		candidate := filepath.Join(dir, projectSettingsSubdir, projectSettingsRelName)
		if _, err := os.Stat(candidate); err == nil {
			ancestors = append(ancestors, discoveredFile{path: candidate, level: "project"})
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// ancestors was collected descendant-to-ancestor (closest dir first);
	// reverse it so the furthest ancestor merges before the closest.
	for i := len(ancestors) - 1; i >= 0; i-- {
		files = append(files, ancestors[i])
	}

	return files, nil
}

// loadFile reads and parses one settings file (YAML tried first since it's
// a superset of JSON, falling back to JSON), then expands environment
// variable references.
func loadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	raw, err := parseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return expandEnvVars(raw), nil
}

func parseBytes(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err == nil {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("not valid YAML or JSON: %w", err)
	}
	return out, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnvVars(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = expandValue(v)
	}
	return out
}

func expandValue(v any) any {
	switch val := v.(type) {
	case string:
		return expandEnvString(val)
	case map[string]any:
		return expandEnvVars(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = expandValue(item)
		}
		return out
	default:
		return v
	}
}

func expandEnvString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1]
			if idx := strings.Index(inner, ":-"); idx != -1 {
				name, def := inner[:idx], inner[idx+2:]
				if val := os.Getenv(name); val != "" {
					return val
				}
				return def
			}
			return os.Getenv(inner)
		}
		return os.Getenv(match[1:])
	})
}

// loadAndMerge discovers and merges every known settings file onto the
// built-in defaults. A file that fails to parse is logged and skipped;
// other files still merge (configuration errors never abort startup).
func loadAndMerge(cwd string) (map[string]any, []discoveredFile, error) {
	discovered, err := discoverFiles(cwd)
	if err != nil {
		return nil, nil, err
	}

	merged := builtInDefaults()
	var loaded []discoveredFile
	for _, f := range discovered {
		parsed, err := loadFile(f.path)
		if err != nil {
			slog.Error("skipping unreadable settings file", "path", f.path, "error", err)
			continue
		}
		merged = deepMerge(merged, parsed)
		loaded = append(loaded, f)
	}
	return merged, loaded, nil
}
