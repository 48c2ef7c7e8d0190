// Package settings implements the hierarchical configuration system: a
// built-in-defaults base, deep-merged with a user-global file and any
// number of ancestor-to-descendant project files, with dotted-key access,
// secret redaction, and a hot-reload watcher.
package settings

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// Settings is the merged configuration tree, safe for concurrent use.
// Readers take a consistent snapshot under a shared lock; reloads rebuild
// the merged map and swap it in under an exclusive lock.
type Settings struct {
	mu      sync.RWMutex
	cwd     string
	merged  map[string]any
	files   []discoveredFile
	onChangeMu sync.Mutex
	onChange   []func(*Settings)
}

// Load discovers and merges configuration rooted at cwd.
func Load(cwd string) (*Settings, error) {
	merged, files, err := loadAndMerge(cwd)
	if err != nil {
		return nil, err
	}
	return &Settings{cwd: cwd, merged: merged, files: files}, nil
}

// Reload re-discovers and re-merges configuration, replacing the current
// snapshot, and fires every registered OnChange callback.
func (s *Settings) Reload() error {
	merged, files, err := loadAndMerge(s.cwd)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.merged = merged
	s.files = files
	s.mu.Unlock()

	s.onChangeMu.Lock()
	callbacks := append([]func(*Settings){}, s.onChange...)
	s.onChangeMu.Unlock()
	for _, cb := range callbacks {
		cb(s)
	}
	return nil
}

// OnChange registers a callback invoked after every successful Reload.
func (s *Settings) OnChange(cb func(*Settings)) {
	s.onChangeMu.Lock()
	defer s.onChangeMu.Unlock()
	s.onChange = append(s.onChange, cb)
}

// Files returns the settings files that contributed to the current merge,
// in merge order (most general first).
func (s *Settings) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, len(s.files))
	for i, f := range s.files {
		paths[i] = f.path
	}
	return paths
}

// Get resolves a dotted key against the merged configuration tree,
// returning def when the key is absent (P1).
func (s *Settings) Get(dotted string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := getPath(s.merged, dotted); ok {
		return v
	}
	return def
}

// Set writes value at dotted key into the on-disk file for the given
// level ("user" or "project"), creating the nested structure as needed,
// then reloads so the change is immediately reflected.
func (s *Settings) Set(dotted string, value any, level string) error {
	path, err := s.targetFile(level)
	if err != nil {
		return err
	}

	existing := map[string]any{}
	if data, err := loadFile(path); err == nil {
		existing = data
	}
	setPath(existing, dotted, value)

	if err := writeJSONFile(path, existing); err != nil {
		return fmt.Errorf("failed to write settings file %q: %w", path, err)
	}
	return s.Reload()
}

func (s *Settings) targetFile(level string) (string, error) {
	switch level {
	case "user":
		home, err := userHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, userSettingsRelPath), nil
	case "project":
		return filepath.Join(s.cwd, projectSettingsSubdir, projectSettingsRelName), nil
	default:
		return "", fmt.Errorf("unknown settings level %q (want \"user\" or \"project\")", level)
	}
}

// ToDict returns the full merged configuration as a plain map.
func (s *Settings) ToDict() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMap(s.merged)
}

// ToDictRedacted returns ToDict with every secret-named leaf replaced by
// "***" (P3), safe to display or log.
func (s *Settings) ToDictRedacted() map[string]any {
	return redactSecrets(s.ToDict())
}

// decodeSection decodes the map found at a dotted key into out via
// mapstructure, leaving out at its zero value when the key is absent.
func (s *Settings) decodeSection(dotted string, out any) error {
	s.mu.RLock()
	raw, ok := getPath(s.merged, dotted)
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// Tools decodes the "tools" settings section.
func (s *Settings) Tools() ToolsConfig {
	var cfg ToolsConfig
	_ = s.decodeSection("tools", &cfg)
	return cfg
}

// Router decodes the "router" settings section.
func (s *Settings) Router() RouterConfig {
	var cfg RouterConfig
	_ = s.decodeSection("router", &cfg)
	return cfg
}

// PlanMode decodes the "plan_mode" settings section.
func (s *Settings) PlanMode() PlanModeConfig {
	var cfg PlanModeConfig
	_ = s.decodeSection("plan_mode", &cfg)
	return cfg
}

// Mcp decodes the "mcp" settings section.
func (s *Settings) Mcp() McpConfig {
	var cfg McpConfig
	_ = s.decodeSection("mcp", &cfg)
	return cfg
}

// Hooks decodes the "hooks" settings section.
func (s *Settings) Hooks() HooksConfig {
	var cfg HooksConfig
	_ = s.decodeSection("hooks", &cfg)
	return cfg
}

// Memory decodes the "memory" settings section.
func (s *Settings) Memory() MemoryConfig {
	var cfg MemoryConfig
	_ = s.decodeSection("memory", &cfg)
	return cfg
}

// UI decodes the "ui" settings section.
func (s *Settings) UI() UIConfig {
	var cfg UIConfig
	_ = s.decodeSection("ui", &cfg)
	return cfg
}

// LLM decodes the "llm" settings section.
func (s *Settings) LLM() LLMConfig {
	var cfg LLMConfig
	_ = s.decodeSection("llm", &cfg)
	return cfg
}

// EffectiveAgentConfig decodes "agents.<name>" into an AgentOverride with
// all fields resolved (nil pointer fields mean "inherit").
func (s *Settings) EffectiveAgentConfig(name string) AgentOverride {
	var cfg AgentOverride
	_ = s.decodeSection("agents."+name, &cfg)
	return cfg
}

// EffectiveToolList applies global and per-agent allow/deny glob filters
// to base, in the order P4 specifies.
func (s *Settings) EffectiveToolList(agent string, base []string) []string {
	tools := s.Tools()
	override := s.EffectiveAgentConfig(agent)
	return EffectiveToolList(base, tools.Allow, tools.Deny, override.ToolsAllow, override.ToolsDeny)
}

// IsDestructiveAutoApproved reports whether auto_approve_destructive is set
// and cwd resolves under one of the configured trusted directories.
func (s *Settings) IsDestructiveAutoApproved(cwd string) bool {
	tools := s.Tools()
	if !tools.AutoApproveDestructive {
		return false
	}
	resolved, err := filepath.Abs(cwd)
	if err != nil {
		return false
	}
	for _, trusted := range tools.TrustedDirectories {
		trustedAbs, err := filepath.Abs(trusted)
		if err != nil {
			continue
		}
		if resolved == trustedAbs || strings.HasPrefix(resolved, trustedAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
