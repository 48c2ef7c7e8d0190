package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeUserAndProject(t *testing.T, home, project string, userJSON, projectJSON string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".bmo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, userSettingsRelPath), []byte(userJSON), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(project, projectSettingsSubdir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, projectSettingsSubdir, projectSettingsRelName), []byte(projectJSON), 0o644))
}

func TestDeepMerge_ListsAndScalarsReplaceDictsMerge(t *testing.T) {
	a := map[string]any{
		"tools": map[string]any{
			"allow": []any{"read_file"},
			"deny":  []any{"rm"},
		},
		"keep": "a",
	}
	b := map[string]any{
		"tools": map[string]any{
			"allow": []any{"write_file"},
		},
	}
	merged := deepMerge(a, b)
	toolsMap := merged["tools"].(map[string]any)
	require.Equal(t, []any{"write_file"}, toolsMap["allow"], "lists replace wholesale")
	require.Equal(t, []any{"rm"}, toolsMap["deny"], "untouched scalar/list survives the merge")
	require.Equal(t, "a", merged["keep"])
}

func TestDeepMerge_AssociativeAcrossSequentialMerges(t *testing.T) {
	a := map[string]any{"x": map[string]any{"v": 1}}
	b := map[string]any{"x": map[string]any{"w": 2}}
	c := map[string]any{"x": map[string]any{"v": 3}}

	sequential := deepMerge(deepMerge(a, b), c)
	all := mergeAll(a, b, c)
	require.Equal(t, sequential, all)
}

func TestSettings_PrecedenceLastFileWins(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	writeUserAndProject(t, home, project,
		`{"agents": {"code": {"temperature": 0.5}}}`,
		`{"agents": {"code": {"temperature": 0.9}}}`,
	)
	t.Setenv("HOME", home)

	s, err := Load(project)
	require.NoError(t, err)
	cfg := s.EffectiveAgentConfig("code")
	require.NotNil(t, cfg.Temperature)
	require.Equal(t, 0.9, *cfg.Temperature, "project file is discovered after user file and should win")
}

func TestSettings_GetFallsBackToDefault(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)

	s, err := Load(project)
	require.NoError(t, err)
	require.Equal(t, "conversation", s.Get("router.default_agent", "fallback"))
	require.Equal(t, "fallback", s.Get("nonexistent.key", "fallback"))
}

func TestSettings_RedactionOnlyTouchesSecretLeaves(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	writeUserAndProject(t, home, project,
		`{"llm": {"api_key": "sk-12345", "base_url": "http://x"}, "mcp": {"servers": {"gh": {"maps_api_key": "z"}}}}`,
		`{}`,
	)
	t.Setenv("HOME", home)

	s, err := Load(project)
	require.NoError(t, err)
	redacted := s.ToDictRedacted()
	llm := redacted["llm"].(map[string]any)
	require.Equal(t, "***", llm["api_key"])
	require.Equal(t, "http://x", llm["base_url"], "non-secret leaf untouched")
}

func TestEffectiveToolList_EmptyAllowMeansNoRestriction(t *testing.T) {
	base := []string{"read_file", "write_file", "execute_command"}
	got := EffectiveToolList(base, nil, []string{"execute_command"}, nil, nil)
	require.ElementsMatch(t, []string{"read_file", "write_file"}, got)
}

func TestEffectiveToolList_AllowIntersectsThenDenySubtracts(t *testing.T) {
	base := []string{"read_file", "write_file", "execute_command", "grep_files"}
	got := EffectiveToolList(base,
		[]string{"read_file", "write_file", "grep_files"}, // global allow
		[]string{"write_file"},                            // global deny
		[]string{"*"},                                     // agent allow (no restriction)
		nil,                                                // agent deny
	)
	require.ElementsMatch(t, []string{"read_file", "grep_files"}, got)
}

func TestSettings_DestructiveAutoApproveRequiresTrustedDir(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	writeUserAndProject(t, home, project,
		`{}`,
		`{"tools": {"auto_approve_destructive": true, "trusted_directories": ["`+project+`"]}}`,
	)
	t.Setenv("HOME", home)

	s, err := Load(project)
	require.NoError(t, err)
	require.True(t, s.IsDestructiveAutoApproved(project))
	require.False(t, s.IsDestructiveAutoApproved(t.TempDir()))
}
