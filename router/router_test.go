package router

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kadirpekel/bmo/llm"
	"github.com/kadirpekel/bmo/settings"
	"github.com/stretchr/testify/require"
)

func newTestSettings(t *testing.T) *settings.Settings {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".bmo"), 0o755))
	s, err := settings.Load(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestRoutePrefix_BuiltinAndTierShortCircuit(t *testing.T) {
	s := newTestSettings(t)
	llmCalled := false
	chat := llm.ChatFunc(func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		llmCalled = true
		return "conversation", nil
	})
	r := New(s, chat, map[string]string{"code": "writes and fixes code", "conversation": "general chat"})

	agent := r.Route(context.Background(), "!code please fix this")
	require.Equal(t, "code", agent)
	require.False(t, llmCalled, "tier 1 matched, tiers 2/3 must not run (P9)")
}

func TestStripPrefix(t *testing.T) {
	s := newTestSettings(t)
	r := New(s, nil, nil)
	require.Equal(t, "read_file path=README.md", r.StripPrefix("!code read_file path=README.md"))
	require.Equal(t, "hello", r.StripPrefix("hello"))
}

func TestRouteKeyword(t *testing.T) {
	s := newTestSettings(t)
	r := New(s, nil, nil)
	agent := r.Route(context.Background(), "can you help me debug this function, it has a stack trace")
	require.Equal(t, "code", agent)
}

func TestRouteFallsBackToDefaultAgent(t *testing.T) {
	s := newTestSettings(t)
	r := New(s, nil, nil)
	agent := r.Route(context.Background(), "good morning")
	require.Equal(t, "conversation", agent)
}

func TestRouteDisableTiers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".bmo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bmo", "settings.json"), []byte(`{"router":{"disable_tiers":["prefix"],"default_agent":"fallback"}}`), 0o644))
	s, err := settings.Load(t.TempDir())
	require.NoError(t, err)

	r := New(s, nil, nil)
	agent := r.Route(context.Background(), "!code do something")
	require.Equal(t, "fallback", agent, "prefix tier disabled, falls through to default")
}

func TestMergedPrefixes_CustomOverridesBuiltin(t *testing.T) {
	merged := mergedPrefixes(map[string]string{"!code": "super_code", "!zzz": "zzz_agent"})
	require.Equal(t, "super_code", merged["!code"])
	require.Equal(t, "music", merged["!music"])
	require.Equal(t, "zzz_agent", merged["!zzz"])
}
