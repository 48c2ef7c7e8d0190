package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kadirpekel/bmo/llm"
	"github.com/kadirpekel/bmo/mcp"
	"github.com/kadirpekel/bmo/memory"
	"github.com/kadirpekel/bmo/scratchpad"
	"github.com/kadirpekel/bmo/settings"
	"github.com/kadirpekel/bmo/tools"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mode      string
	nestCalls []string
	runAgent  func(ctx context.Context, name, message string) (Result, error)
}

func (h *fakeHost) Mode() string { return h.mode }

func (h *fakeHost) RunAgent(ctx context.Context, name, message string, history []llm.Message, pctx *PlanContext) (Result, error) {
	if h.runAgent != nil {
		return h.runAgent(ctx, name, message)
	}
	return Result{AgentName: name, Text: "ok"}, nil
}

func (h *fakeHost) EmitNesting(parent, child, task string) {
	h.nestCalls = append(h.nestCalls, parent+"->"+child)
}

func newTestDeps(t *testing.T, chat llm.ChatFunc, host Host) Deps {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".bmo"), 0o755))
	s, err := settings.Load(t.TempDir())
	require.NoError(t, err)

	mem := memory.NewStore(filepath.Join(home, "memdata"))
	td := tools.New(tools.Config{Settings: s, Memory: mem})
	mgr := mcp.NewManager(nil, nil, 0)

	return Deps{
		Chat:       chat,
		Scratchpad: scratchpad.New(),
		Memory:     mem,
		Tools:      td,
		Mcp:        mgr,
		Settings:   s,
		Cwd:        t.TempDir(),
		Host:       host,
	}
}

func TestBuildSystemPrompt_IncludesScratchpadAndMemory(t *testing.T) {
	deps := newTestDeps(t, nil, nil)
	deps.Scratchpad.Write("Exploration", "found the bug", false)
	require.NoError(t, deps.Memory.UpdateSection(deps.Cwd, "Facts", "The repo uses Go."))

	a := New(Config{Name: "code", SystemPrompt: "You write code."}, deps)
	prompt := a.BuildSystemPrompt(nil)

	require.Contains(t, prompt, "You write code.")
	require.Contains(t, prompt, "[Scratchpad Context]")
	require.Contains(t, prompt, "Exploration")
	require.Contains(t, prompt, "[Auto-Memory]")
	require.Contains(t, prompt, "The repo uses Go.")
}

func TestBuildSystemPrompt_PlanStepContext(t *testing.T) {
	deps := newTestDeps(t, nil, nil)
	deps.Scratchpad.Write("Plan", "### Steps\n1. [ ] do it (agent: code)", false)
	a := New(Config{Name: "code", SystemPrompt: "base"}, deps)

	prompt := a.BuildSystemPrompt(&PlanContext{PlanStep: 2, PlanTotal: 3})
	require.Contains(t, prompt, "[Plan Step 2/3]")
	require.Contains(t, prompt, "### Steps")
}

func TestGetAvailableTools_PlanModeRestrictsToReadOnly(t *testing.T) {
	host := &fakeHost{mode: "plan_explore"}
	deps := newTestDeps(t, nil, host)
	a := New(Config{Name: "code", Tools: []string{"read_file", "execute_command", "write_file"}}, deps)

	available := a.GetAvailableTools()
	require.Contains(t, available, "read_file")
	require.NotContains(t, available, "execute_command")
	require.NotContains(t, available, "write_file")
}

func TestDispatchTool_RejectsUnavailableTool(t *testing.T) {
	deps := newTestDeps(t, nil, nil)
	a := New(Config{Name: "code", Tools: []string{"read_file"}}, deps)

	result := a.DispatchTool(context.Background(), "execute_command", map[string]any{"cmd": "ls"})
	require.Contains(t, result["error"], "not available to code")
}

func TestDispatchTool_GitCommandSubstitutedForReadonlyInPlanMode(t *testing.T) {
	host := &fakeHost{mode: "plan_design"}
	deps := newTestDeps(t, nil, host)
	a := New(Config{Name: "code", Tools: []string{"git_command"}}, deps)

	result := a.DispatchTool(context.Background(), "git_command", map[string]any{"cmd": "status"})
	require.Nil(t, result["error"])
	require.Equal(t, true, result["success"])
}

func TestRunWithTools_ParsesAndDispatchesToolCall(t *testing.T) {
	calls := 0
	chat := llm.ChatFunc(func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		calls++
		if calls == 1 {
			last := messages[len(messages)-1]
			require.Equal(t, llm.RoleUser, last.Role)
			return "Let me check.\n```tool_call\n{\"tool\":\"list_directory\",\"args\":{\"path\":\".\"}}\n```\n", nil
		}
		// second call should see the tool result injected as a system message
		found := false
		for _, m := range messages {
			if m.Role == llm.RoleSystem && strings.Contains(m.Content, "[Tool Result: list_directory]") {
				found = true
			}
		}
		require.True(t, found, "tool result must be appended before the re-query")
		return "All done, no more tools needed.", nil
	})

	deps := newTestDeps(t, chat, nil)
	a := New(Config{Name: "code", Tools: []string{"list_directory"}, MaxTurns: 5}, deps)

	result, err := a.Run(context.Background(), "what's in this dir?", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "All done, no more tools needed.", result.Text)
	require.Len(t, result.Commands, 1)
	require.Equal(t, 2, calls)
}

func TestRunWithTools_ConfirmationFlowTwoPhase(t *testing.T) {
	executed := false
	chat := llm.ChatFunc(func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		return "```tool_call\n{\"tool\":\"execute_command\",\"args\":{\"cmd\":\"rm -rf build/\"}}\n```", nil
	})
	deps := newTestDeps(t, chat, nil)
	a := New(Config{Name: "code", Tools: []string{"execute_command"}, MaxTurns: 5}, deps)

	result, err := a.Run(context.Background(), "clean the build dir", nil, nil)
	require.NoError(t, err)
	require.Contains(t, result.Text, "BMO needs your permission for:")
	require.Contains(t, result.Text, "rm -rf build/")
	require.False(t, executed)

	confirmChat := llm.ChatFunc(func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		t.Fatal("confirmation replay should not call the LLM again")
		return "", nil
	})
	a.deps.Chat = confirmChat
	final, err := a.Run(context.Background(), "yes", nil, nil)
	require.NoError(t, err)
	require.NotContains(t, final.Text, "needs your permission")
}

func TestSpawnAgent_RequiresCanNest(t *testing.T) {
	host := &fakeHost{}
	deps := newTestDeps(t, nil, host)
	a := New(Config{Name: "plan", CanNest: false}, deps)

	_, err := a.SpawnAgent(context.Background(), "research", "dig in", nil)
	require.Error(t, err)
}

func TestSpawnAgent_EmitsNestingEvent(t *testing.T) {
	host := &fakeHost{}
	deps := newTestDeps(t, nil, host)
	a := New(Config{Name: "plan", CanNest: true}, deps)

	result, err := a.SpawnAgent(context.Background(), "research", "dig in", nil)
	require.NoError(t, err)
	require.Equal(t, "research", result.AgentName)
	require.Equal(t, []string{"plan->research"}, host.nestCalls)
}

