package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kadirpekel/bmo/agent"
	"github.com/kadirpekel/bmo/llm"
	"github.com/kadirpekel/bmo/mcp"
	"github.com/kadirpekel/bmo/router"
	"github.com/kadirpekel/bmo/scratchpad"
	"github.com/kadirpekel/bmo/settings"
	"github.com/stretchr/testify/require"
)

// fakeRunner is a scriptable agent.Runner for orchestrator tests, avoiding
// the need to wire a full agent.Agent + Deps per test.
type fakeRunner struct {
	cfg agent.Config
	run func(ctx context.Context, message string, pctx *agent.PlanContext) (agent.Result, error)
}

func (f *fakeRunner) Config() agent.Config     { return f.cfg }
func (f *fakeRunner) SetConfig(c agent.Config) { f.cfg = c }
func (f *fakeRunner) Run(ctx context.Context, message string, history []llm.Message, pctx *agent.PlanContext) (agent.Result, error) {
	return f.run(ctx, message, pctx)
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Emit(name string, payload map[string]any) {
	r.events = append(r.events, Event{Name: name, Payload: payload})
}

func (r *recordingSink) names() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *recordingSink) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".bmo"), 0o755))
	s, err := settings.Load(t.TempDir())
	require.NoError(t, err)

	mgr := mcp.NewManager(nil, nil, 0)
	r := router.New(s, nil, nil)
	sink := &recordingSink{}
	o := New(scratchpad.New(), mgr, s, r, sink, t.TempDir())
	return o, sink
}

func echoRunner(name string) *fakeRunner {
	return &fakeRunner{
		cfg: agent.Config{Name: name, DisplayName: name},
		run: func(ctx context.Context, message string, pctx *agent.PlanContext) (agent.Result, error) {
			return agent.Result{Text: "handled: " + message}, nil
		},
	}
}

func TestRegisterAgent_SkipsWhenDisabledBySettings(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	home, _ := os.UserHomeDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bmo", "settings.json"), []byte("agents:\n  code:\n    enabled: false\n"), 0o644))

	s, err := settings.Load(o.cwd)
	require.NoError(t, err)
	o.settings = s

	o.RegisterAgent(echoRunner("code"))
	require.Empty(t, o.Agents())
}

func TestHandle_RoutesToAgentAndReturnsResult(t *testing.T) {
	o, sink := newTestOrchestrator(t)
	o.RegisterAgent(echoRunner("conversation"))

	result, err := o.Handle(context.Background(), "hello there", "user", nil)
	require.NoError(t, err)
	require.Equal(t, "handled: hello there", result.Text)
	require.Equal(t, "conversation", result.AgentUsed)
	require.Contains(t, sink.names(), "agent_selected")
}

func TestRunAgent_UnregisteredAgentFallsBackToConversation(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.RegisterAgent(echoRunner("conversation"))

	result, err := o.RunAgent(context.Background(), "ghost", "hi", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "conversation", result.AgentName)
}

func TestRunAgent_NestingDepthGuard(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	var recurse func(ctx context.Context, message string, pctx *agent.PlanContext) (agent.Result, error)
	recurse = func(ctx context.Context, message string, pctx *agent.PlanContext) (agent.Result, error) {
		return o.RunAgent(ctx, "loop", message, nil, pctx)
	}
	o.RegisterAgent(&fakeRunner{cfg: agent.Config{Name: "loop"}, run: recurse})

	_, err := o.RunAgent(context.Background(), "loop", "go", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nesting depth")
}

func TestEnterPlanMode_RunsExploreThenDesignThenReview(t *testing.T) {
	o, sink := newTestOrchestrator(t)
	var phases []string
	planRunner := &fakeRunner{
		cfg: agent.Config{Name: "plan"},
		run: func(ctx context.Context, message string, pctx *agent.PlanContext) (agent.Result, error) {
			phases = append(phases, pctx.Phase)
			if pctx.Phase == "design" {
				o.scratchpad.Write("Plan", "### Steps\n1. [ ] do the thing (agent: code)", false)
				return agent.Result{Text: "### Steps\n1. [ ] do the thing (agent: code)"}, nil
			}
			return agent.Result{Text: "explored"}, nil
		},
	}
	o.RegisterAgent(planRunner)
	o.RegisterAgent(echoRunner("conversation"))

	result, err := o.Handle(context.Background(), "!plan build a widget", "user", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"explore", "design"}, phases)
	require.Equal(t, ModePlanReview, o.mode)
	require.Contains(t, result.Text, "### Steps")
	require.Contains(t, sink.names(), "plan_mode_entered")
	require.Contains(t, sink.names(), "plan_mode_review")
}

func TestPlanReview_ApprovalRunsExecutionLoop(t *testing.T) {
	o, sink := newTestOrchestrator(t)
	o.scratchpad.Write("Plan", "### Steps\n1. [ ] write code (agent: code)", false)
	o.setMode(ModePlanReview)
	o.RegisterAgent(echoRunner("code"))

	result, err := o.Handle(context.Background(), "yes", "user", nil)
	require.NoError(t, err)
	require.Equal(t, ModeNormal, o.mode)
	require.Contains(t, result.Text, "finished the plan")
	require.Contains(t, sink.names(), "plan_mode_executing")
	require.Contains(t, sink.names(), "plan_step_done")
	require.Contains(t, sink.names(), "plan_mode_exited")
}

func TestPlanReview_RejectionCancelsPlan(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.scratchpad.Write("Plan", "### Steps\n1. [ ] write code (agent: code)", false)
	o.setMode(ModePlanReview)

	result, err := o.Handle(context.Background(), "no", "user", nil)
	require.NoError(t, err)
	require.Equal(t, ModeNormal, o.mode)
	require.Contains(t, result.Text, "cancelled")
}

func TestPlanReview_FeedbackTriggersRedesign(t *testing.T) {
	o, sink := newTestOrchestrator(t)
	o.scratchpad.Write("Plan", "### Steps\n1. [ ] old step (agent: code)", false)
	o.setMode(ModePlanReview)
	o.RegisterAgent(&fakeRunner{
		cfg: agent.Config{Name: "plan"},
		run: func(ctx context.Context, message string, pctx *agent.PlanContext) (agent.Result, error) {
			require.Equal(t, "redesign", pctx.Phase)
			require.Equal(t, "do tests first instead", pctx.Feedback)
			o.scratchpad.Write("Plan", "### Steps\n1. [ ] write tests (agent: code)", false)
			return agent.Result{Text: "revised"}, nil
		},
	})

	result, err := o.Handle(context.Background(), "do tests first instead", "user", nil)
	require.NoError(t, err)
	require.Equal(t, ModePlanReview, o.mode)
	require.Equal(t, "revised", result.Text)
	require.Contains(t, sink.names(), "plan_mode_review")
}

func TestExecutionLoop_FailureWaitsForRetry(t *testing.T) {
	o, sink := newTestOrchestrator(t)
	o.scratchpad.Write("Plan", "### Steps\n1. [ ] broken step (agent: code)\n2. [ ] second step (agent: code)", false)
	o.setMode(ModePlanReview)

	attempts := 0
	o.RegisterAgent(&fakeRunner{
		cfg: agent.Config{Name: "code"},
		run: func(ctx context.Context, message string, pctx *agent.PlanContext) (agent.Result, error) {
			attempts++
			if pctx.PlanStep == 1 && attempts == 1 {
				return agent.Result{Text: "hit an error trying that"}, nil
			}
			return agent.Result{Text: "done"}, nil
		},
	})

	result, err := o.Handle(context.Background(), "yes", "user", nil)
	require.NoError(t, err)
	require.Equal(t, ModeExecuting, o.mode)
	require.Contains(t, result.Text, "failed")
	require.Contains(t, sink.names(), "plan_step_failed")

	steps := ParsePlanSteps(o.scratchpad.Read("Plan"))
	require.Equal(t, byte('!'), steps[0].Status)

	retryResult, err := o.Handle(context.Background(), "retry", "user", nil)
	require.NoError(t, err)
	require.Equal(t, ModeNormal, o.mode)
	require.Contains(t, retryResult.Text, "finished the plan")
}

func TestExecutionLoop_SkipMarksStepDoneAndContinues(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.scratchpad.Write("Plan", "### Steps\n1. [!] broken step (agent: code)\n2. [ ] second step (agent: code)", false)
	o.setMode(ModeExecuting)
	o.RegisterAgent(echoRunner("code"))

	result, err := o.Handle(context.Background(), "skip", "user", nil)
	require.NoError(t, err)
	require.Equal(t, ModeNormal, o.mode)
	require.Contains(t, result.Text, "finished the plan")
}

func TestExecutionLoop_AbortReturnsToNormal(t *testing.T) {
	o, sink := newTestOrchestrator(t)
	o.scratchpad.Write("Plan", "### Steps\n1. [!] broken step (agent: code)", false)
	o.setMode(ModeExecuting)

	result, err := o.Handle(context.Background(), "abort", "user", nil)
	require.NoError(t, err)
	require.Equal(t, ModeNormal, o.mode)
	require.Contains(t, result.Text, "stopped")
	require.Contains(t, sink.names(), "plan_mode_exited")
}
