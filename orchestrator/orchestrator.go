// Package orchestrator implements the top-level state machine spec §4.J
// describes: an agent registry, the four-phase plan-mode lifecycle
// (NORMAL, PLAN_EXPLORE, PLAN_DESIGN, PLAN_REVIEW, EXECUTING), and the
// Handle entrypoint that routes an incoming message to the right agent or
// plan-mode step. It implements agent.Host so registered agents can spawn
// sub-agents and read the current mode without importing this package.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kadirpekel/bmo/agent"
	"github.com/kadirpekel/bmo/internal/registry"
	"github.com/kadirpekel/bmo/llm"
	"github.com/kadirpekel/bmo/mcp"
	"github.com/kadirpekel/bmo/router"
	"github.com/kadirpekel/bmo/scratchpad"
	"github.com/kadirpekel/bmo/settings"
)

// maxNestingDepth bounds SpawnAgent recursion (spec §4.H open question:
// "implementation may choose a bound"); eight covers any realistic plan
// fan-out without risking a runaway chain.
const maxNestingDepth = 8

// Mode is one state of the plan-mode lifecycle (spec §4.J).
type Mode string

const (
	ModeNormal      Mode = "normal"
	ModePlanExplore Mode = "plan_explore"
	ModePlanDesign  Mode = "plan_design"
	ModePlanReview  Mode = "plan_review"
	ModeExecuting   Mode = "executing"
)

// HandleResult is what Handle returns to its caller (a UI, a CLI REPL).
type HandleResult struct {
	Text             string
	CommandsExecuted []agent.CommandRecord
	Tags             map[string]string
	AgentUsed        string
}

// Orchestrator owns the agent registry and the plan-mode state machine.
// mu guards mode, planTask and nesting for each individual read or write;
// it is not held across a Handle call, so concurrent Handle calls on the
// same instance are not serialized against each other.
type Orchestrator struct {
	mu       sync.Mutex
	mode     Mode
	planTask string
	nesting  int

	scratchpad *scratchpad.Scratchpad
	agents     *registry.Base[agent.Runner]
	mcpManager *mcp.Manager
	settings   *settings.Settings
	router     *router.Router
	events     EventSink
	cwd        string
}

// New builds an Orchestrator in ModeNormal. events may be nil, in which
// case emitted events are simply discarded.
func New(sp *scratchpad.Scratchpad, mgr *mcp.Manager, st *settings.Settings, r *router.Router, events EventSink, cwd string) *Orchestrator {
	if events == nil {
		events = noopSink{}
	}
	return &Orchestrator{
		mode:       ModeNormal,
		scratchpad: sp,
		agents:     registry.New[agent.Runner](),
		mcpManager: mgr,
		settings:   st,
		router:     r,
		events:     events,
		cwd:        cwd,
	}
}

// Mode satisfies agent.Host: agents consult this to restrict their tool
// catalogue to read-only tools during exploration/design (spec §4.H, P6).
func (o *Orchestrator) Mode() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return string(o.mode)
}

func (o *Orchestrator) setMode(m Mode) {
	o.mu.Lock()
	o.mode = m
	o.mu.Unlock()
}

// EmitNesting satisfies agent.Host: fires the agent_nesting event (spec
// §4.J) whenever an agent spawns a sub-agent.
func (o *Orchestrator) EmitNesting(parent, child, task string) {
	o.events.Emit("agent_nesting", map[string]any{"parent": parent, "child": child, "task": task})
}

// RegisterAgent adds r to the registry under its configured name, first
// applying any "agents.<name>" Settings override (spec §4.J): enabled,
// temperature, max_turns, can_nest. An agent explicitly disabled via
// settings is skipped rather than registered.
func (o *Orchestrator) RegisterAgent(r agent.Runner) {
	cfg := r.Config()
	override := o.settings.EffectiveAgentConfig(cfg.Name)
	if override.Enabled != nil && !*override.Enabled {
		slog.Info("agent disabled by settings, skipping registration", "agent", cfg.Name)
		return
	}
	if override.Temperature != nil {
		cfg.Temperature = *override.Temperature
	}
	if override.MaxTurns != nil {
		cfg.MaxTurns = *override.MaxTurns
	}
	if override.CanNest != nil {
		cfg.CanNest = *override.CanNest
	}
	r.SetConfig(cfg)

	if err := o.agents.Register(cfg.Name, r); err != nil {
		slog.Error("failed to register agent", "agent", cfg.Name, "error", err)
	}
}

// Agents returns the names of every registered agent, sorted.
func (o *Orchestrator) Agents() []string {
	return o.agents.Names()
}

func (o *Orchestrator) displayName(name string) string {
	if r, ok := o.agents.Get(name); ok {
		return r.Config().DisplayName
	}
	return name
}

// RunAgent satisfies agent.Host and is the single entrypoint every agent
// invocation -- top-level or nested via SpawnAgent -- runs through. It
// falls back to the "conversation" agent when name is unregistered and
// enforces the nesting-depth guard spec §4.H defers to the orchestrator.
func (o *Orchestrator) RunAgent(ctx context.Context, name, message string, history []llm.Message, pctx *agent.PlanContext) (agent.Result, error) {
	r, ok := o.agents.Get(name)
	if !ok {
		r, ok = o.agents.Get("conversation")
		if !ok {
			return agent.Result{}, fmt.Errorf("agent %q is not registered and no conversation fallback exists", name)
		}
		name = "conversation"
	}

	o.mu.Lock()
	o.nesting++
	depth := o.nesting
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.nesting--
		o.mu.Unlock()
	}()
	if depth > maxNestingDepth {
		return agent.Result{}, fmt.Errorf("sub-agent nesting depth exceeded (max %d)", maxNestingDepth)
	}

	result, err := r.Run(ctx, message, history, pctx)
	if err != nil {
		return result, err
	}
	result.AgentName = r.Config().Name
	return result, nil
}

// Handle is the top-level entrypoint (spec §4.J): it dispatches on the
// current mode, then -- in NORMAL mode -- routes the message to an agent
// (or enters plan mode when the Plan agent is selected).
func (o *Orchestrator) Handle(ctx context.Context, message, speaker string, history []llm.Message) (HandleResult, error) {
	o.mu.Lock()
	mode := o.mode
	o.mu.Unlock()

	switch mode {
	case ModePlanReview:
		return o.handlePlanReview(ctx, message)
	case ModeExecuting:
		return o.handlePlanExecution(ctx, message)
	}

	clean := o.router.StripPrefix(message)
	agentName := o.router.Route(ctx, message)
	o.events.Emit("agent_selected", map[string]any{"agent": agentName, "display_name": o.displayName(agentName), "speaker": speaker})

	if agentName == "plan" {
		return o.enterPlanMode(ctx, clean)
	}

	result, err := o.RunAgent(ctx, agentName, clean, history, nil)
	if err != nil {
		return HandleResult{Text: fmt.Sprintf("BMO ran into a problem: %v", err), AgentUsed: agentName}, nil
	}
	return toHandleResult(result), nil
}

func toHandleResult(r agent.Result) HandleResult {
	return HandleResult{Text: r.Text, CommandsExecuted: r.Commands, Tags: r.Tags, AgentUsed: r.AgentName}
}
