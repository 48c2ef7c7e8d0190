// Package agent implements the agent contract (spec §4.H): an AgentConfig
// plus references to the shared scratchpad, memory, tools, and MCP layers
// that turns a message into an AgentResult -- prompt assembly, the tool-call
// loop, destructive-op confirmation replay, and sub-agent nesting.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kadirpekel/bmo/hooks"
	"github.com/kadirpekel/bmo/llm"
	"github.com/kadirpekel/bmo/mcp"
	"github.com/kadirpekel/bmo/memory"
	"github.com/kadirpekel/bmo/project"
	"github.com/kadirpekel/bmo/scratchpad"
	"github.com/kadirpekel/bmo/settings"
	"github.com/kadirpekel/bmo/tools"
)

// historyWindow is how many trailing history messages the default Run
// includes in its single LLM call (spec §4.H).
const historyWindow = 20

// Config is the immutable-once-registered value type spec §3 describes.
// It may be mutated by Settings overrides at registration time (see
// Orchestrator.RegisterAgent in the orchestrator package) but never after.
type Config struct {
	Name         string
	DisplayName  string
	SystemPrompt string
	Temperature  float64
	Tools        []string
	Services     []string
	MaxTurns     int
	CanNest      bool
}

// CommandRecord is one side-effect command an agent ran, surfaced to the
// caller for UI display.
type CommandRecord struct {
	Tool   string
	Args   map[string]any
	Output string
}

// Result is the value type spec §3 describes: the outcome of one agent
// invocation.
type Result struct {
	Text             string
	Commands         []CommandRecord
	Tags             map[string]string
	AgentName        string
	NestedResults    []Result
	ScratchpadWrites []string
}

// PlanContext carries the plan-mode details §4.H's prompt assembly and
// tool-availability rules key off: the current plan step (for execution),
// the phase keyword (for the Plan agent), and whether a tool catalogue
// must be injected into the prompt.
type PlanContext struct {
	PlanStep         int
	PlanTotal        int
	ToolListRequired bool
	Phase            string // explore | design | redesign, Plan agent only
	Feedback         string // redesign phase only
}

// Host is the subset of orchestrator behavior an Agent needs: the
// read-only plan-mode indicator that restricts tool availability (§4.H)
// and the ability to run another registered agent for spawn_agent (§4.H).
// Agent holds this as a back-reference only; it never mutates the host.
type Host interface {
	Mode() string
	RunAgent(ctx context.Context, name, message string, history []llm.Message, pctx *PlanContext) (Result, error)
	EmitNesting(parent, child, task string)
}

// Deps bundles every shared collaborator an Agent needs. Agents never own
// these -- they're injected so the orchestrator can share one scratchpad,
// memory store, tool dispatcher, and MCP manager across the whole registry.
type Deps struct {
	Chat       llm.ChatFunc
	Scratchpad *scratchpad.Scratchpad
	Memory     *memory.Store
	Tools      *tools.Dispatcher
	Mcp        *mcp.Manager
	Settings   *settings.Settings
	Cwd        string
	Host       Host
}

// Agent is one registered sub-agent: config plus shared dependencies.
// Agent itself is safe for concurrent Run calls except for its own pending
// confirmation bookkeeping, which is serialized by mu. Nesting depth is
// tracked by the orchestrator, not here.
type Agent struct {
	config Config
	deps   Deps

	mu      sync.Mutex
	pending []pendingConfirmation
}

// New builds an Agent from cfg and deps. cfg is copied so later mutation
// of the caller's value (e.g. during registration overrides) doesn't leak
// into an already-built Agent; callers should finish applying overrides
// before calling New.
func New(cfg Config, deps Deps) *Agent {
	return &Agent{config: cfg, deps: deps}
}

// Config returns the agent's current configuration.
func (a *Agent) Config() Config { return a.config }

// SetConfig replaces the agent's configuration. Used only by the
// orchestrator at registration time to apply Settings overrides (spec
// §4.J); never called after registration completes.
func (a *Agent) SetConfig(cfg Config) { a.config = cfg }

// cwd resolves the working directory scratchpad/tool dispatch operates
// against, defaulting to ".".
func (a *Agent) cwd() string {
	if a.deps.Cwd != "" {
		return a.deps.Cwd
	}
	return "."
}

// BuildSystemPrompt assembles the agent's system prompt per spec §4.H:
// base prompt + settings append, scratchpad summary, memory, BMO.md,
// plan-step context, and (if requested) the tool catalogue.
func (a *Agent) BuildSystemPrompt(pctx *PlanContext) string {
	var b strings.Builder
	b.WriteString(a.config.SystemPrompt)

	if append := a.deps.Settings.EffectiveAgentConfig(a.config.Name).SystemPromptAppend; append != "" {
		b.WriteString("\n\n")
		b.WriteString(append)
	}

	if summary := a.deps.Scratchpad.Summary(); summary != "" {
		fmt.Fprintf(&b, "\n\n[Scratchpad Context]\n%s", summary)
	}

	memCfg := a.deps.Settings.Memory()
	if memCfg.Enabled && a.deps.Memory != nil {
		if content, err := a.deps.Memory.Load(a.cwd(), memCfg.MaxLinesLoaded); err == nil && content != "" {
			fmt.Fprintf(&b, "\n\n[Auto-Memory]\n%s\n\nSave only stable, durable facts worth remembering across sessions -- not ephemeral conversation detail.", content)
		}
	}

	if bmo, err := project.LoadBmoMd(a.cwd()); err == nil && bmo != "" {
		fmt.Fprintf(&b, "\n\n%s", bmo)
	}

	if pctx != nil && pctx.PlanStep > 0 {
		fmt.Fprintf(&b, "\n\n[Plan Step %d/%d]\n%s", pctx.PlanStep, pctx.PlanTotal, a.deps.Scratchpad.Read("Plan"))
	}

	if pctx != nil && pctx.ToolListRequired {
		fmt.Fprintf(&b, "\n\n%s", a.GetToolDescriptions())
	}

	return b.String()
}

// GetAvailableTools returns the tool names this agent may currently
// dispatch: its configured base set, intersected with the read-only
// subset during plan exploration/design (P6), plus permitted MCP tools
// (also read-only-restricted in plan mode), finally filtered through
// Settings.EffectiveToolList (P4).
func (a *Agent) GetAvailableTools() []string {
	base := append([]string(nil), a.config.Tools...)
	inPlanMode := a.inReadOnlyMode()

	if inPlanMode {
		base = substituteGitReadonly(base)
		base = intersectNames(base, a.deps.Tools.ReadOnlyNames())
	}

	for _, t := range a.deps.Mcp.GetToolsForAgent(a.config.Name) {
		base = append(base, t.Namespaced)
	}
	if inPlanMode {
		readonlyMcp := make(map[string]bool)
		for _, t := range a.deps.Mcp.GetReadonlyTools() {
			readonlyMcp[t.Namespaced] = true
		}
		filtered := base[:0:0]
		for _, name := range base {
			if !strings.HasPrefix(name, "mcp__") || readonlyMcp[name] {
				filtered = append(filtered, name)
			}
		}
		base = filtered
	}

	return a.deps.Settings.EffectiveToolList(a.config.Name, base)
}

func (a *Agent) inReadOnlyMode() bool {
	if a.deps.Host == nil {
		return false
	}
	mode := a.deps.Host.Mode()
	return mode == "plan_explore" || mode == "plan_design"
}

// substituteGitReadonly swaps a configured "git_command" for its read-only
// view when building the plan-mode tool set (spec §4.E): an agent granted
// git_command keeps read-only git access during exploration/design instead
// of losing git entirely.
func substituteGitReadonly(names []string) []string {
	out := make([]string, 0, len(names)+1)
	for _, n := range names {
		out = append(out, n)
		if n == "git_command" {
			out = append(out, "git_command_readonly")
		}
	}
	return out
}

func intersectNames(names, allowed []string) []string {
	set := make(map[string]bool, len(allowed))
	for _, n := range allowed {
		set[n] = true
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if set[n] {
			out = append(out, n)
		}
	}
	return out
}

// GetToolDescriptions renders one line per available tool, built-in and
// MCP tools together in a single name-sorted list (spec §4.H).
func (a *Agent) GetToolDescriptions() string {
	names := a.GetAvailableTools()
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		if strings.HasPrefix(name, "mcp__") {
			for _, t := range a.deps.Mcp.GetAllTools() {
				if t.Namespaced == name {
					lines = append(lines, fmt.Sprintf("- %s(args: object) — %s", name, t.Description))
					break
				}
			}
			continue
		}
		if desc, ok := a.deps.Tools.Describe(name); ok {
			lines = append(lines, fmt.Sprintf("- %s(args: object) — %s", name, desc))
		}
	}
	return strings.Join(lines, "\n")
}

// available reports whether name is currently in the agent's tool set.
func (a *Agent) available(name string) bool {
	for _, n := range a.GetAvailableTools() {
		if n == name {
			return true
		}
	}
	return false
}

// DispatchTool runs one tool call through the hook pipeline and into
// either the MCP manager or the built-in dispatcher (spec §4.H, P5).
func (a *Agent) DispatchTool(ctx context.Context, name string, args map[string]any) map[string]any {
	effective := name
	// git_command/git_command_readonly substitution (spec §4.E, §4.H): an
	// LLM constrained to read-only tools during plan mode only sees
	// git_command_readonly in its catalogue, but may still emit a
	// "git_command" call out of habit. Redirect it rather than reject it.
	if name == "git_command" && !a.available("git_command") && a.available("git_command_readonly") {
		effective = "git_command_readonly"
	}

	if !a.available(effective) {
		return map[string]any{"error": fmt.Sprintf("Tool %s not available to %s", name, a.config.Name)}
	}

	hookCfg := a.deps.Settings.Hooks()
	pre := hooks.RunPre(ctx, toHookEntries(hookCfg.PreToolUse), effective, args, a.cwd())
	if !pre.Allowed {
		return map[string]any{
			"error":        fmt.Sprintf("Blocked by pre-hook: %s", pre.BlockedBy),
			"hook_context": pre.Context,
		}
	}
	useArgs := args
	if pre.ModifiedArgs != nil {
		useArgs = pre.ModifiedArgs
	}

	var result map[string]any
	if strings.HasPrefix(effective, "mcp__") {
		out, err := a.deps.Mcp.DispatchTool(ctx, effective, useArgs)
		if err != nil {
			result = map[string]any{"error": err.Error()}
		} else {
			result = map[string]any{"output": out.Output, "truncated": out.Truncated}
		}
	} else {
		r := a.deps.Tools.Dispatch(ctx, effective, useArgs, a.cwd())
		result = toolResultToMap(r)
	}

	result = hooks.RunPost(ctx, toHookEntries(hookCfg.PostToolUse), effective, useArgs, result, a.cwd())
	return result
}

func toHookEntries(cfg []settings.HookEntry) []hooks.Entry {
	out := make([]hooks.Entry, len(cfg))
	for i, e := range cfg {
		out[i] = hooks.Entry{Matcher: e.Matcher, Command: e.Command}
	}
	return out
}

func toolResultToMap(r tools.Result) map[string]any {
	out := map[string]any{"success": r.Success}
	if r.Content != "" {
		out["output"] = r.Content
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.NeedsConfirmation {
		out["needs_confirmation"] = true
		out["reason"] = r.ConfirmationReason
	}
	if r.Truncated {
		out["truncated"] = true
	}
	for k, v := range r.Metadata {
		out[k] = v
	}
	return out
}

// SpawnAgent delegates to the orchestrator, permitted only when
// can_nest is set (spec §4.H). The orchestrator enforces the nesting
// depth guard and emits the agent_nesting event.
func (a *Agent) SpawnAgent(ctx context.Context, name, task string, pctx *PlanContext) (Result, error) {
	if !a.config.CanNest {
		return Result{}, fmt.Errorf("agent %q cannot spawn sub-agents", a.config.Name)
	}
	if a.deps.Host == nil {
		return Result{}, fmt.Errorf("agent %q has no orchestrator host", a.config.Name)
	}
	a.deps.Host.EmitNesting(a.config.Name, name, task)
	return a.deps.Host.RunAgent(ctx, name, task, nil, pctx)
}

// Runner is the contract the orchestrator holds every registered agent
// through (spec §4.H: "the contract is that run returns an AgentResult
// with agent_name set"). Both the base Agent and the specialized Plan
// agent satisfy it.
type Runner interface {
	Run(ctx context.Context, message string, history []llm.Message, pctx *PlanContext) (Result, error)
	Config() Config
	SetConfig(Config)
}

// Run is the agent entrypoint (spec §4.H). An agent with no available
// tools makes a single LLM call with system prompt + recent history + the
// user message; an agent with tools runs the full tool-call loop
// (RunWithTools). Specialized agents (the Plan agent) override entirely.
func (a *Agent) Run(ctx context.Context, message string, history []llm.Message, pctx *PlanContext) (Result, error) {
	if len(a.GetAvailableTools()) > 0 {
		return a.RunWithTools(ctx, message, history, pctx)
	}
	return a.runSingleTurn(ctx, message, history, pctx)
}

// runSingleTurn is the tool-free fallback: one LLM call, no loop.
func (a *Agent) runSingleTurn(ctx context.Context, message string, history []llm.Message, pctx *PlanContext) (Result, error) {
	if a.deps.Chat == nil {
		return Result{AgentName: a.config.Name, Text: fmt.Sprintf("BMO's %s agent had a problem: no LLM backend configured", a.config.Name)}, nil
	}

	messages := a.buildMessages(pctx, history, message)
	opts := llm.Options{Temperature: a.config.Temperature}
	text, err := a.deps.Chat(ctx, messages, opts)
	if err != nil {
		return Result{AgentName: a.config.Name, Text: fmt.Sprintf("%s (…error: %v…)", text, err)}, nil
	}
	return Result{AgentName: a.config.Name, Text: text}, nil
}

func (a *Agent) buildMessages(pctx *PlanContext, history []llm.Message, message string) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: a.BuildSystemPrompt(pctx)}}
	if n := len(history); n > 0 {
		start := 0
		if n > historyWindow {
			start = n - historyWindow
		}
		messages = append(messages, history[start:]...)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})
	return messages
}
