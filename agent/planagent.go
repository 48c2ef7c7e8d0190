package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/bmo/llm"
)

// explorePhaseMaxTurns bounds the Plan agent's explore-phase tool loop
// (spec §4.K: "bounded, e.g., 8 iterations").
const explorePhaseMaxTurns = 8

// phaseSectionTruncate is how much of the Exploration/Research sections
// the design phase includes verbatim (spec §4.K: "truncated to ~2000
// chars each").
const phaseSectionTruncate = 2000

// PlanAgent implements the three plan-mode phases (spec §4.K). It embeds
// a base Agent for prompt assembly, tool dispatch, and scratchpad/memory
// access, and replaces Run with phase dispatch keyed off
// PlanContext.Phase.
type PlanAgent struct {
	*Agent
}

// NewPlan builds the Plan agent from cfg and deps.
func NewPlan(cfg Config, deps Deps) *PlanAgent {
	return &PlanAgent{Agent: New(cfg, deps)}
}

// Run dispatches to the explore/design/redesign phase named by
// pctx.Phase, defaulting to explore when pctx is nil or unset.
func (p *PlanAgent) Run(ctx context.Context, task string, _ []llm.Message, pctx *PlanContext) (Result, error) {
	phase, feedback := "explore", ""
	if pctx != nil && pctx.Phase != "" {
		phase = pctx.Phase
		feedback = pctx.Feedback
	}

	switch phase {
	case "design":
		return p.runDesign(ctx, task)
	case "redesign":
		return p.runRedesign(ctx, task, feedback)
	default:
		return p.runExplore(ctx, task)
	}
}

// runExplore investigates read-only, bounded to explorePhaseMaxTurns
// iterations, then writes its findings to the Exploration scratchpad
// section. When the agent can nest and the task mentions research, it
// also spawns the research agent and records its output in Research.
func (p *PlanAgent) runExplore(ctx context.Context, task string) (Result, error) {
	cfg := p.Config()
	turns := cfg.MaxTurns
	if turns <= 0 || turns > explorePhaseMaxTurns {
		turns = explorePhaseMaxTurns
	}
	cfg.MaxTurns = turns
	p.SetConfig(cfg)

	result, err := p.RunWithTools(ctx, task, nil, nil)
	if err != nil {
		return result, err
	}
	p.deps.Scratchpad.Write("Exploration", result.Text, false)

	if cfg.CanNest && mentionsResearch(task) {
		if research, err := p.SpawnAgent(ctx, "research", task, nil); err == nil {
			p.deps.Scratchpad.Write("Research", research.Text, false)
		}
	}

	return result, nil
}

func mentionsResearch(task string) bool {
	lower := strings.ToLower(task)
	return strings.Contains(lower, "research") || strings.Contains(lower, "search")
}

// runDesign drafts the plan from the Exploration/Research context in a
// single LLM call and overwrites the Plan scratchpad section.
func (p *PlanAgent) runDesign(ctx context.Context, task string) (Result, error) {
	exploration := truncateSection(p.deps.Scratchpad.Read("Exploration"))
	research := truncateSection(p.deps.Scratchpad.Read("Research"))

	var b strings.Builder
	b.WriteString(p.Config().SystemPrompt)
	if exploration != "" {
		fmt.Fprintf(&b, "\n\n[Exploration]\n%s", exploration)
	}
	if research != "" {
		fmt.Fprintf(&b, "\n\n[Research]\n%s", research)
	}

	text, err := p.chatOnce(ctx, b.String(), task)
	if err != nil {
		return Result{AgentName: p.Config().Name, Text: text}, nil
	}
	p.deps.Scratchpad.Write("Plan", text, false)
	return Result{AgentName: p.Config().Name, Text: text, ScratchpadWrites: []string{"Plan"}}, nil
}

// runRedesign folds the user's feedback into the existing plan with a
// single LLM call and overwrites Plan with the result.
func (p *PlanAgent) runRedesign(ctx context.Context, task, feedback string) (Result, error) {
	current := p.deps.Scratchpad.Read("Plan")

	var b strings.Builder
	b.WriteString(p.Config().SystemPrompt)
	fmt.Fprintf(&b, "\n\n[Current Plan]\n%s\n\n[User Feedback]\n%s", current, feedback)

	text, err := p.chatOnce(ctx, b.String(), task)
	if err != nil {
		return Result{AgentName: p.Config().Name, Text: text}, nil
	}
	p.deps.Scratchpad.Write("Plan", text, false)
	return Result{AgentName: p.Config().Name, Text: text, ScratchpadWrites: []string{"Plan"}}, nil
}

func (p *PlanAgent) chatOnce(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if p.deps.Chat == nil {
		return fmt.Sprintf("BMO's %s agent had a problem: no LLM backend configured", p.Config().Name),
			fmt.Errorf("no LLM backend configured")
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userMessage},
	}
	text, err := p.deps.Chat(ctx, messages, llm.Options{Temperature: p.Config().Temperature})
	if err != nil {
		return fmt.Sprintf("%s (…error: %v…)", text, err), err
	}
	return text, nil
}

func truncateSection(s string) string {
	if len(s) <= phaseSectionTruncate {
		return s
	}
	return s[:phaseSectionTruncate] + "…"
}
