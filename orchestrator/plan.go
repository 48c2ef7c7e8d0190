package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kadirpekel/bmo/agent"
)

// PlanStep is one parsed line of the "Plan" scratchpad section (spec
// §4.K): a numbered, checkbox-prefixed step with an optional assigned
// agent.
type PlanStep struct {
	Number      int
	Status      byte // ' ' pending, '~' in progress, 'x' done, '!' failed
	Description string
	Agent       string
}

// planStepPattern matches "N. [ ] description (agent: name)", the agent
// tag optional. Description is captured non-greedily so the optional
// trailing "(agent: ...)" group, when present, isn't swallowed.
var planStepPattern = regexp.MustCompile(`(?m)^(\d+)\.\s*\[([ x~!])\]\s*(.+?)(?:\s*\(agent:\s*(\w+)\))?\s*$`)

// ParsePlanSteps extracts every step line from planText, defaulting an
// untagged step to the "code" agent (spec §4.K).
func ParsePlanSteps(planText string) []PlanStep {
	matches := planStepPattern.FindAllStringSubmatch(planText, -1)
	steps := make([]PlanStep, 0, len(matches))
	for _, m := range matches {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		agentName := m[4]
		if agentName == "" {
			agentName = "code"
		}
		steps = append(steps, PlanStep{
			Number:      num,
			Status:      m[2][0],
			Description: strings.TrimSpace(m[3]),
			Agent:       agentName,
		})
	}
	return steps
}

// RenderPlanSteps renders steps back to the canonical "N. [x] desc (agent:
// name)" form parse_plan_steps round-trips on (spec §4.K, P7).
func RenderPlanSteps(steps []PlanStep) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = fmt.Sprintf("%d. [%c] %s (agent: %s)", s.Number, s.Status, s.Description, s.Agent)
	}
	return "### Steps\n" + strings.Join(lines, "\n")
}

var planLinePattern = regexp.MustCompile(`(?m)^(\d+)\.\s*\[([ x~!])\](.*)$`)

// UpdatePlanStep rewrites just the checkbox of stepNumber in place (P8):
// every other line of the Plan section, including the step's own trailing
// text, is left byte-identical.
func (o *Orchestrator) UpdatePlanStep(stepNumber int, status byte) {
	current := o.scratchpad.Read("Plan")
	updated := updatePlanStepText(current, stepNumber, status)
	o.scratchpad.Write("Plan", updated, false)
}

func updatePlanStepText(text string, stepNumber int, status byte) string {
	return planLinePattern.ReplaceAllStringFunc(text, func(line string) string {
		m := planLinePattern.FindStringSubmatch(line)
		num, err := strconv.Atoi(m[1])
		if err != nil || num != stepNumber {
			return line
		}
		return fmt.Sprintf("%s. [%c]%s", m[1], status, m[3])
	})
}

var planAffirmative = map[string]bool{
	"yes": true, "y": true, "approve": true, "approved": true,
	"do it": true, "go ahead": true, "proceed": true, "looks good": true,
}

var planNegative = map[string]bool{
	"no": true, "n": true, "cancel": true, "abort": true, "stop": true,
}

func classifyPlanReply(message string) (affirmative, negative bool) {
	norm := strings.ToLower(strings.TrimSpace(message))
	return planAffirmative[norm], planNegative[norm]
}

// withEmotion prefixes text with an in-band "[EMOTION:...]" tag and
// returns the matching Tags map (spec §3 AgentResult.Tags, "mapping of UI
// cues"), mirroring the personality layer every canned plan-mode message
// carries in the original (BMO-setup/pi/agents/orchestrator.py:174,207,
// 242,304,312,338).
func withEmotion(emotion, text string) (string, map[string]string) {
	return fmt.Sprintf("[EMOTION:%s] %s", emotion, text), map[string]string{"emotion": emotion}
}

// enterPlanMode transitions NORMAL -> PLAN_EXPLORE -> PLAN_DESIGN ->
// PLAN_REVIEW, running the Plan agent's explore and design phases in
// sequence before handing the rendered plan back for user review (spec
// §4.K).
func (o *Orchestrator) enterPlanMode(ctx context.Context, task string) (HandleResult, error) {
	o.scratchpad.Clear("Plan")
	o.scratchpad.Clear("Exploration")
	o.mu.Lock()
	o.planTask = task
	o.mu.Unlock()

	o.setMode(ModePlanExplore)
	o.events.Emit("plan_mode_entered", map[string]any{"task": task})

	if _, err := o.RunAgent(ctx, "plan", task, nil, &agent.PlanContext{Phase: "explore"}); err != nil {
		o.setMode(ModeNormal)
		return HandleResult{Text: fmt.Sprintf("BMO had a problem exploring: %v", err)}, nil
	}

	o.setMode(ModePlanDesign)
	designResult, err := o.RunAgent(ctx, "plan", task, nil, &agent.PlanContext{Phase: "design"})
	if err != nil {
		o.setMode(ModeNormal)
		return HandleResult{Text: fmt.Sprintf("BMO had a problem designing a plan: %v", err)}, nil
	}

	o.setMode(ModePlanReview)
	plan := o.scratchpad.Read("Plan")
	o.events.Emit("plan_mode_review", map[string]any{"plan": plan, "task": task})

	body := fmt.Sprintf(
		"BMO is going to think this out!\n\n%s\n\nShould BMO proceed with this plan? Say **yes** to approve, **no** to cancel, or tell BMO what to change.",
		plan,
	)
	reviewText, tags := withEmotion("calm", body)
	if plan == "" {
		reviewText = designResult.Text + "\n\nShould BMO proceed?"
	}

	return HandleResult{Text: reviewText, Tags: tags, AgentUsed: "plan"}, nil
}

// handlePlanReview handles a user reply while in PLAN_REVIEW: approve
// (explicit "yes" or auto_approve_plans), reject, or anything else is
// feedback that sends the plan back through the Plan agent's redesign
// phase (spec §4.K).
func (o *Orchestrator) handlePlanReview(ctx context.Context, message string) (HandleResult, error) {
	affirmative, negative := classifyPlanReply(message)
	autoApprove := o.settings.PlanMode().AutoApprovePlans

	switch {
	case affirmative || autoApprove:
		o.setMode(ModeExecuting)
		o.events.Emit("plan_mode_executing", map[string]any{"task": o.planTask})
		return o.runExecutionLoop(ctx)

	case negative:
		o.setMode(ModeNormal)
		o.events.Emit("plan_mode_exited", map[string]any{"reason": "cancelled"})
		text, tags := withEmotion("calm", "Okay, BMO cancelled the plan!")
		return HandleResult{Text: text, Tags: tags, AgentUsed: "plan"}, nil

	default:
		o.setMode(ModePlanDesign)
		redesign, err := o.RunAgent(ctx, "plan", o.planTask, nil, &agent.PlanContext{Phase: "redesign", Feedback: message})
		o.setMode(ModePlanReview)
		if err != nil {
			return HandleResult{Text: fmt.Sprintf("BMO had a problem revising the plan: %v", err)}, nil
		}
		o.events.Emit("plan_mode_review", map[string]any{"plan": o.scratchpad.Read("Plan"), "task": o.planTask})
		return HandleResult{Text: redesign.Text, AgentUsed: "plan"}, nil
	}
}

// handlePlanExecution handles a user reply while in EXECUTING, which only
// happens after a step has failed and is awaiting retry/skip/abort (spec
// §4.K). Anything else is treated as a fresh message and re-dispatched
// through normal routing.
func (o *Orchestrator) handlePlanExecution(ctx context.Context, message string) (HandleResult, error) {
	norm := strings.ToLower(strings.TrimSpace(message))
	switch norm {
	case "retry", "try again":
		return o.retryFailedStep(ctx)
	case "skip", "next":
		return o.skipFailedStepAndContinue(ctx)
	case "abort", "stop", "cancel":
		o.setMode(ModeNormal)
		o.events.Emit("plan_mode_exited", map[string]any{"reason": "aborted"})
		text, tags := withEmotion("calm", "BMO stopped the plan.")
		return HandleResult{Text: text, Tags: tags, AgentUsed: "plan"}, nil
	default:
		o.setMode(ModeNormal)
		return o.Handle(ctx, message, "", nil)
	}
}

func indexOfStatus(steps []PlanStep, status byte) int {
	for i, s := range steps {
		if s.Status == status {
			return i
		}
	}
	return -1
}

func (o *Orchestrator) retryFailedStep(ctx context.Context) (HandleResult, error) {
	steps := ParsePlanSteps(o.scratchpad.Read("Plan"))
	idx := indexOfStatus(steps, '!')
	if idx < 0 {
		o.setMode(ModeNormal)
		return HandleResult{Text: "There's no failed step to retry."}, nil
	}
	o.UpdatePlanStep(steps[idx].Number, ' ')
	return o.runExecutionLoop(ctx)
}

func (o *Orchestrator) skipFailedStepAndContinue(ctx context.Context) (HandleResult, error) {
	steps := ParsePlanSteps(o.scratchpad.Read("Plan"))
	idx := indexOfStatus(steps, '!')
	if idx < 0 {
		o.setMode(ModeNormal)
		return HandleResult{Text: "There's no failed step to skip."}, nil
	}
	o.UpdatePlanStep(steps[idx].Number, 'x')
	return o.runExecutionLoop(ctx)
}

// runExecutionLoop runs every non-done step of the current Plan section in
// ascending order (spec §4.K): it marks a step in-progress, runs it
// through its assigned agent, and marks it done or failed. A failure stops
// the loop and leaves the orchestrator in EXECUTING, waiting for
// retry/skip/abort.
func (o *Orchestrator) runExecutionLoop(ctx context.Context) (HandleResult, error) {
	steps := ParsePlanSteps(o.scratchpad.Read("Plan"))
	if len(steps) == 0 {
		o.setMode(ModeNormal)
		o.events.Emit("plan_mode_exited", map[string]any{"reason": "no_steps"})
		text, tags := withEmotion("sad", "Hmm, BMO couldn't find any steps in the plan...")
		return HandleResult{Text: text, Tags: tags, AgentUsed: "plan"}, nil
	}

	if max := o.settings.PlanMode().MaxPlanSteps; max > 0 && len(steps) > max {
		steps = steps[:max]
	}
	total := len(steps)

	for _, step := range steps {
		if step.Status == 'x' {
			continue
		}

		o.UpdatePlanStep(step.Number, '~')
		o.events.Emit("plan_step_start", map[string]any{"step": step.Number, "total": total, "description": step.Description, "agent": step.Agent})

		result, err := o.RunAgent(ctx, step.Agent, step.Description, nil, &agent.PlanContext{PlanStep: step.Number, PlanTotal: total})
		if err != nil || looksLikeFailure(result.Text) {
			o.UpdatePlanStep(step.Number, '!')
			reason := result.Text
			if err != nil {
				reason = err.Error()
			}
			o.events.Emit("plan_step_failed", map[string]any{"step": step.Number, "total": total, "reason": reason})
			text, tags := withEmotion("sad", fmt.Sprintf("Hmm, BMO hit a problem on step %d...\n\nStep %d (%s) failed: %s\n\nSay 'retry' to try again, 'skip' to move on, or 'abort' to cancel the plan.", step.Number, step.Number, step.Description, reason))
			return HandleResult{Text: text, Tags: tags, AgentUsed: "plan"}, nil
		}

		o.UpdatePlanStep(step.Number, 'x')
		o.events.Emit("plan_step_done", map[string]any{"step": step.Number, "total": total})
	}

	o.setMode(ModeNormal)
	o.events.Emit("plan_mode_exited", map[string]any{"reason": "completed"})
	text, tags := withEmotion("excited", fmt.Sprintf("BMO finished the plan! %d/%d steps done.", total, total))
	return HandleResult{Text: text, Tags: tags, AgentUsed: "plan"}, nil
}

// looksLikeFailure is the heuristic spec §4.K describes for detecting a
// failed step from an agent's free-text reply: a substring match on the
// two words agents use to report a problem.
func looksLikeFailure(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "error") || strings.Contains(lower, "failed")
}
