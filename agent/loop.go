package agent

import (
	"context"
	"fmt"

	"github.com/kadirpekel/bmo/llm"
)

// defaultMaxTurns bounds the tool-call loop when an agent's config leaves
// MaxTurns unset.
const defaultMaxTurns = 10

// RunWithTools implements the agentic tool-call loop (spec §4.H): repeated
// LLM calls interleaved with tool dispatch until the model's response
// contains no more tool_call blocks, max_turns is reached, or a dispatched
// tool requires confirmation. It also handles the two-phase confirmation
// reply (P14): if a previous call left pending confirmations, message is
// interpreted as the user's yes/no/other reply instead of a fresh request.
func (a *Agent) RunWithTools(ctx context.Context, message string, history []llm.Message, pctx *PlanContext) (Result, error) {
	if resolved, handled := a.resolvePendingConfirmations(ctx, message); handled {
		return resolved, nil
	}

	if a.deps.Chat == nil {
		return Result{AgentName: a.config.Name, Text: fmt.Sprintf("BMO's %s agent had a problem: no LLM backend configured", a.config.Name)}, nil
	}

	maxTurns := a.config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	messages := a.buildMessages(pctx, history, message)
	var commands []CommandRecord
	var scratchpadWrites []string
	toolCalls := 0

	for turn := 0; turn < maxTurns; turn++ {
		text, err := a.deps.Chat(ctx, messages, llm.Options{Temperature: a.config.Temperature})
		if err != nil {
			return Result{
				AgentName: a.config.Name,
				Text:      fmt.Sprintf("%s (…error: %v…)", text, err),
				Commands:  commands,
			}, nil
		}

		cleaned, calls := extractToolCalls(text)
		if len(calls) == 0 {
			return Result{AgentName: a.config.Name, Text: cleaned, Commands: commands, ScratchpadWrites: scratchpadWrites}, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: cleaned})

		var pending []pendingConfirmation
		for _, call := range calls {
			if toolCalls >= maxTurns {
				break
			}
			toolCalls++

			result := a.DispatchTool(ctx, call.Tool, call.Args)
			commands = append(commands, CommandRecord{Tool: call.Tool, Args: call.Args, Output: renderToolResult(result)})
			if call.Tool == "write_memory" {
				if section, ok := call.Args["section"].(string); ok {
					scratchpadWrites = append(scratchpadWrites, section)
				}
			}

			if needs, _ := result["needs_confirmation"].(bool); needs {
				reason, _ := result["reason"].(string)
				pending = append(pending, pendingConfirmation{
					Tool:    call.Tool,
					Args:    call.Args,
					Reason:  reason,
					Command: commandArg(call.Args),
				})
				break
			}

			messages = append(messages, llm.Message{
				Role:    llm.RoleSystem,
				Content: fmt.Sprintf("[Tool Result: %s]\n%s", call.Tool, renderToolResult(result)),
			})
		}

		if len(pending) > 0 {
			a.mu.Lock()
			a.pending = pending
			a.mu.Unlock()
			text := cleaned
			if text != "" {
				text += "\n\n"
			}
			text += renderConfirmationPrompt(pending)
			return Result{AgentName: a.config.Name, Text: text, Commands: commands}, nil
		}
	}

	// max_turns reached without a final no-tool-call response; return what
	// the conversation has accumulated so far rather than erroring.
	return Result{AgentName: a.config.Name, Text: "(reached the maximum number of tool-call turns)", Commands: commands, ScratchpadWrites: scratchpadWrites}, nil
}

// resolvePendingConfirmations checks for confirmations left by a previous
// RunWithTools call and, if any exist, interprets message as the user's
// reply instead of a new request (spec §4.H, P14).
func (a *Agent) resolvePendingConfirmations(ctx context.Context, message string) (Result, bool) {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if len(pending) == 0 {
		return Result{}, false
	}

	affirmative, _ := classifyConfirmReply(message)
	if !affirmative {
		return Result{AgentName: a.config.Name, Text: "Okay, cancelled."}, true
	}

	var commands []CommandRecord
	var outputs []string
	for _, p := range pending {
		dispatchName := p.Tool
		if variant, ok := confirmedVariant[p.Tool]; ok {
			dispatchName = variant
		}
		result := a.deps.Tools.DispatchConfirmed(ctx, dispatchName, p.Args, a.cwd())
		rendered := toolResultToMap(result)
		commands = append(commands, CommandRecord{Tool: dispatchName, Args: p.Args, Output: renderToolResult(rendered)})
		if result.Success {
			outputs = append(outputs, result.Content)
		} else {
			outputs = append(outputs, fmt.Sprintf("error: %s", result.Error))
		}
	}

	text := ""
	for i, out := range outputs {
		if i > 0 {
			text += "\n\n"
		}
		text += out
	}
	return Result{AgentName: a.config.Name, Text: text, Commands: commands}, true
}
