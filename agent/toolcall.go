package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// toolCallBlock is one parsed ```tool_call fenced block (spec §4.H, §6).
type toolCallBlock struct {
	raw  string
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

var toolCallFence = regexp.MustCompile("(?s)```tool_call\\s*\\n(.*?)\\n```")

// extractToolCalls finds every fenced tool_call block in text, parses its
// JSON body, and returns the cleaned (blocks stripped) text alongside the
// parsed calls. A block whose JSON fails to parse is logged and skipped
// rather than aborting the whole response (spec §7 parse-error policy).
func extractToolCalls(text string) (cleaned string, calls []toolCallBlock) {
	matches := toolCallFence.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]

		body := text[m[2]:m[3]]
		var call toolCallBlock
		if err := json.Unmarshal([]byte(body), &call); err != nil {
			slog.Warn("skipping malformed tool_call block", "error", err)
			continue
		}
		if call.Tool == "" {
			slog.Warn("skipping tool_call block with no tool name")
			continue
		}
		call.raw = body
		calls = append(calls, call)
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String()), calls
}

// toolResultHistoryCap is the length renderToolResult caps a tool result's
// JSON rendering to before it's appended back into the conversation (spec
// §4.H).
const toolResultHistoryCap = 4000

func renderToolResult(result map[string]any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	s := string(data)
	if len(s) > toolResultHistoryCap {
		s = s[:toolResultHistoryCap] + "… (truncated)"
	}
	return s
}
