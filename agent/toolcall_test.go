package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractToolCalls_SingleBlock(t *testing.T) {
	text := "Sure, let me look.\n```tool_call\n{\"tool\":\"read_file\",\"args\":{\"path\":\"a.go\"}}\n```\nDone."
	cleaned, calls := extractToolCalls(text)
	require.Len(t, calls, 1)
	require.Equal(t, "read_file", calls[0].Tool)
	require.Equal(t, "a.go", calls[0].Args["path"])
	require.NotContains(t, cleaned, "```tool_call")
	require.Contains(t, cleaned, "Sure, let me look.")
	require.Contains(t, cleaned, "Done.")
}

func TestExtractToolCalls_MultipleBlocks(t *testing.T) {
	text := "```tool_call\n{\"tool\":\"a\",\"args\":{}}\n```\n```tool_call\n{\"tool\":\"b\",\"args\":{}}\n```"
	_, calls := extractToolCalls(text)
	require.Len(t, calls, 2)
	require.Equal(t, "a", calls[0].Tool)
	require.Equal(t, "b", calls[1].Tool)
}

func TestExtractToolCalls_MalformedBlockSkipped(t *testing.T) {
	text := "```tool_call\nnot json\n```\n```tool_call\n{\"tool\":\"ok\",\"args\":{}}\n```"
	_, calls := extractToolCalls(text)
	require.Len(t, calls, 1)
	require.Equal(t, "ok", calls[0].Tool)
}

func TestExtractToolCalls_NoBlocks(t *testing.T) {
	cleaned, calls := extractToolCalls("just text, nothing fenced")
	require.Empty(t, calls)
	require.Equal(t, "just text, nothing fenced", cleaned)
}

func TestRenderToolResult_TruncatesLongOutput(t *testing.T) {
	big := make(map[string]any)
	longStr := ""
	for i := 0; i < 5000; i++ {
		longStr += "x"
	}
	big["output"] = longStr
	rendered := renderToolResult(big)
	require.LessOrEqual(t, len(rendered), toolResultHistoryCap+len("… (truncated)")+10)
	require.Contains(t, rendered, "truncated")
}
