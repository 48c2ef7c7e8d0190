package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyConfirmReply(t *testing.T) {
	for _, word := range []string{"yes", "Y", "confirm", "do it", " YES "} {
		affirmative, negative := classifyConfirmReply(word)
		require.True(t, affirmative, word)
		require.False(t, negative, word)
	}
	for _, word := range []string{"no", "N", "cancel"} {
		affirmative, negative := classifyConfirmReply(word)
		require.False(t, affirmative, word)
		require.True(t, negative, word)
	}
	affirmative, negative := classifyConfirmReply("maybe later")
	require.False(t, affirmative)
	require.False(t, negative)
}

func TestRenderConfirmationPrompt(t *testing.T) {
	text := renderConfirmationPrompt([]pendingConfirmation{
		{Reason: "This command could modify or delete data. Please confirm.", Command: "rm -rf build/"},
	})
	require.Equal(t, "BMO needs your permission for:\n- This command could modify or delete data. Please confirm. (rm -rf build/)\n\nSay 'yes' to confirm or 'no' to cancel.", text)
}
