package agent

import "strings"

// pendingConfirmation is one destructive tool call awaiting the user's
// yes/no reply (spec §4.H, P14).
type pendingConfirmation struct {
	Tool    string
	Args    map[string]any
	Reason  string
	Command string
}

// confirmedVariant maps a gated tool name to the bypass variant the
// confirmation replay should call instead of re-tripping the gate. Tools
// with no dedicated bypass (ssh_command) fall back to
// Dispatcher.DispatchConfirmed against their own name (spec §9 open
// question: "an implementation may choose to harden this").
var confirmedVariant = map[string]string{
	"execute_command": "execute_confirmed",
	"write_file":      "write_file_confirmed",
}

var affirmativeWords = map[string]bool{
	"yes": true, "y": true, "confirm": true, "do it": true,
}

var negativeWords = map[string]bool{
	"no": true, "n": true, "cancel": true,
}

func classifyConfirmReply(message string) (affirmative, negative bool) {
	norm := strings.ToLower(strings.TrimSpace(message))
	return affirmativeWords[norm], negativeWords[norm]
}

// renderConfirmationPrompt builds the fixed-format prompt appended when
// the tool loop stops for confirmation (spec scenario 3).
func renderConfirmationPrompt(pending []pendingConfirmation) string {
	var b strings.Builder
	b.WriteString("BMO needs your permission for:\n")
	for i, p := range pending {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(p.Reason)
		if p.Command != "" {
			b.WriteString(" (")
			b.WriteString(p.Command)
			b.WriteString(")")
		}
	}
	b.WriteString("\n\nSay 'yes' to confirm or 'no' to cancel.")
	return b.String()
}

func commandArg(args map[string]any) string {
	for _, key := range []string{"cmd", "command", "path"} {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
