package tools

import "regexp"

// destructivePatterns is the fixed set of regexes checked against the
// literal command text of shell-dispatching tools (spec §4.E). Custom
// patterns from tools.custom_destructive_patterns are appended at
// dispatcher construction time.
var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\brm\b`),
	regexp.MustCompile(`\brmdir\b`),
	regexp.MustCompile(`\bdel\b`),
	regexp.MustCompile(`\bmv\b`),
	regexp.MustCompile(`\b(kill|killall|pkill)\b`),
	regexp.MustCompile(`\bsystemctl\s+(stop|restart|disable)\b`),
	regexp.MustCompile(`\bgit\s+(push|reset|rebase)\b`),
	regexp.MustCompile(`--force\b|\s-f\b`),
	regexp.MustCompile(`\bnpm\s+publish\b`),
	regexp.MustCompile(`\bpip\s+uninstall\b`),
	regexp.MustCompile(`\bapt(-get)?\s+(remove|purge)\b`),
	regexp.MustCompile(`\bdropdb\b`),
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
}

// destructiveConfirmReason is the fixed confirmation reason every gated
// shell-dispatching tool returns (spec §8 scenario 3; original
// BMO-setup/pi/dev_tools.py:81). The matched command/pattern detail stays
// out of the reason text and is instead carried alongside it (the
// command argument itself, surfaced separately by the agent's
// confirmation-prompt renderer).
const destructiveConfirmReason = "This command could modify or delete data. Please confirm."

// matchesDestructive reports whether cmd matches any of patterns, returning
// the matching pattern's source. The gated tools ignore that source and
// return destructiveConfirmReason instead.
func matchesDestructive(cmd string, extra []*regexp.Regexp) (pattern string, matched bool) {
	for _, re := range destructivePatterns {
		if re.MatchString(cmd) {
			return re.String(), true
		}
	}
	for _, re := range extra {
		if re.MatchString(cmd) {
			return re.String(), true
		}
	}
	return "", false
}

// compileCustomPatterns compiles operator-supplied regex strings,
// silently skipping any that fail to compile: an invalid pattern is neither
// reported nor matched.
func compileCustomPatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}
