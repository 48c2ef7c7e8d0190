package settings

import "path/filepath"

// matchAny reports whether name matches any of the given glob patterns.
// Tool and MCP names never contain "/", so filepath.Match's usual
// path-separator semantics never come into play; its "*" already means
// "any run of characters", giving us exactly the glob behavior the spec
// calls for (e.g. "mcp__*__list*") without pulling in a dedicated glob
// dependency.
func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// EffectiveToolList implements P4: ((base ∩ globalAllow) \ globalDeny) ∩
// agentAllow \ agentDeny, where an empty allow set means "no restriction"
// (keep everything it would otherwise have removed).
func EffectiveToolList(base, globalAllow, globalDeny, agentAllow, agentDeny []string) []string {
	result := base
	if len(globalAllow) > 0 {
		result = intersect(result, globalAllow)
	}
	if len(globalDeny) > 0 {
		result = subtract(result, globalDeny)
	}
	if len(agentAllow) > 0 {
		result = intersect(result, agentAllow)
	}
	if len(agentDeny) > 0 {
		result = subtract(result, agentDeny)
	}
	return result
}

func intersect(names, patterns []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if matchAny(patterns, n) {
			out = append(out, n)
		}
	}
	return out
}

func subtract(names, patterns []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !matchAny(patterns, n) {
			out = append(out, n)
		}
	}
	return out
}
