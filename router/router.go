// Package router implements the three-tier message classifier (spec §4.I):
// a prefix match, a keyword match, and an LLM fallback, evaluated in that
// order with the first non-null result winning (P9).
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/bmo/llm"
	"github.com/kadirpekel/bmo/settings"
)

// defaultFallback is used when router.default_agent is unset.
const defaultFallback = "conversation"

// Router classifies an incoming message into an agent name.
type Router struct {
	settings          *settings.Settings
	chat              llm.ChatFunc
	agentDescriptions map[string]string
}

// New builds a Router. agentDescriptions maps agent name to a one-sentence
// description, used to build the tier-3 classification prompt (spec §4.I).
func New(s *settings.Settings, chat llm.ChatFunc, agentDescriptions map[string]string) *Router {
	return &Router{settings: s, chat: chat, agentDescriptions: agentDescriptions}
}

// Route runs the three tiers in order and returns the chosen agent name.
func (r *Router) Route(ctx context.Context, message string) string {
	disabled := disabledSet(r.settings.Router().DisableTiers)

	if !disabled["prefix"] {
		if agent, ok := r.routePrefix(message); ok {
			return agent
		}
	}
	if !disabled["keyword"] {
		if agent, ok := r.routeKeyword(message); ok {
			return agent
		}
	}
	if !disabled["llm"] {
		if agent, ok := r.routeLLM(ctx, message); ok {
			return agent
		}
	}

	if def := r.settings.Router().DefaultAgent; def != "" {
		return def
	}
	return defaultFallback
}

// StripPrefix removes a matched built-in or custom prefix token from the
// front of message, so the orchestrator forwards clean text to the chosen
// agent (spec §4.I).
func (r *Router) StripPrefix(message string) string {
	prefix, rest, ok := splitPrefix(message)
	if !ok {
		return message
	}
	merged := mergedPrefixes(r.settings.Router().CustomPrefixes)
	if _, known := merged[prefix]; !known {
		return message
	}
	return rest
}

// routePrefix implements tier 1: trim, lowercase, match against the merged
// prefix map (custom overrides built-in on conflict, spec SPEC_FULL §2).
func (r *Router) routePrefix(message string) (string, bool) {
	prefix, _, ok := splitPrefix(message)
	if !ok {
		return "", false
	}
	merged := mergedPrefixes(r.settings.Router().CustomPrefixes)
	agent, ok := merged[prefix]
	return agent, ok
}

// splitPrefix trims leading whitespace and extracts a leading "!token",
// lowercased, plus the remaining text with its own leading whitespace
// trimmed.
func splitPrefix(message string) (prefix, rest string, ok bool) {
	trimmed := strings.TrimLeft(message, " \t\n\r")
	if !strings.HasPrefix(trimmed, "!") {
		return "", message, false
	}
	fields := strings.SplitN(trimmed, " ", 2)
	prefix = strings.ToLower(fields[0])
	if len(fields) > 1 {
		rest = strings.TrimLeft(fields[1], " \t\n\r")
	}
	return prefix, rest, true
}

// routeKeyword implements tier 2: lowercase the message, count phrase
// occurrences per agent (built-in table plus router.custom_keywords
// appended to the matching agent's list), return the agent with the
// highest non-zero count. Ties break by the fixed iteration order of
// agentOrder (the first agent to reach the current best count keeps it).
func (r *Router) routeKeyword(message string) (string, bool) {
	lower := strings.ToLower(message)
	phrases := mergedKeywords(r.settings.Router().CustomKeywords)

	best := ""
	bestCount := 0
	for _, agent := range agentOrder {
		count := 0
		for _, phrase := range phrases[agent] {
			count += strings.Count(lower, phrase)
		}
		if count > bestCount {
			bestCount = count
			best = agent
		}
	}
	if bestCount == 0 {
		return "", false
	}
	return best, true
}

// routeLLM implements tier 3: a single LLM call with a fixed classification
// prompt, accepting an exact or fuzzy-contained match against the valid
// agent set.
func (r *Router) routeLLM(ctx context.Context, message string) (string, bool) {
	if r.chat == nil || len(r.agentDescriptions) == 0 {
		return "", false
	}

	prompt := r.classificationPrompt()
	text, err := r.chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: message},
	}, llm.Options{Temperature: 0})
	if err != nil {
		return "", false
	}

	return matchAgentToken(text, r.agentDescriptions)
}

func (r *Router) classificationPrompt() string {
	names := make([]string, 0, len(r.agentDescriptions))
	for name := range r.agentDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("You are a message router. Reply with exactly one token: the name of the single best agent for the user's message. Choose from:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, r.agentDescriptions[name])
	}
	b.WriteString("Respond with only the agent name, nothing else.")
	return b.String()
}

// matchAgentToken accepts an exact match against valid, or, failing that,
// a fuzzy contained match (the valid name appears as a substring of the
// model's reply). A reply that is only a substring of a valid name does not
// match.
func matchAgentToken(text string, valid map[string]string) (string, bool) {
	token := strings.ToLower(strings.TrimSpace(text))
	if _, ok := valid[token]; ok {
		return token, true
	}
	for name := range valid {
		if strings.Contains(token, name) {
			return name, true
		}
	}
	return "", false
}

func disabledSet(tiers []string) map[string]bool {
	out := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		out[strings.ToLower(t)] = true
	}
	return out
}
