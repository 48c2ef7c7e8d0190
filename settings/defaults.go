package settings

// builtInDefaults returns the base configuration merged before any
// discovered file is applied. Every key here is narrated in spec §4.A.
func builtInDefaults() map[string]any {
	return map[string]any{
		"llm": map[string]any{
			"base_url":                      "http://localhost:8081",
			"timeout_seconds":               120,
			"health_check_interval_seconds": 30,
			"chat_model":                    "default",
			"plan_model":                    "default",
			"chat_options": map[string]any{
				"temperature": 0.7,
				"max_tokens":  4096,
			},
			"plan_options": map[string]any{
				"temperature": 0.2,
				"max_tokens":  4096,
			},
		},
		"tools": map[string]any{
			"allow":                       []any{},
			"deny":                        []any{},
			"custom_destructive_patterns": []any{},
			"trusted_directories":         []any{},
			"auto_approve_destructive":    false,
			"max_tool_calls_per_turn":     25,
			"max_output_length":           8000,
			"command_timeout":             30,
		},
		"agents": map[string]any{},
		"router": map[string]any{
			"custom_prefixes": map[string]any{},
			"custom_keywords": map[string]any{},
			"disable_tiers":   []any{},
			"default_agent":   "conversation",
		},
		"plan_mode": map[string]any{
			"max_plan_steps":     30,
			"auto_approve_plans": false,
		},
		"mcp": map[string]any{
			"servers": map[string]any{},
			"agent_tools": map[string]any{},
			"readonly_tools": []any{
				"mcp__*__list*",
				"mcp__*__get*",
				"mcp__*__read*",
				"mcp__*__search*",
			},
			"output_max_tokens": 4000,
		},
		"hooks": map[string]any{
			"preToolUse":  []any{},
			"postToolUse": []any{},
		},
		"memory": map[string]any{
			"enabled":          true,
			"max_lines_loaded": 200,
		},
		"ui": map[string]any{
			"max_history":            50,
			"auto_compact_threshold": 40,
			"compact_preserve_last":  10,
		},
	}
}
