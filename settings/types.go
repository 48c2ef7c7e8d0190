package settings

// AgentOverride carries the per-agent knobs an operator may set under
// "agents.<name>" in a settings file. Nil pointer fields mean "inherit the
// agent's own AgentConfig value".
type AgentOverride struct {
	Enabled            *bool    `mapstructure:"enabled"`
	Temperature        *float64 `mapstructure:"temperature"`
	MaxTurns           *int     `mapstructure:"max_turns"`
	CanNest            *bool    `mapstructure:"can_nest"`
	ToolsAllow         []string `mapstructure:"tools_allow"`
	ToolsDeny          []string `mapstructure:"tools_deny"`
	SystemPromptAppend string   `mapstructure:"system_prompt_append"`
}

// ToolsConfig is the "tools" top-level settings key.
type ToolsConfig struct {
	Allow                    []string `mapstructure:"allow"`
	Deny                     []string `mapstructure:"deny"`
	CustomDestructivePatterns []string `mapstructure:"custom_destructive_patterns"`
	TrustedDirectories       []string `mapstructure:"trusted_directories"`
	AutoApproveDestructive   bool     `mapstructure:"auto_approve_destructive"`
	MaxToolCallsPerTurn      int      `mapstructure:"max_tool_calls_per_turn"`
	MaxOutputLength          int      `mapstructure:"max_output_length"`
	CommandTimeoutSeconds    int      `mapstructure:"command_timeout"`
}

// RouterConfig is the "router" top-level settings key.
type RouterConfig struct {
	CustomPrefixes map[string]string   `mapstructure:"custom_prefixes"`
	CustomKeywords map[string][]string `mapstructure:"custom_keywords"`
	DisableTiers   []string            `mapstructure:"disable_tiers"`
	DefaultAgent   string              `mapstructure:"default_agent"`
}

// PlanModeConfig is the "plan_mode" top-level settings key.
type PlanModeConfig struct {
	MaxPlanSteps      int  `mapstructure:"max_plan_steps"`
	AutoApprovePlans  bool `mapstructure:"auto_approve_plans"`
}

// McpServerConfig describes one configured MCP server entry under
// "mcp.servers.<name>".
type McpServerConfig struct {
	Transport string            `mapstructure:"transport"` // stdio | http | sse
	Command   string            `mapstructure:"command"`
	Args      []string          `mapstructure:"args"`
	Env       map[string]string `mapstructure:"env"`
	URL       string            `mapstructure:"url"`
}

// McpConfig is the "mcp" top-level settings key.
type McpConfig struct {
	Servers         map[string]McpServerConfig `mapstructure:"servers"`
	AgentTools      map[string][]string        `mapstructure:"agent_tools"`
	ReadonlyTools   []string                   `mapstructure:"readonly_tools"`
	OutputMaxTokens int                        `mapstructure:"output_max_tokens"`
}

// HookEntry is one entry in "hooks.preToolUse" or "hooks.postToolUse".
type HookEntry struct {
	Matcher string `mapstructure:"matcher"`
	Command string `mapstructure:"command"`
}

// HooksConfig is the "hooks" top-level settings key.
type HooksConfig struct {
	PreToolUse  []HookEntry `mapstructure:"preToolUse"`
	PostToolUse []HookEntry `mapstructure:"postToolUse"`
}

// MemoryConfig is the "memory" top-level settings key.
type MemoryConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	MaxLinesLoaded int  `mapstructure:"max_lines_loaded"`
}

// UIConfig is the "ui" top-level settings key.
type UIConfig struct {
	MaxHistory            int `mapstructure:"max_history"`
	AutoCompactThreshold  int `mapstructure:"auto_compact_threshold"`
	CompactPreserveLast   int `mapstructure:"compact_preserve_last"`
}

// LLMOptions is a bundle of default model-call options (temperature and
// max_tokens) referenced by "llm.chat_options" / "llm.plan_options".
type LLMOptions struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// LLMConfig is the "llm" top-level settings key.
type LLMConfig struct {
	BaseURL               string     `mapstructure:"base_url"`
	APIKey                string     `mapstructure:"api_key"`
	TimeoutSeconds        int        `mapstructure:"timeout_seconds"`
	HealthCheckIntervalSeconds int   `mapstructure:"health_check_interval_seconds"`
	ChatModel             string     `mapstructure:"chat_model"`
	PlanModel             string     `mapstructure:"plan_model"`
	ChatOptions           LLMOptions `mapstructure:"chat_options"`
	PlanOptions           LLMOptions `mapstructure:"plan_options"`
}
