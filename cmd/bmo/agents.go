package main

import "github.com/kadirpekel/bmo/agent"

// builtinSpec is the declarative shape builtinAgentConfigs expands into
// agent.Config values; the router also needs just the name + description
// pair, so keep them next to each other here instead of repeating the
// list in two places.
type builtinSpec struct {
	name        string
	displayName string
	description string
	prompt      string
	tools       []string
	canNest     bool
	temperature float64
}

// builtinSpecs is BMO's ~20 sub-agents (spec §1, §4.I): coding, research,
// planning, and a run of domain-specific assistants (D&D DM, music, smart
// home, timers, calendar, weather, security camera) that are black-box
// agents per spec §1's Non-goals -- they carry a persona prompt and no
// tools, since the actual home-automation/media integrations are out of
// scope.
var builtinSpecs = []builtinSpec{
	{
		name: "conversation", displayName: "BMO",
		description: "general conversation and anything that doesn't fit a specialist",
		prompt:      "You are BMO, a cheerful and helpful personal assistant. Chat naturally and warmly.",
		temperature: 0.7,
	},
	{
		name: "code", displayName: "Code",
		description: "writes, fixes, and refactors code",
		prompt:      "You are BMO's coding agent. Write correct, idiomatic code and explain your changes briefly.",
		tools:       []string{"read_file", "write_file", "edit_file", "list_directory", "find_files", "grep_files", "execute_command", "git_command"},
		canNest:     true,
		temperature: 0.2,
	},
	{
		name: "research", displayName: "Research",
		description: "looks things up and investigates topics",
		prompt:      "You are BMO's research agent. Investigate the question thoroughly and summarize what you find.",
		tools:       []string{"web_search", "rag_search", "web_fetch", "read_file", "grep_files"},
		temperature: 0.3,
	},
	{
		name: "plan", displayName: "Plan",
		description: "breaks a task down into a step-by-step plan",
		prompt:      "You are BMO's planning agent.",
		tools:       []string{"read_file", "list_directory", "find_files", "grep_files", "git_command"},
		canNest:     true,
		temperature: 0.2,
	},
	{
		name: "dm", displayName: "Dungeon Master",
		description: "runs a Dungeons & Dragons campaign as game master",
		prompt:      "You are BMO acting as Dungeon Master. Narrate vividly, adjudicate rules fairly, and keep the story moving.",
		temperature: 0.9,
	},
	{
		name: "music", displayName: "Music",
		description: "controls music playback",
		prompt:      "You are BMO's music agent. Acknowledge playback requests (play/pause/skip/playlist) in character; the actual player integration is handled elsewhere.",
		temperature: 0.6,
	},
	{
		name: "home", displayName: "Smart Home",
		description: "controls smart home devices (lights, thermostat, locks)",
		prompt:      "You are BMO's smart home agent. Acknowledge device requests in character; the actual device integration is handled elsewhere.",
		temperature: 0.4,
	},
	{
		name: "timer", displayName: "Timer",
		description: "sets and tracks timers",
		prompt:      "You are BMO's timer agent. Acknowledge timer requests in character; the actual timer is handled elsewhere.",
		temperature: 0.4,
	},
	{
		name: "alarm", displayName: "Alarm",
		description: "sets and manages alarms",
		prompt:      "You are BMO's alarm agent. Acknowledge alarm requests in character; the actual alarm is handled elsewhere.",
		temperature: 0.4,
	},
	{
		name: "calendar", displayName: "Calendar",
		description: "manages calendar events and appointments",
		prompt:      "You are BMO's calendar agent. Acknowledge scheduling requests in character; the actual calendar integration is handled elsewhere.",
		temperature: 0.4,
	},
	{
		name: "weather", displayName: "Weather",
		description: "reports weather and forecasts",
		prompt:      "You are BMO's weather agent. Answer weather questions in character; the actual forecast data comes from an injected service.",
		temperature: 0.5,
	},
	{
		name: "security", displayName: "Security",
		description: "checks security cameras and the home security system",
		prompt:      "You are BMO's security agent. Acknowledge security requests in character; the actual camera/alarm integration is handled elsewhere.",
		temperature: 0.3,
	},
	{
		name: "test", displayName: "Test",
		description: "writes and runs tests",
		prompt:      "You are BMO's testing agent. Write thorough tests and run the suite, reporting failures clearly.",
		tools:       []string{"read_file", "write_file", "edit_file", "grep_files", "find_files", "execute_command", "git_command"},
		temperature: 0.2,
	},
	{
		name: "cleanup", displayName: "Cleanup",
		description: "tidies up files and removes unused code",
		prompt:      "You are BMO's cleanup agent. Find and remove unused files/code carefully, explaining what you removed and why.",
		tools:       []string{"list_directory", "find_files", "grep_files", "execute_command"},
		temperature: 0.2,
	},
	{
		name: "monitor", displayName: "Monitor",
		description: "checks service health and status",
		prompt:      "You are BMO's monitoring agent. Check the requested status and report it plainly.",
		tools:       []string{"execute_command", "web_fetch"},
		temperature: 0.2,
	},
	{
		name: "deploy", displayName: "Deploy",
		description: "deploys and releases software",
		prompt:      "You are BMO's deployment agent. Confirm destructive steps before running them and report the outcome clearly.",
		tools:       []string{"execute_command", "ssh_command", "git_command"},
		temperature: 0.2,
	},
	{
		name: "docs", displayName: "Docs",
		description: "writes and updates documentation",
		prompt:      "You are BMO's documentation agent. Write clear, accurate docs matching the project's existing style.",
		tools:       []string{"read_file", "write_file", "edit_file", "grep_files"},
		temperature: 0.4,
	},
	{
		name: "review", displayName: "Review",
		description: "reviews code and pull requests",
		prompt:      "You are BMO's code review agent. Review the diff for correctness, clarity, and risk; be specific and concise.",
		tools:       []string{"read_file", "grep_files", "git_command_readonly", "gh_command"},
		temperature: 0.2,
	},
	{
		name: "design", displayName: "Design",
		description: "designs system architecture",
		prompt:      "You are BMO's system design agent. Reason about tradeoffs explicitly and propose a concrete architecture.",
		temperature: 0.4,
	},
	{
		name: "learn", displayName: "Learn",
		description: "teaches and explains concepts",
		prompt:      "You are BMO's teaching agent. Explain clearly, check for understanding, and use concrete examples.",
		temperature: 0.5,
	},
	{
		name: "remember", displayName: "Remember",
		description: "saves durable facts to long-term memory",
		prompt:      "You are BMO's memory agent. Save only stable, durable facts worth recalling across sessions.",
		tools:       []string{"write_memory", "read_memory"},
		temperature: 0.2,
	},
}

func builtinAgentConfigs() []agent.Config {
	out := make([]agent.Config, len(builtinSpecs))
	for i, s := range builtinSpecs {
		out[i] = agent.Config{
			Name:         s.name,
			DisplayName:  s.displayName,
			SystemPrompt: s.prompt,
			Temperature:  s.temperature,
			Tools:        s.tools,
			CanNest:      s.canNest,
			MaxTurns:     10,
		}
	}
	return out
}

func agentDescriptions() map[string]string {
	out := make(map[string]string, len(builtinSpecs))
	for _, s := range builtinSpecs {
		out[s.name] = s.description
	}
	return out
}
