package router

// agentOrder fixes the tier-2 iteration order, which in turn fixes the
// deterministic tie-break required by spec §4.I ("tie-break by iteration
// order"): the first agent to reach the current best count keeps the win.
var agentOrder = []string{
	"code", "research", "plan", "dm", "music", "home", "timer", "alarm",
	"calendar", "weather", "security", "test", "cleanup", "monitor",
	"deploy", "docs", "review", "design", "learn", "remember",
}

// builtinKeywords is the illustrative phrase table spec §4.I describes:
// per-agent phrases whose occurrence count in the lowercased message
// drives tier-2 routing.
var builtinKeywords = map[string][]string{
	"code":     {"write code", "fix the bug", "fix bug", "implement", "refactor", "debug", "function", "compile", "stack trace"},
	"research": {"research", "look up", "find information", "investigate", "sources on"},
	"plan":     {"plan how", "make a plan", "roadmap", "steps to", "plan out"},
	"dm":       {"dungeon master", "d&d", "dnd", "roll a d20", "roll dice", "campaign", "dungeons and dragons"},
	"music":    {"play music", "play song", "play a song", "spotify", "playlist", "skip this track"},
	"home":     {"smart home", "turn on the lights", "turn off the lights", "thermostat", "lock the door"},
	"timer":    {"set a timer", "countdown", "start a timer"},
	"alarm":    {"set an alarm", "wake me up", "alarm for"},
	"calendar": {"schedule a", "add to my calendar", "calendar", "meeting at", "appointment"},
	"weather":  {"weather", "forecast", "temperature outside", "is it raining"},
	"security": {"security camera", "check the camera", "security system", "who's at the door"},
	"test":     {"run the tests", "run tests", "write tests", "unit test", "write a test"},
	"cleanup":  {"clean up", "tidy up", "delete old files", "remove unused"},
	"monitor":  {"monitor", "check status", "health check", "is it down"},
	"deploy":   {"deploy", "release to", "ship to production", "roll out"},
	"docs":     {"write documentation", "update the docs", "write a readme", "documentation"},
	"review":   {"review this", "code review", "review my pull request", "review the pr"},
	"design":   {"design a", "system design", "architecture for", "design doc"},
	"learn":    {"teach me", "explain how", "help me understand", "learn about"},
	"remember": {"remember this", "note that", "save this for later", "don't forget"},
}

// mergedKeywords appends router.custom_keywords to each agent's built-in
// phrase list.
func mergedKeywords(custom map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(builtinKeywords))
	for agent, phrases := range builtinKeywords {
		merged[agent] = append(append([]string(nil), phrases...), custom[agent]...)
	}
	for agent, phrases := range custom {
		if _, ok := merged[agent]; !ok {
			merged[agent] = append([]string(nil), phrases...)
		}
	}
	return merged
}
