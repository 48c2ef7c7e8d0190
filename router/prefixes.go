package router

// builtinPrefixes is the base "!prefix" -> agent map (spec §4.I).
var builtinPrefixes = map[string]string{
	"!code":     "code",
	"!dm":       "dm",
	"!music":    "music",
	"!home":     "home",
	"!timer":    "timer",
	"!alarm":    "alarm",
	"!calendar": "calendar",
	"!cal":      "calendar",
	"!weather":  "weather",
	"!security": "security",
	"!test":     "test",
	"!plan":     "plan",
	"!research": "research",
	"!cleanup":  "cleanup",
	"!monitor":  "monitor",
	"!deploy":   "deploy",
	"!docs":     "docs",
	"!review":   "review",
	"!design":   "design",
	"!learn":    "learn",
	"!remember": "remember",
}

// mergedPrefixes layers router.custom_prefixes over builtinPrefixes: a
// custom mapping that redefines a built-in prefix wins; built-in prefixes
// left untouched remain active (SPEC_FULL.md supplemented feature).
func mergedPrefixes(custom map[string]string) map[string]string {
	merged := make(map[string]string, len(builtinPrefixes)+len(custom))
	for k, v := range builtinPrefixes {
		merged[k] = v
	}
	for k, v := range custom {
		merged[k] = v
	}
	return merged
}
