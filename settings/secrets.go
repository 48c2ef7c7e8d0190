package settings

import "strings"

const redacted = "***"

// namedSecrets are leaf key names redacted regardless of whether they
// contain one of the generic substrings below.
var namedSecrets = map[string]bool{
	"gpu_server_key": true,
	"maps_api_key":   true,
	"ssh_key_path":   true,
}

// secretSubstrings are matched case-insensitively against a leaf key name.
var secretSubstrings = []string{"key", "token", "secret", "authorization"}

func isSecretLeaf(name string) bool {
	if namedSecrets[name] {
		return true
	}
	lower := strings.ToLower(name)
	for _, sub := range secretSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// redactSecrets returns a deep copy of m with every non-empty string value
// at a secret-named leaf key replaced by "***" (P3).
func redactSecrets(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			out[k] = redactSecrets(val)
		case string:
			if val != "" && isSecretLeaf(k) {
				out[k] = redacted
			} else {
				out[k] = val
			}
		default:
			out[k] = v
		}
	}
	return out
}
