// Package hooks implements the pre/post command pipeline that runs around
// every tool invocation: user-supplied shell commands that can block,
// rewrite, or annotate a tool call.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// commandTimeout bounds every hook subprocess (spec §4.D, §5).
const commandTimeout = 10 * time.Second

// log is the hook subprocess logging adapter: hclog rather than slog
// directly, since hook stderr is unstructured subprocess text, not a
// key-value event -- hclog's Name-scoped logger keeps it visually
// distinct from the rest of the application's structured log lines while
// still honoring the same level filtering.
var log = hclog.New(&hclog.LoggerOptions{Name: "hooks", Level: hclog.Info})

// Entry is one configured hook: command runs for every tool whose name
// matches matcher.
type Entry struct {
	Matcher string
	Command string
}

// Result is the outcome of running the pre-hook pipeline for a tool call.
type Result struct {
	Allowed       bool
	ModifiedArgs  map[string]any
	Context       string
	BlockedBy     string
}

// RunPre runs every hook whose matcher matches tool, in order, against
// {"tool": tool, "args": args} on stdin. A non-zero exit, a timeout, or a
// spawn failure blocks the tool (P13). On success, a stdout payload that
// parses as JSON with an "args" field replaces the args for the next hook
// and for the final result; otherwise non-empty stdout/stderr is appended
// as context.
func RunPre(ctx context.Context, hooksList []Entry, tool string, args map[string]any, cwd string) Result {
	currentArgs := args
	var contextParts []string

	for _, h := range hooksList {
		if !matches(h.Matcher, tool) {
			continue
		}

		payload, _ := json.Marshal(map[string]any{"tool": tool, "args": currentArgs})
		stdout, stderr, err := runCommand(ctx, h.Command, cwd, payload)
		if err != nil {
			log.Warn("pre-hook blocked tool call", "tool", tool, "command", h.Command, "error", err)
			return Result{
				Allowed:   false,
				BlockedBy: h.Command,
				Context:   blockContext(stdout, stderr, err),
			}
		}

		if replacement, ok := parseArgsField(stdout); ok {
			currentArgs = replacement
			continue
		}
		if txt := strings.TrimSpace(stdout + stderr); txt != "" {
			contextParts = append(contextParts, txt)
		}
	}

	return Result{
		Allowed:      true,
		ModifiedArgs: currentArgs,
		Context:      strings.Join(contextParts, "\n"),
	}
}

// RunPost runs every hook whose matcher matches tool against
// {"tool": tool, "args": args, "result": result} on stdin. A non-zero exit
// never reverts the tool call; stdout/stderr are appended to
// result["hook_context"] (created if absent) regardless of exit status.
func RunPost(ctx context.Context, hooksList []Entry, tool string, args, result map[string]any, cwd string) map[string]any {
	out := cloneMap(result)
	var contextParts []string

	for _, h := range hooksList {
		if !matches(h.Matcher, tool) {
			continue
		}
		payload, _ := json.Marshal(map[string]any{"tool": tool, "args": args, "result": out})
		stdout, stderr, err := runCommand(ctx, h.Command, cwd, payload)
		if err != nil {
			log.Debug("post-hook reported an error, continuing anyway", "tool", tool, "command", h.Command, "error", err)
		}
		if txt := strings.TrimSpace(stdout + stderr); txt != "" {
			contextParts = append(contextParts, txt)
		}
	}

	if len(contextParts) > 0 {
		existing, _ := out["hook_context"].(string)
		joined := strings.Join(contextParts, "\n")
		if existing != "" {
			out["hook_context"] = existing + "\n" + joined
		} else {
			out["hook_context"] = joined
		}
	}
	return out
}

func matches(matcher, tool string) bool {
	ok, err := filepath.Match(matcher, tool)
	return err == nil && ok
}

func blockContext(stdout, stderr string, err error) string {
	if txt := strings.TrimSpace(stderr); txt != "" {
		return txt
	}
	if txt := strings.TrimSpace(stdout); txt != "" {
		return txt
	}
	if err != nil {
		return fmt.Sprintf("Blocked by pre-hook: %v", err)
	}
	return "Blocked by pre-hook"
}

func parseArgsField(stdout string) (map[string]any, bool) {
	var payload struct {
		Args map[string]any `json:"args"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		return nil, false
	}
	if payload.Args == nil {
		return nil, false
	}
	return payload.Args, true
}

// runCommand runs command through "sh -c", feeding stdin and enforcing
// commandTimeout. Timeouts and spawn failures are reported as errors, same
// as a non-zero exit, since all three count as hook failures (§4.D).
func runCommand(parent context.Context, command, cwd string, stdin []byte) (stdout, stderr string, err error) {
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if cwd != "" {
		cmd.Dir = cwd
	}
	cmd.Stdin = bytes.NewReader(stdin)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()

	if ctx.Err() == context.DeadlineExceeded {
		return stdout, stderr, fmt.Errorf("hook %q timed out after %s", command, commandTimeout)
	}
	if runErr != nil {
		return stdout, stderr, fmt.Errorf("hook %q failed: %w", command, runErr)
	}
	return stdout, stderr, nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
