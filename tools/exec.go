package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"time"
)

// runShell runs command through "sh -c" in cwd (or the process cwd when
// empty), bounded by timeout, and returns combined stdout/stderr.
func runShell(ctx context.Context, command, cwd string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if cwd != "" {
		cmd.Dir = cwd
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return out.String(), fmt.Errorf("command timed out after %s", timeout)
	}
	return out.String(), err
}

// commandTool implements execute_confirmed directly and, wrapped in
// gatedCommandTool, execute_command. Only gatedCommandTool has a
// NeedsConfirmation method, so the dispatcher's ConfirmGate type assertion
// never finds one on execute_confirmed.
type commandTool struct {
	name     string
	timeout  time.Duration
	extraPatterns []*regexp.Regexp
}

func (t *commandTool) Name() string        { return t.name }
func (t *commandTool) ReadOnly() bool       { return false }
func (t *commandTool) Description() string {
	if t.name == "execute_command" {
		return "Run a shell command and return its combined stdout/stderr. Destructive-looking commands require confirmation first."
	}
	return "Run a shell command previously approved via execute_command's confirmation prompt, bypassing the destructive-operation gate."
}

func (t *commandTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	cmd := stringArg(args, "cmd")
	cwd := stringArg(args, "cwd")
	out, err := runShell(ctx, cmd, cwd, t.timeout)
	if err != nil {
		return Result{Success: false, Content: out, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: out}, nil
}

type gatedCommandTool struct{ commandTool }

func (t *gatedCommandTool) NeedsConfirmation(args map[string]any) (string, bool) {
	cmd := stringArg(args, "cmd")
	if _, ok := matchesDestructive(cmd, t.extraPatterns); ok {
		return destructiveConfirmReason, true
	}
	return "", false
}

// newExecuteCommand builds the gated execute_command tool.
func newExecuteCommand(timeout time.Duration, extra []*regexp.Regexp) Tool {
	return &gatedCommandTool{commandTool{name: "execute_command", timeout: timeout, extraPatterns: extra}}
}

// newExecuteConfirmed builds the ungated execute_confirmed bypass tool.
func newExecuteConfirmed(timeout time.Duration) Tool {
	return &commandTool{name: "execute_confirmed", timeout: timeout}
}

// sshTool implements ssh_command: runs a command on a remote host via the
// system ssh client. Gated the same way as execute_command, against the
// remote command text.
type sshTool struct {
	timeout       time.Duration
	extraPatterns []*regexp.Regexp
}

func (t *sshTool) Name() string        { return "ssh_command" }
func (t *sshTool) ReadOnly() bool       { return false }
func (t *sshTool) Description() string {
	return "Run a command on a remote host over ssh using the system ssh client."
}

func (t *sshTool) NeedsConfirmation(args map[string]any) (string, bool) {
	cmd := stringArg(args, "cmd")
	if _, ok := matchesDestructive(cmd, t.extraPatterns); ok {
		return destructiveConfirmReason, true
	}
	return "", false
}

func (t *sshTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	host := stringArg(args, "host")
	cmd := stringArg(args, "cmd")
	if host == "" {
		return Result{Success: false, Error: "host is required"}, nil
	}
	shCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		shCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	execCmd := exec.CommandContext(shCtx, "ssh", host, cmd)
	var out bytes.Buffer
	execCmd.Stdout = &out
	execCmd.Stderr = &out
	err := execCmd.Run()
	if err != nil {
		return Result{Success: false, Content: out.String(), Error: err.Error()}, nil
	}
	return Result{Success: true, Content: out.String()}, nil
}

// gitTool implements git_command (gated) and its read-only wrapper
// git_command_readonly, which only ever runs a fixed allow-list of
// non-mutating subcommands regardless of args, so it never needs the gate.
type gitTool struct {
	readonly      bool
	timeout       time.Duration
	extraPatterns []*regexp.Regexp
}

var gitReadonlySubcommands = map[string]bool{
	"log": true, "status": true, "diff": true, "show": true,
	"branch": true, "tag": true, "remote": true,
}

func (t *gitTool) Name() string {
	if t.readonly {
		return "git_command_readonly"
	}
	return "git_command"
}

func (t *gitTool) ReadOnly() bool { return t.readonly }

func (t *gitTool) Description() string {
	if t.readonly {
		return "Run a read-only git subcommand (status, log, diff, show, branch, tag, remote) against a repository."
	}
	return "Run any git subcommand against a repository. Mutating subcommands (push, reset, rebase) require confirmation."
}

func (t *gitTool) NeedsConfirmation(args map[string]any) (string, bool) {
	if t.readonly {
		return "", false
	}
	cmd := stringArg(args, "cmd")
	if _, ok := matchesDestructive("git "+cmd, t.extraPatterns); ok {
		return destructiveConfirmReason, true
	}
	return "", false
}

func (t *gitTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	cmd := stringArg(args, "cmd")
	repo := stringArg(args, "repo_path")

	if t.readonly {
		sub := firstWord(cmd)
		if !gitReadonlySubcommands[sub] {
			return Result{Success: false, Error: fmt.Sprintf("git_command_readonly does not permit subcommand %q", sub)}, nil
		}
	}

	out, err := runShell(ctx, "git "+cmd, repo, t.timeout)
	if err != nil {
		return Result{Success: false, Content: out, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: out}, nil
}

// ghTool implements gh_command: a thin wrapper around the GitHub CLI. It
// has no confirmation gate, and the default destructive patterns don't match
// gh-specific mutations (issue/PR close, repo delete) either; only a
// custom_destructive_pattern makes execute_command gate such a command.
type ghTool struct {
	timeout time.Duration
}

func (t *ghTool) Name() string        { return "gh_command" }
func (t *ghTool) ReadOnly() bool       { return false }
func (t *ghTool) Description() string {
	return "Run a GitHub CLI (gh) subcommand."
}

func (t *ghTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	cmd := stringArg(args, "cmd")
	out, err := runShell(ctx, "gh "+cmd, stringArg(args, "cwd"), t.timeout)
	if err != nil {
		return Result{Success: false, Content: out, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: out}, nil
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' {
			return s[:i]
		}
	}
	return s
}
