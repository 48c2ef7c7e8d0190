// Package tools implements the built-in tool registry: the fixed set of
// local tools every agent can be granted (shell execution, file I/O,
// search, web access, git/gh wrappers, and scratch memory), plus the
// destructive-operation confirmation gate and output truncation shared by
// all of them.
package tools

import "context"

// Result is the outcome of one tool execution.
type Result struct {
	Success bool
	Content string
	Error   string

	// NeedsConfirmation is set instead of running the tool body when a
	// destructive-operation gate trips (spec §4.E, P14).
	NeedsConfirmation  bool
	ConfirmationReason string

	Truncated bool
	Metadata  map[string]any
}

// Tool is one built-in tool implementation.
type Tool interface {
	Name() string
	Description() string
	// ReadOnly reports whether this tool is safe to run during plan-mode
	// exploration (spec §4.K's fixed read-only subset).
	ReadOnly() bool
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// ConfirmGate is implemented by tools whose execution may require
// confirmation before running: execute_command, write_file, ssh_command and
// git_command. The "_confirmed" bypass variants (execute_confirmed,
// write_file_confirmed) don't implement it, so they skip the check.
type ConfirmGate interface {
	NeedsConfirmation(args map[string]any) (reason string, needs bool)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}
