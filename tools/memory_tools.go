package tools

import (
	"context"

	"github.com/kadirpekel/bmo/memory"
)

// writeMemoryTool implements write_memory: updates one section of the
// calling project's persistent MEMORY.md. Listed among the plan-mode
// read-only tools (spec §4.K) because recording a note doesn't advance
// or execute the plan itself.
type writeMemoryTool struct{ store *memory.Store }

func (writeMemoryTool) Name() string        { return "write_memory" }
func (writeMemoryTool) ReadOnly() bool       { return true }
func (writeMemoryTool) Description() string { return "Write or replace a section of this project's persistent memory file." }

func (t writeMemoryTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	section := stringArg(args, "section")
	content := stringArg(args, "content")
	cwd := stringArg(args, "_cwd")
	if section == "" {
		return Result{Success: false, Error: "section is required"}, nil
	}
	if err := t.store.UpdateSection(cwd, section, content); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: "memory updated"}, nil
}

// readMemoryTool implements read_memory: loads this project's persistent
// memory, truncated to memory.max_lines_loaded.
type readMemoryTool struct {
	store    *memory.Store
	maxLines int
}

func (readMemoryTool) Name() string        { return "read_memory" }
func (readMemoryTool) ReadOnly() bool       { return true }
func (readMemoryTool) Description() string { return "Read this project's persistent memory file." }

func (t readMemoryTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	cwd := stringArg(args, "_cwd")
	content, err := t.store.Load(cwd, t.maxLines)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: content}, nil
}
