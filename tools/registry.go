package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/kadirpekel/bmo/internal/registry"
	"github.com/kadirpekel/bmo/memory"
	"github.com/kadirpekel/bmo/settings"
)

// Dispatcher is the built-in tool registry plus the confirmation gate and
// output-truncation wrapper around every call (spec §4.E).
type Dispatcher struct {
	reg      *registry.Base[Tool]
	settings *settings.Settings
}

// Config bundles the dependencies built-in tools need.
type Config struct {
	Settings *settings.Settings
	Memory   *memory.Store
	Search   SearchFunc
}

// New builds a Dispatcher with every built-in tool registered.
func New(cfg Config) *Dispatcher {
	tools := cfg.Settings.Tools()
	timeout := time.Duration(tools.CommandTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	extra := compileCustomPatterns(tools.CustomDestructivePatterns)

	d := &Dispatcher{reg: registry.New[Tool](), settings: cfg.Settings}
	for _, t := range []Tool{
		newExecuteCommand(timeout, extra),
		newExecuteConfirmed(timeout),
		&sshTool{timeout: timeout, extraPatterns: extra},
		readFileTool{},
		newWriteFile(),
		newWriteFileConfirmed(),
		editFileTool{},
		listDirectoryTool{},
		findFilesTool{},
		grepFilesTool{},
		webSearchTool{search: cfg.Search},
		ragSearchTool{search: cfg.Search},
		newWebFetch(),
		&gitTool{readonly: false, timeout: timeout, extraPatterns: extra},
		&gitTool{readonly: true, timeout: timeout},
		&ghTool{timeout: timeout},
		writeMemoryTool{store: cfg.Memory},
		readMemoryTool{store: cfg.Memory, maxLines: cfg.Settings.Memory().MaxLinesLoaded},
	} {
		_ = d.reg.Register(t.Name(), t)
	}
	return d
}

// ReadOnlyNames returns the names of every registered read-only tool,
// the fixed subset usable during plan-mode exploration (spec §4.K).
func (d *Dispatcher) ReadOnlyNames() []string {
	var names []string
	for _, name := range d.reg.Names() {
		t, _ := d.reg.Get(name)
		if t.ReadOnly() {
			names = append(names, name)
		}
	}
	return names
}

// Names returns every registered tool name.
func (d *Dispatcher) Names() []string { return d.reg.Names() }

// Describe returns the description of one tool.
func (d *Dispatcher) Describe(name string) (string, bool) {
	t, ok := d.reg.Get(name)
	if !ok {
		return "", false
	}
	return t.Description(), true
}

// Dispatch runs the named tool against args, applying the confirmation
// gate and output truncation. cwd scopes project-relative tools (memory)
// and is used to evaluate tools.auto_approve_destructive / trusted
// directories.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any, cwd string) Result {
	t, ok := d.reg.Get(name)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown tool %q", name)}
	}

	scoped := make(map[string]any, len(args)+1)
	for k, v := range args {
		scoped[k] = v
	}
	if _, ok := scoped["_cwd"]; !ok {
		scoped["_cwd"] = cwd
	}

	if gate, ok := t.(ConfirmGate); ok {
		if reason, needs := gate.NeedsConfirmation(scoped); needs && !d.settings.IsDestructiveAutoApproved(cwd) {
			return Result{NeedsConfirmation: true, ConfirmationReason: reason}
		}
	}

	result, err := t.Execute(ctx, scoped)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	maxLen := d.settings.Tools().MaxOutputLength
	if content, truncated := truncate(result.Content, maxLen); truncated {
		result.Content = content
		result.Truncated = true
	}
	return result
}

// DispatchConfirmed runs the named tool exactly like Dispatch but skips the
// confirmation gate unconditionally. It exists for the agent confirmation
// replay path (spec §4.H, §9 open question): most gated tools have a
// dedicated "_confirmed" bypass variant (execute_command/execute_confirmed,
// write_file/write_file_confirmed), but not every one does (ssh_command has
// none), so replaying the user's "yes" through the original tool name would
// just re-trip the gate. Callers that already obtained user confirmation
// use this instead of Dispatch for those tools.
func (d *Dispatcher) DispatchConfirmed(ctx context.Context, name string, args map[string]any, cwd string) Result {
	t, ok := d.reg.Get(name)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown tool %q", name)}
	}

	scoped := make(map[string]any, len(args)+1)
	for k, v := range args {
		scoped[k] = v
	}
	if _, ok := scoped["_cwd"]; !ok {
		scoped["_cwd"] = cwd
	}

	result, err := t.Execute(ctx, scoped)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	maxLen := d.settings.Tools().MaxOutputLength
	if content, truncated := truncate(result.Content, maxLen); truncated {
		result.Content = content
		result.Truncated = true
	}
	return result
}
