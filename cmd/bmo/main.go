// Command bmo is the CLI entrypoint for the BMO multi-agent orchestration
// runtime.
//
// Usage:
//
//	bmo serve "what's today's weather?"
//	bmo agents list
//	bmo plan "add a caching layer to the resolver"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/bmo/agent"
	"github.com/kadirpekel/bmo/commands"
	"github.com/kadirpekel/bmo/mcp"
	"github.com/kadirpekel/bmo/memory"
	"github.com/kadirpekel/bmo/orchestrator"
	"github.com/kadirpekel/bmo/router"
	"github.com/kadirpekel/bmo/scratchpad"
	"github.com/kadirpekel/bmo/settings"
	"github.com/kadirpekel/bmo/tools"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Run a single message through the orchestrator and print BMO's reply."`
	Agents  AgentsCmd  `cmd:"" help:"List the registered agents."`
	Plan    PlanCmd    `cmd:"" help:"Start plan mode for a task."`
	Command CommandCmd `cmd:"" help:"Expand a custom slash command and run it through the orchestrator."`

	Config string `short:"c" help:"Directory to search for settings files." type:"path" default:"."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Name("bmo"), kong.Description("BMO multi-agent orchestration runtime."))

	if err := kctx.Run(&cli); err != nil {
		slog.Error("bmo command failed", "error", err)
		os.Exit(1)
	}
}

// ServeCmd runs one message through the orchestrator.
type ServeCmd struct {
	Message string `arg:"" help:"Message to send to BMO."`
	Speaker string `help:"Name of the speaker." default:"user"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	app, err := newApp(cli.Config)
	if err != nil {
		return err
	}
	result, err := app.orchestrator.Handle(context.Background(), c.Message, c.Speaker, nil)
	if err != nil {
		return err
	}
	fmt.Printf("[%s] %s\n", result.AgentUsed, result.Text)
	return nil
}

// AgentsCmd groups the agent subcommands.
type AgentsCmd struct {
	List AgentsListCmd `cmd:"" help:"List the registered agents."`
}

// AgentsListCmd lists every registered agent.
type AgentsListCmd struct{}

func (c *AgentsListCmd) Run(cli *CLI) error {
	app, err := newApp(cli.Config)
	if err != nil {
		return err
	}
	names := app.orchestrator.Agents()
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// PlanCmd starts plan mode for a task and prints the resulting plan.
type PlanCmd struct {
	Task string `arg:"" help:"Task to plan."`
}

func (c *PlanCmd) Run(cli *CLI) error {
	app, err := newApp(cli.Config)
	if err != nil {
		return err
	}
	result, err := app.orchestrator.Handle(context.Background(), "!plan "+c.Task, "user", nil)
	if err != nil {
		return err
	}
	fmt.Println(result.Text)
	return nil
}

// CommandCmd expands a custom slash command template (spec §4.M) and feeds
// the expanded text back through the orchestrator as an ordinary chat
// message, the handoff the spec describes as the hosting caller's job.
type CommandCmd struct {
	Name      string `arg:"" help:"Command name (file stem under a commands directory, without .md)."`
	Arguments string `arg:"" optional:"" help:"Text substituted for $ARGUMENTS in the template."`
}

func (c *CommandCmd) Run(cli *CLI) error {
	found := commands.Discover(cli.Config)
	path, ok := found[c.Name]
	if !ok {
		return fmt.Errorf("no custom command named %q", c.Name)
	}
	expanded, err := commands.Load(path, c.Arguments)
	if err != nil {
		return err
	}

	app, err := newApp(cli.Config)
	if err != nil {
		return err
	}
	result, err := app.orchestrator.Handle(context.Background(), expanded, "user", nil)
	if err != nil {
		return err
	}
	fmt.Printf("[%s] %s\n", result.AgentUsed, result.Text)
	return nil
}

// app bundles every collaborator the orchestrator needs, built fresh for
// each CLI invocation (spec §1 treats persistence across restarts beyond
// the named files -- settings, memory, BMO.md, the Plan scratchpad
// section while a process is alive -- as out of scope).
type app struct {
	orchestrator *orchestrator.Orchestrator
}

func newApp(cwd string) (*app, error) {
	st, err := settings.Load(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	sp := scratchpad.New()
	mem := memory.NewStore(memoryBaseDir())
	td := tools.New(tools.Config{Settings: st, Memory: mem})

	mcpCfg := st.Mcp()
	mgr := mcp.NewManager(mcpCfg.AgentTools, mcpCfg.ReadonlyTools, mcpCfg.OutputMaxTokens)
	ctx := context.Background()
	for name, serverCfg := range mcpCfg.Servers {
		if _, err := mgr.AddServer(ctx, name, mcp.ServerConfig{
			Transport: serverCfg.Transport,
			Command:   serverCfg.Command,
			Args:      serverCfg.Args,
			Env:       serverCfg.Env,
			URL:       serverCfg.URL,
		}, true); err != nil {
			slog.Warn("failed to connect MCP server", "server", name, "error", err)
		}
	}

	r := router.New(st, nil, agentDescriptions())
	orch := orchestrator.New(sp, mgr, st, r, nil, cwd)

	// Chat is left nil: spec §1 treats the LLM backend as an injected
	// llm_chat function and explicitly leaves wiring an actual provider SDK
	// out of scope. A hosting process embeds this package and supplies
	// Deps.Chat itself; agents fall back to a clear "no LLM backend
	// configured" message until then.
	deps := agent.Deps{
		Scratchpad: sp,
		Memory:     mem,
		Tools:      td,
		Mcp:        mgr,
		Settings:   st,
		Cwd:        cwd,
		Host:       orch,
	}

	for _, cfg := range builtinAgentConfigs() {
		if cfg.Name == "plan" {
			orch.RegisterAgent(agent.NewPlan(cfg, deps))
			continue
		}
		orch.RegisterAgent(agent.New(cfg, deps))
	}

	st.OnChange(func(s *settings.Settings) {
		mcpCfg := s.Mcp()
		desired := make(map[string]mcp.ServerConfig, len(mcpCfg.Servers))
		for name, sc := range mcpCfg.Servers {
			desired[name] = mcp.ServerConfig{Transport: sc.Transport, Command: sc.Command, Args: sc.Args, Env: sc.Env, URL: sc.URL}
		}
		mgr.Reconcile(context.Background(), desired)
	})

	return &app{orchestrator: orch}, nil
}

func memoryBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bmo-memory"
	}
	return home + "/bmo/data/memory"
}
