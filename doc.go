// Package bmo provides the orchestration core of a personal-assistant
// runtime: an agent registry, a three-tier router, a four-phase plan
// workflow, tool dispatch with hooks and MCP support, hierarchical
// settings, and the scratchpad/memory contracts shared by agents.
//
// # Architecture
//
// A hosting process (REPL, HTTP server, voice front-end -- all outside this
// module) constructs an orchestrator.Orchestrator, registers agents built
// from agent.Config values, and calls Handle for each incoming message:
//
//	User/Client -> Router -> Orchestrator -> Agent -> Tools/MCP
//
// # Scope
//
// This module covers the orchestrator state machine, the router, plan-mode
// parsing and execution, tool dispatch (built-in and MCP), the MCP
// client/manager, the settings loader, and the scratchpad/memory stores.
// Domain-specific agent bodies (music, calendar, D&D, smart-home, etc.),
// the LLM backend, and the web/UI layer are external collaborators
// referenced only by interface.
package bmo
