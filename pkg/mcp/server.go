// Package mcp exposes a built IR bundle over the Model Context Protocol so
// downstream code generators and assistants can query targets, tests and
// suites without re-parsing anything.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/testbridge/pkg/ir"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server over one IR bundle.
type Server struct {
	mcpServer *server.MCPServer
	bundle    *ir.Bundle
}

// NewServer creates an MCP server backed by the given bundle.
func NewServer(bundle *ir.Bundle) *Server {
	s := &Server{bundle: bundle}

	s.mcpServer = server.NewMCPServer(
		"testbridge",
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: listTargetsTool(), Handler: s.handleListTargets},
		server.ServerTool{Tool: getTargetTool(), Handler: s.handleGetTarget},
		server.ServerTool{Tool: searchTargetsTool(), Handler: s.handleSearchTargets},
		server.ServerTool{Tool: listSuitesTool(), Handler: s.handleListSuites},
		server.ServerTool{Tool: listTestsTool(), Handler: s.handleListTests},
		server.ServerTool{Tool: getTestTool(), Handler: s.handleGetTest},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func listTargetsTool() mcp.Tool {
	return mcp.NewTool("list_targets",
		mcp.WithDescription("List the UI targets in the IR bundle, optionally filtered by page"),
		mcp.WithString("page", mcp.Description("Only targets on this page (class) name")),
	)
}

func getTargetTool() mcp.Tool {
	return mcp.NewTool("get_target",
		mcp.WithDescription("Return one target by its deterministic id"),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("12-hex target id")),
	)
}

func searchTargetsTool() mcp.Tool {
	return mcp.NewTool("search_targets",
		mcp.WithDescription("Search targets by business name, role or selector value"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Case-insensitive substring")),
	)
}

func listSuitesTool() mcp.Tool {
	return mcp.NewTool("list_suites",
		mcp.WithDescription("List the suites in the IR bundle"),
	)
}

func listTestsTool() mcp.Tool {
	return mcp.NewTool("list_tests",
		mcp.WithDescription("List tests, optionally filtered by suite id"),
		mcp.WithString("suite_id", mcp.Description("Only tests of this suite")),
	)
}

func getTestTool() mcp.Tool {
	return mcp.NewTool("get_test",
		mcp.WithDescription("Return one full test document by id, including steps and assertions"),
		mcp.WithString("test_id", mcp.Required(), mcp.Description("Test id")),
	)
}
