package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the five analysis tools registered
// (SPEC_FULL.md §4 supplemented features), modeled on the teacher's
// mcptools.NewCodeIntelMCPServer.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mycelium",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_repository",
		Description: "Run the six-phase structural analysis over a repository: structure, parsing, imports, calls, communities, processes. Subsequent tool calls query the resulting graph.",
	}, svc.AnalyzeRepository)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_symbols",
		Description: "Search symbols discovered by the last analyze_repository call by name substring, optionally filtered by kind.",
	}, svc.QuerySymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_callers",
		Description: "Return every call edge targeting the given symbol id.",
	}, svc.GetCallers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_callees",
		Description: "Return every call edge originating from the given symbol id.",
	}, svc.GetCallees)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_communities",
		Description: "Return every community discovered by the last analyze_repository call.",
	}, svc.GetCommunities)

	return server
}

// RunStdio starts server on stdio transport, blocking until the client
// disconnects or ctx is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
