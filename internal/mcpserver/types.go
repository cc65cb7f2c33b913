package mcpserver

import "github.com/mycelium-dev/mycelium/internal/graph"

// AnalyzeRepositoryInput is the input for the analyze_repository MCP tool.
type AnalyzeRepositoryInput struct {
	RepoPath  string   `json:"repoPath" jsonschema:"the absolute path to the repository to analyse"`
	Languages []string `json:"languages,omitempty" jsonschema:"language filter (e.g. go, python, typescript); default analyses every supported language"`
}

// AnalyzeRepositoryOutput is the result of the analyze_repository MCP tool.
type AnalyzeRepositoryOutput struct {
	Files       int            `json:"files"`
	Symbols     int            `json:"symbols"`
	Calls       int            `json:"calls"`
	Imports     int            `json:"imports"`
	Communities int            `json:"communities"`
	Processes   int            `json:"processes"`
	Languages   map[string]int `json:"languages"`
}

// QuerySymbolsInput is the input for the query_symbols MCP tool.
type QuerySymbolsInput struct {
	Query string `json:"query" jsonschema:"substring to match against symbol names"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by symbol kind: function, method, class, struct, interface, constructor, ..."`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 20)"`
}

// QuerySymbolsOutput is the result of the query_symbols MCP tool.
type QuerySymbolsOutput struct {
	Symbols []graph.Symbol `json:"symbols"`
	Total   int            `json:"total"`
}

// GetCallersInput is the input for the get_callers MCP tool.
type GetCallersInput struct {
	SymbolID string `json:"symbolId" jsonschema:"the canonical symbol id to find callers of"`
}

// GetCallersOutput is the result of the get_callers MCP tool.
type GetCallersOutput struct {
	Callers []graph.CallEdge `json:"callers"`
}

// GetCalleesInput is the input for the get_callees MCP tool.
type GetCalleesInput struct {
	SymbolID string `json:"symbolId" jsonschema:"the canonical symbol id to find callees of"`
}

// GetCalleesOutput is the result of the get_callees MCP tool.
type GetCalleesOutput struct {
	Callees []graph.CallEdge `json:"callees"`
}

// GetCommunitiesInput is the input for the get_communities MCP tool.
type GetCommunitiesInput struct{}

// GetCommunitiesOutput is the result of the get_communities MCP tool.
type GetCommunitiesOutput struct {
	Communities []graph.Community `json:"communities"`
}
