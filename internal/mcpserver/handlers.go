// Package mcpserver exposes the analysis pipeline as MCP tools over
// stdio, modeled on the teacher's internal/mcptools.CodeIntelService.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mycelium-dev/mycelium/internal/export"
	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/pipeline"
)

// Service holds the graph store produced by the most recent
// analyze_repository call; query/callers/callees/communities tools read
// from it until the next analyze_repository call replaces it.
type Service struct {
	store graph.Store
}

// NewService creates an empty Service; call AnalyzeRepository (directly or
// via the MCP tool) before any other tool.
func NewService() *Service {
	return &Service{}
}

// AnalyzeRepository runs the full six-phase pipeline against repoPath and
// keeps the resulting store for subsequent tool calls.
func (s *Service) AnalyzeRepository(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeRepositoryInput,
) (*mcp.CallToolResult, AnalyzeRepositoryOutput, error) {
	if input.RepoPath == "" {
		return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("repoPath is required")
	}

	cfg := pipeline.DefaultConfig()
	cfg.Root = input.RepoPath
	cfg.Quiet = true
	for _, l := range input.Languages {
		cfg.Languages = append(cfg.Languages, graph.Language(strings.ToLower(l)))
	}

	result, err := pipeline.Run(ctx, cfg, nil)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("analyze repository: %w", err)
	}

	store, err := storeFromDocument(ctx, result.Document)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("rebuild query store: %w", err)
	}
	s.store = store

	return nil, AnalyzeRepositoryOutput{
		Files: result.Document.Stats.Files, Symbols: result.Document.Stats.Symbols,
		Calls: result.Document.Stats.Calls, Imports: result.Document.Stats.Imports,
		Communities: result.Document.Stats.Communities, Processes: result.Document.Stats.Processes,
		Languages: result.Document.Stats.Languages,
	}, nil
}

// QuerySymbols searches for symbols by name substring.
func (s *Service) QuerySymbols(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuerySymbolsInput,
) (*mcp.CallToolResult, QuerySymbolsOutput, error) {
	if s.store == nil {
		return nil, QuerySymbolsOutput{}, fmt.Errorf("no repository analysed yet: call analyze_repository first")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	all, err := s.store.AllSymbols(ctx)
	if err != nil {
		return nil, QuerySymbolsOutput{}, fmt.Errorf("list symbols: %w", err)
	}

	query := strings.ToLower(input.Query)
	kind := strings.ToLower(input.Kind)

	var matches []graph.Symbol
	for _, sym := range all {
		if query != "" && !strings.Contains(strings.ToLower(sym.Name), query) {
			continue
		}
		if kind != "" && strings.ToLower(string(sym.Kind)) != kind {
			continue
		}
		matches = append(matches, sym)
		if len(matches) >= limit {
			break
		}
	}

	return nil, QuerySymbolsOutput{Symbols: matches, Total: len(matches)}, nil
}

// GetCallers returns every call edge targeting symbolId.
func (s *Service) GetCallers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetCallersInput,
) (*mcp.CallToolResult, GetCallersOutput, error) {
	if s.store == nil {
		return nil, GetCallersOutput{}, fmt.Errorf("no repository analysed yet: call analyze_repository first")
	}
	if input.SymbolID == "" {
		return nil, GetCallersOutput{}, fmt.Errorf("symbolId is required")
	}
	callers, err := s.store.CallersOf(ctx, input.SymbolID)
	if err != nil {
		return nil, GetCallersOutput{}, fmt.Errorf("callers of %s: %w", input.SymbolID, err)
	}
	return nil, GetCallersOutput{Callers: callers}, nil
}

// GetCallees returns every call edge originating from symbolId.
func (s *Service) GetCallees(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetCalleesInput,
) (*mcp.CallToolResult, GetCalleesOutput, error) {
	if s.store == nil {
		return nil, GetCalleesOutput{}, fmt.Errorf("no repository analysed yet: call analyze_repository first")
	}
	if input.SymbolID == "" {
		return nil, GetCalleesOutput{}, fmt.Errorf("symbolId is required")
	}
	callees, err := s.store.CalleesOf(ctx, input.SymbolID)
	if err != nil {
		return nil, GetCalleesOutput{}, fmt.Errorf("callees of %s: %w", input.SymbolID, err)
	}
	return nil, GetCalleesOutput{Callees: callees}, nil
}

// GetCommunities returns every community discovered by the last analysis.
func (s *Service) GetCommunities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetCommunitiesInput,
) (*mcp.CallToolResult, GetCommunitiesOutput, error) {
	if s.store == nil {
		return nil, GetCommunitiesOutput{}, fmt.Errorf("no repository analysed yet: call analyze_repository first")
	}
	communities, err := s.store.AllCommunities(ctx)
	if err != nil {
		return nil, GetCommunitiesOutput{}, fmt.Errorf("list communities: %w", err)
	}
	return nil, GetCommunitiesOutput{Communities: communities}, nil
}

// storeFromDocument rebuilds a queryable in-memory Store from a completed
// run's JSON document, since pipeline.Run closes its own scratch store
// before returning.
func storeFromDocument(ctx context.Context, doc *export.Document) (graph.Store, error) {
	store := graph.NewMemGraph()
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	for _, f := range doc.Structure.Files {
		if err := store.AddFile(ctx, graph.File{Path: f.Path, Language: f.Language, Size: f.Size, Lines: f.Lines}); err != nil {
			return nil, err
		}
	}
	for _, fo := range doc.Structure.Folders {
		if err := store.AddFolder(ctx, graph.Folder{Path: fo.Path, FileCount: fo.FileCount}); err != nil {
			return nil, err
		}
	}
	for _, sym := range doc.Symbols {
		if err := store.AddSymbol(ctx, graph.Symbol{
			ID: sym.ID, Name: sym.Name, Kind: sym.Type, File: sym.File, Line: sym.Line,
			Visibility: sym.Visibility, Exported: sym.Exported, Parent: sym.Parent, Language: sym.Language,
		}); err != nil {
			return nil, err
		}
	}
	for _, c := range doc.Calls {
		if err := store.AddCallEdge(ctx, graph.CallEdge{From: c.From, To: c.To, Confidence: c.Confidence, Tier: c.Tier, Reason: c.Reason, Line: c.Line}); err != nil {
			return nil, err
		}
	}
	for _, imp := range doc.Imports.FileImports {
		if err := store.AddImportEdge(ctx, graph.ImportEdge{From: imp.From, To: imp.To, Statement: imp.Statement}); err != nil {
			return nil, err
		}
	}
	for _, c := range doc.Communities {
		if err := store.AddCommunity(ctx, c); err != nil {
			return nil, err
		}
	}
	for _, p := range doc.Processes {
		if err := store.AddProcess(ctx, p); err != nil {
			return nil, err
		}
	}
	return store, nil
}
