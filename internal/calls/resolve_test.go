package calls_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/calls"
	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/parse"
)

func newTable(symbols []graph.Symbol) *graph.SymbolTable {
	st := graph.NewSymbolTable()
	for _, s := range symbols {
		st.Insert(s)
	}
	return st
}

// TestRun_TierA_ImportResolved verifies that a call to a symbol defined in
// an imported file resolves via Tier A rather than falling through to the
// weaker fuzzy tiers.
func TestRun_TierA_ImportResolved(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "main.go:Run", Name: "Run", File: "main.go", Kind: graph.SymbolKindFunction},
		{ID: "helper.go:Helper", Name: "Helper", File: "helper.go", Kind: graph.SymbolKindFunction},
	}
	st := newTable(symbols)
	importEdges := []graph.ImportEdge{{From: "main.go", To: "helper.go"}}
	resolver := calls.NewResolver(st, importEdges, symbols)

	store := graph.NewMemGraph()
	rawCalls := []parse.FileCall{{CallerFile: "main.go", CallerName: "Run", Callee: "Helper", Line: 10}}

	edges, err := calls.Run(ctx, store, resolver, rawCalls)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "A", edges[0].Tier)
	assert.Equal(t, "import-resolved", edges[0].Reason)
	assert.Equal(t, "helper.go:Helper", edges[0].To)
	assert.Equal(t, 0.9, edges[0].Confidence)
}

// TestRun_TierA_InterfaceRedirection verifies that a call targeting an
// interface method redirects to a concrete implementation elsewhere.
func TestRun_TierA_InterfaceRedirection(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "main.go:Run", Name: "Run", File: "main.go", Kind: graph.SymbolKindFunction},
		{ID: "repo.go:Repository", Name: "Repository", File: "repo.go", Kind: graph.SymbolKindInterface},
		{ID: "repo.go:FindByID", Name: "FindByID", File: "repo.go", Kind: graph.SymbolKindMethod, Parent: "Repository"},
		{ID: "impl.go:FindByID", Name: "FindByID", File: "impl.go", Kind: graph.SymbolKindMethod, Parent: "SQLRepository"},
	}
	st := newTable(symbols)
	importEdges := []graph.ImportEdge{{From: "main.go", To: "repo.go"}}
	resolver := calls.NewResolver(st, importEdges, symbols)

	store := graph.NewMemGraph()
	rawCalls := []parse.FileCall{{CallerFile: "main.go", CallerName: "Run", Callee: "FindByID", Line: 5}}

	edges, err := calls.Run(ctx, store, resolver, rawCalls)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "impl.go:FindByID", edges[0].To, "call on an interface method must redirect to its concrete implementation")
	assert.Equal(t, "impl-resolved", edges[0].Reason)
	assert.Equal(t, 0.85, edges[0].Confidence)
}

// TestRun_TierA_InterfaceRedirection_PrefersImportedImplementation verifies
// that when two concrete implementations of an interface method exist, one
// in a file the caller imports and one in a file it does not, redirection
// prefers the imported implementation rather than whichever sorts first in
// the global fuzzy index.
func TestRun_TierA_InterfaceRedirection_PrefersImportedImplementation(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "main.go:Run", Name: "Run", File: "main.go", Kind: graph.SymbolKindFunction},
		{ID: "repo.go:Repository", Name: "Repository", File: "repo.go", Kind: graph.SymbolKindInterface},
		{ID: "repo.go:FindByID", Name: "FindByID", File: "repo.go", Kind: graph.SymbolKindMethod, Parent: "Repository"},
		{ID: "aaa_unimported.go:FindByID", Name: "FindByID", File: "aaa_unimported.go", Kind: graph.SymbolKindMethod, Parent: "MemRepository"},
		{ID: "sqlimpl.go:FindByID", Name: "FindByID", File: "sqlimpl.go", Kind: graph.SymbolKindMethod, Parent: "SQLRepository"},
	}
	st := newTable(symbols)
	// main.go imports repo.go (the interface) and sqlimpl.go (a concrete
	// implementation), but not aaa_unimported.go — whose name would sort
	// first in a naive global scan.
	importEdges := []graph.ImportEdge{
		{From: "main.go", To: "repo.go"},
		{From: "main.go", To: "sqlimpl.go"},
	}
	resolver := calls.NewResolver(st, importEdges, symbols)

	store := graph.NewMemGraph()
	rawCalls := []parse.FileCall{{CallerFile: "main.go", CallerName: "Run", Callee: "FindByID", Line: 5}}

	edges, err := calls.Run(ctx, store, resolver, rawCalls)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "sqlimpl.go:FindByID", edges[0].To, "redirection must prefer the caller's own imported implementation")
}

// TestRun_TierADI_FieldResolvedThroughConstructor verifies the DI-aware
// tier: a call qualified by a field whose type came from a same-file
// constructor's parameter list resolves ahead of same-file/fuzzy tiers.
func TestRun_TierADI_FieldResolvedThroughConstructor(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "service.go:NewUserService", Name: "NewUserService", File: "service.go", Kind: graph.SymbolKindConstructor,
			CtorParams: []graph.Param{{Name: "repo", Type: "Repository"}}},
		{ID: "service.go:GetUser", Name: "GetUser", File: "service.go", Kind: graph.SymbolKindMethod, Parent: "UserService"},
		{ID: "repo.go:Repository", Name: "Repository", File: "repo.go", Kind: graph.SymbolKindInterface},
		{ID: "repo.go:FindByID", Name: "FindByID", File: "repo.go", Kind: graph.SymbolKindMethod, Parent: "Repository"},
	}
	st := newTable(symbols)
	importEdges := []graph.ImportEdge{{From: "service.go", To: "repo.go"}}
	resolver := calls.NewResolver(st, importEdges, symbols)

	store := graph.NewMemGraph()
	rawCalls := []parse.FileCall{
		{CallerFile: "service.go", CallerName: "GetUser", Qualifier: "repo", Callee: "FindByID", Line: 20},
	}

	edges, err := calls.Run(ctx, store, resolver, rawCalls)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "di-resolved", edges[0].Reason)
	assert.Equal(t, 0.9, edges[0].Confidence)
}

// TestRun_TierB_SameFile verifies a call with no qualifier and no import
// target falls to the same-file tier.
func TestRun_TierB_SameFile(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "main.go:Run", Name: "Run", File: "main.go"},
		{ID: "main.go:helper", Name: "helper", File: "main.go"},
	}
	st := newTable(symbols)
	resolver := calls.NewResolver(st, nil, symbols)
	store := graph.NewMemGraph()

	edges, err := calls.Run(ctx, store, resolver, []parse.FileCall{
		{CallerFile: "main.go", CallerName: "Run", Callee: "helper", Line: 3},
	})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "B", edges[0].Tier)
	assert.Equal(t, "same-file", edges[0].Reason)
}

// TestRun_TierC_FuzzyAmbiguous verifies that multiple cross-file matches
// for the same callee name resolve at a lower confidence than a unique
// fuzzy match.
func TestRun_TierC_FuzzyAmbiguous(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "main.go:Run", Name: "Run", File: "main.go"},
		{ID: "a.go:Process", Name: "Process", File: "a.go"},
		{ID: "b.go:Process", Name: "Process", File: "b.go"},
	}
	st := newTable(symbols)
	resolver := calls.NewResolver(st, nil, symbols)
	store := graph.NewMemGraph()

	edges, err := calls.Run(ctx, store, resolver, []parse.FileCall{
		{CallerFile: "main.go", CallerName: "Run", Callee: "Process", Line: 1},
	})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "C", edges[0].Tier)
	assert.Equal(t, "fuzzy-ambiguous", edges[0].Reason)
	assert.Equal(t, 0.3, edges[0].Confidence)
}

// TestRun_TierC_FuzzyUnique verifies a single cross-file match resolves at
// the higher fuzzy-unique confidence.
func TestRun_TierC_FuzzyUnique(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "main.go:Run", Name: "Run", File: "main.go"},
		{ID: "a.go:Process", Name: "Process", File: "a.go"},
	}
	st := newTable(symbols)
	resolver := calls.NewResolver(st, nil, symbols)
	store := graph.NewMemGraph()

	edges, err := calls.Run(ctx, store, resolver, []parse.FileCall{
		{CallerFile: "main.go", CallerName: "Run", Callee: "Process", Line: 1},
	})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "fuzzy-unique", edges[0].Reason)
	assert.Equal(t, 0.5, edges[0].Confidence)
}

// TestRun_InterfaceSelfCallGuard_ExcludesOwnDeclaration verifies that when
// resolution would otherwise redirect a same-named call back onto its own
// interface declaration, the guard rejects the edge rather than recording a
// spurious self-call.
func TestRun_InterfaceSelfCallGuard_ExcludesOwnDeclaration(t *testing.T) {
	ctx := context.Background()
	symbols := []graph.Symbol{
		{ID: "repo.go:Repository", Name: "Repository", File: "repo.go", Kind: graph.SymbolKindInterface},
		{ID: "repo.go:FindByID", Name: "FindByID", File: "repo.go", Kind: graph.SymbolKindMethod, Parent: "Repository"},
		{ID: "impl.go:FindByID", Name: "FindByID", File: "impl.go", Kind: graph.SymbolKindMethod, Parent: "SQLRepository"},
	}
	st := newTable(symbols)
	resolver := calls.NewResolver(st, nil, symbols)
	store := graph.NewMemGraph()

	// impl.go's FindByID is the only same-named definition outside its own
	// file besides the interface declaration, so fuzzy resolution would
	// otherwise produce a unique match straight back onto the interface.
	edges, err := calls.Run(ctx, store, resolver, []parse.FileCall{
		{CallerFile: "impl.go", CallerName: "FindByID", Callee: "FindByID", Line: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, edges, "a same-named call resolving onto its own interface declaration must be rejected by the guard")
}

// TestRun_UnresolvableCaller_SkipsCall verifies that a raw call whose
// caller cannot be located in the Symbol Table is silently dropped rather
// than causing an error.
func TestRun_UnresolvableCaller_SkipsCall(t *testing.T) {
	ctx := context.Background()
	st := newTable(nil)
	resolver := calls.NewResolver(st, nil, nil)
	store := graph.NewMemGraph()

	edges, err := calls.Run(ctx, store, resolver, []parse.FileCall{
		{CallerFile: "main.go", CallerName: "Unknown", Callee: "Whatever", Line: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, edges)
}
