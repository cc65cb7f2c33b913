package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

var _ graph.Store = (*graph.MemGraph)(nil)

func TestMemGraph_AddSymbol_CreatesDefiningFile(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemGraph()

	err := g.AddSymbol(ctx, graph.Symbol{
		ID: "go:main.go:User", Name: "User", Kind: graph.SymbolKindStruct,
		File: "main.go", Language: graph.LangGo,
	})
	require.NoError(t, err)

	files, err := g.AllFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].Path)

	ok, err := g.HasNode(ctx, "go:main.go:User")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemGraph_CallersAndCallees(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemGraph()

	require.NoError(t, g.AddCallEdge(ctx, graph.CallEdge{From: "a", To: "b", Tier: "A", Confidence: 1.0}))
	require.NoError(t, g.AddCallEdge(ctx, graph.CallEdge{From: "c", To: "b", Tier: "B", Confidence: 0.6}))
	require.NoError(t, g.AddCallEdge(ctx, graph.CallEdge{From: "a", To: "d", Tier: "A", Confidence: 1.0}))

	callers, err := g.CallersOf(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, callers, 2)

	callees, err := g.CalleesOf(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, callees, 2)

	none, err := g.CallersOf(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemGraph_SymbolsInFile(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemGraph()

	require.NoError(t, g.AddSymbol(ctx, graph.Symbol{ID: "1", Name: "Foo", File: "a.go"}))
	require.NoError(t, g.AddSymbol(ctx, graph.Symbol{ID: "2", Name: "Bar", File: "a.go"}))
	require.NoError(t, g.AddSymbol(ctx, graph.Symbol{ID: "3", Name: "Baz", File: "b.go"}))

	syms, err := g.SymbolsInFile(ctx, "a.go")
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestMemGraph_AllEnumerations_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemGraph()
	require.NoError(t, g.AddCallEdge(ctx, graph.CallEdge{From: "a", To: "b"}))

	edges, err := g.AllCallEdges(ctx)
	require.NoError(t, err)
	edges[0].From = "mutated"

	edges2, err := g.AllCallEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", edges2[0].From, "mutating a returned slice must not affect store state")
}

func TestMemGraph_HasNode_UnknownID(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemGraph()
	ok, err := g.HasNode(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
