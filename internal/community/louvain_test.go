package community_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/community"
	"github.com/mycelium-dev/mycelium/internal/graph"
)

func symbolsFor(ids ...string) []graph.Symbol {
	out := make([]graph.Symbol, len(ids))
	for i, id := range ids {
		out[i] = graph.Symbol{ID: id, Name: id, File: "a.go"}
	}
	return out
}

// TestRun_TwoDenseClusters verifies that two densely interconnected groups
// with a single bridging edge are separated into two distinct communities.
func TestRun_TwoDenseClusters(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()

	ids := []string{"a1", "a2", "a3", "b1", "b2", "b3"}
	symbols := symbolsFor(ids...)

	var edges []graph.CallEdge
	clique := func(members ...string) {
		for i := range members {
			for j := i + 1; j < len(members); j++ {
				edges = append(edges, graph.CallEdge{From: members[i], To: members[j], Confidence: 1.0})
			}
		}
	}
	clique("a1", "a2", "a3")
	clique("b1", "b2", "b3")
	edges = append(edges, graph.CallEdge{From: "a1", To: "b1", Confidence: 0.3})

	communities, err := community.Run(ctx, store, symbols, edges, community.Options{MaxCommunitySize: 50})
	require.NoError(t, err)
	require.Len(t, communities, 2, "two dense cliques joined by one weak bridge should separate into two communities")

	var all []string
	for _, c := range communities {
		all = append(all, c.Members...)
	}
	assert.ElementsMatch(t, ids, all, "every symbol must belong to exactly one emitted community")
}

// TestRun_SingletonsDropped verifies that isolated nodes with no edges do
// not produce singleton communities.
func TestRun_SingletonsDropped(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	symbols := symbolsFor("a1", "a2", "isolated")
	edges := []graph.CallEdge{{From: "a1", To: "a2", Confidence: 1.0}}

	communities, err := community.Run(ctx, store, symbols, edges, community.Options{MaxCommunitySize: 50})
	require.NoError(t, err)
	for _, c := range communities {
		assert.NotContains(t, c.Members, "isolated")
		assert.GreaterOrEqual(t, len(c.Members), 2, "singleton communities must be dropped")
	}
}

// TestRun_CohesionWithinRange verifies cohesion is always in [0, 1] and
// rounded to 3 decimals.
func TestRun_CohesionWithinRange(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	ids := []string{"a1", "a2", "a3", "a4"}
	symbols := symbolsFor(ids...)
	edges := []graph.CallEdge{
		{From: "a1", To: "a2", Confidence: 1.0},
		{From: "a2", To: "a3", Confidence: 1.0},
		{From: "a3", To: "a4", Confidence: 1.0},
		{From: "a4", To: "a1", Confidence: 1.0},
	}

	communities, err := community.Run(ctx, store, symbols, edges, community.Options{MaxCommunitySize: 50})
	require.NoError(t, err)
	require.NotEmpty(t, communities)
	for _, c := range communities {
		assert.GreaterOrEqual(t, c.Cohesion, 0.0)
		assert.LessOrEqual(t, c.Cohesion, 1.0)
	}
}

// TestRun_MaxCommunitySizeBound verifies that setting a small
// MaxCommunitySize forces the auto-tune/recursive-split path to keep every
// emitted community at or under the bound.
func TestRun_MaxCommunitySizeBound(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()

	const n = 30
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "s" + string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	symbols := symbolsFor(ids...)

	var edges []graph.CallEdge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, graph.CallEdge{From: ids[i], To: ids[j], Confidence: 1.0})
		}
	}

	communities, err := community.Run(ctx, store, symbols, edges, community.Options{MaxCommunitySize: 5})
	require.NoError(t, err)
	for _, c := range communities {
		assert.LessOrEqual(t, len(c.Members), 5, "no community may exceed max_community_size after auto-tune/recursive split")
	}
}

// TestRun_Empty verifies the zero-input case is
// handled without error.
func TestRun_Empty(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	communities, err := community.Run(ctx, store, nil, nil, community.Options{MaxCommunitySize: 50})
	require.NoError(t, err)
	assert.Empty(t, communities)
}

// TestRun_WritesCommunitiesToStore verifies that the detected community is
// recorded in the store under the same id Run returns.
func TestRun_WritesCommunitiesToStore(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	ids := []string{"a1", "a2", "a3"}
	symbols := symbolsFor(ids...)
	edges := []graph.CallEdge{
		{From: "a1", To: "a2", Confidence: 1.0},
		{From: "a2", To: "a3", Confidence: 1.0},
		{From: "a1", To: "a3", Confidence: 1.0},
	}

	communities, err := community.Run(ctx, store, symbols, edges, community.Options{MaxCommunitySize: 50})
	require.NoError(t, err)
	require.Len(t, communities, 1)

	stored, err := store.AllCommunities(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, communities[0].ID, stored[0].ID)
}
