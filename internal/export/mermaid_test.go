package export_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycelium-dev/mycelium/internal/export"
	"github.com/mycelium-dev/mycelium/internal/graph"
)

// TestGenerateMermaid_ClustersAndCallEdges verifies community members are
// nested in a subgraph, non-clustered symbols are plotted loose, and call
// edges render as arrows between the two.
func TestGenerateMermaid_ClustersAndCallEdges(t *testing.T) {
	doc := &export.Document{
		Symbols: []export.SymbolExport{
			{ID: "a", Name: "Alpha"},
			{ID: "b", Name: "Beta"},
			{ID: "c", Name: "Gamma"},
		},
		Communities: []graph.Community{
			{ID: "community_0", Label: "Core", Members: []string{"a", "b"}},
		},
		Calls: []export.CallExport{
			{From: "a", To: "b"},
			{From: "b", To: "c"},
		},
	}

	out := export.GenerateMermaid(doc)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "subgraph")
	assert.Contains(t, out, "Core")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Beta")
	assert.Contains(t, out, "Gamma")
	assert.Contains(t, out, "-->")
}

// TestGenerateMermaid_Empty verifies an empty document renders just the
// graph header without panicking.
func TestGenerateMermaid_Empty(t *testing.T) {
	out := export.GenerateMermaid(&export.Document{})
	assert.Equal(t, "graph TD\n", out)
}
