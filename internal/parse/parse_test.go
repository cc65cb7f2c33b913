package parse_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
	"github.com/mycelium-dev/mycelium/internal/parse"
)

// TestRun_GoFixture_PopulatesStoreAndReturnsRawCallsImports exercises the
// real tree-sitter Go analyser end-to-end against the go_project fixture,
// verifying both the Store side-effects and the returned raw data Phase
// 3/4 consume.
func TestRun_GoFixture_PopulatesStoreAndReturnsRawCallsImports(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	st := graph.NewSymbolTable()
	ns := graph.NewNamespaceIndex()
	registry := langs.NewRegistry()

	files := []graph.File{
		{Path: "../../testdata/fixtures/go_project/model.go", Language: graph.LangGo},
		{Path: "../../testdata/fixtures/go_project/service.go", Language: graph.LangGo},
	}

	result, err := parse.Run(ctx, store, st, ns, files, parse.Options{Registry: registry})
	require.NoError(t, err)

	symbols, err := store.AllSymbols(ctx)
	require.NoError(t, err)
	byName := make(map[string]graph.Symbol)
	for _, s := range symbols {
		byName[s.Name] = s
	}
	assert.Contains(t, byName, "User")
	assert.Contains(t, byName, "Repository")
	assert.Contains(t, byName, "UserService")
	assert.Equal(t, graph.SymbolKindMethod, byName["CreateUser"].Kind)

	// The symbol table must be populated alongside the store, for Phase
	// 3/4's lookups.
	id, ok := st.LookupInFile("../../testdata/fixtures/go_project/model.go", "User")
	require.True(t, ok)
	assert.Equal(t, "../../testdata/fixtures/go_project/model.go:User", id)

	var sawImportFmt bool
	for _, imp := range result.Imports {
		if imp.Target == "fmt" {
			sawImportFmt = true
			assert.Equal(t, "../../testdata/fixtures/go_project/service.go", imp.File)
		}
	}
	assert.True(t, sawImportFmt)

	var sawNewUserCall bool
	for _, c := range result.Calls {
		if c.Callee == "newUser" {
			sawNewUserCall = true
			assert.Equal(t, "CreateUser", c.CallerName)
		}
	}
	assert.True(t, sawNewUserCall)
}

// TestRun_BuiltinCallee_ExcludedFromResult verifies calls to a language's
// static builtin set (spec.md §4.4) never reach Phase 3/4 resolution,
// regardless of whether an unrelated symbol happens to share the name.
func TestRun_BuiltinCallee_ExcludedFromResult(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	st := graph.NewSymbolTable()
	ns := graph.NewNamespaceIndex()
	registry := langs.NewRegistry()

	src := `package demo

func Process(items []int) []int {
	out := append(items, 1)
	return helper(out)
}

func helper(items []int) []int {
	return items
}
`
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	files := []graph.File{{Path: path, Language: graph.LangGo}}
	result, err := parse.Run(ctx, store, st, ns, files, parse.Options{Registry: registry})
	require.NoError(t, err)

	for _, c := range result.Calls {
		assert.NotEqual(t, "append", c.Callee, "builtin callees must be filtered before Phase 3/4 ever sees them")
	}

	var sawHelper bool
	for _, c := range result.Calls {
		if c.Callee == "helper" {
			sawHelper = true
		}
	}
	assert.True(t, sawHelper, "non-builtin calls must still survive the filter")
}

// TestRun_UnavailableAnalyser_SkipsFileSilently verifies a language with no
// registered (or unavailable) analyser is skipped rather than erroring.
func TestRun_UnavailableAnalyser_SkipsFileSilently(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	st := graph.NewSymbolTable()
	ns := graph.NewNamespaceIndex()
	registry := langs.NewRegistry()

	files := []graph.File{{Path: "/does/not/matter.vb", Language: graph.LangVBNet}}
	result, err := parse.Run(ctx, store, st, ns, files, parse.Options{Registry: registry})
	require.NoError(t, err)
	assert.Empty(t, result.Imports)
	assert.Empty(t, result.Calls)

	symbols, err := store.AllSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

// TestRun_UnreadableFile_SkipsSilently verifies a file that cannot be read
// from disk is skipped rather than erroring out the whole phase.
func TestRun_UnreadableFile_SkipsSilently(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemGraph()
	st := graph.NewSymbolTable()
	ns := graph.NewNamespaceIndex()
	registry := langs.NewRegistry()

	files := []graph.File{{Path: "/does/not/exist.go", Language: graph.LangGo}}
	result, err := parse.Run(ctx, store, st, ns, files, parse.Options{Registry: registry})
	require.NoError(t, err)
	assert.Empty(t, result.Imports)
	assert.Empty(t, result.Calls)
}
