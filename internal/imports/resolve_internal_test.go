package imports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

func newResolverWithGoMod(t *testing.T, module string, files []graph.File) *Resolver {
	t.Helper()
	root := t.TempDir()
	if module != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module "+module+"\n\ngo 1.22\n"), 0o644))
	}
	return NewResolver(root, files, graph.NewSymbolTable(), graph.NewNamespaceIndex())
}

func TestResolveGo_ResolvesPackageDirectory(t *testing.T) {
	files := []graph.File{
		{Path: "internal/util/util.go", Language: graph.LangGo},
		{Path: "main.go", Language: graph.LangGo},
	}
	r := newResolverWithGoMod(t, "example.com/demo", files)

	target, ok := r.resolveGo("example.com/demo/internal/util")
	require.True(t, ok)
	assert.Equal(t, "internal/util/util.go", target)
}

func TestResolveGo_ExternalModule_NotResolved(t *testing.T) {
	files := []graph.File{{Path: "main.go", Language: graph.LangGo}}
	r := newResolverWithGoMod(t, "example.com/demo", files)

	_, ok := r.resolveGo("github.com/some/external")
	assert.False(t, ok)
}

func TestResolvePython_RelativeImport(t *testing.T) {
	files := []graph.File{
		{Path: "pkg/models.py", Language: graph.LangPython},
		{Path: "pkg/service.py", Language: graph.LangPython},
	}
	r := newResolverWithGoMod(t, "", files)

	target, ok := r.resolvePython(".models", "pkg/service.py")
	require.True(t, ok)
	assert.Equal(t, "pkg/models.py", target)
}

func TestResolveTSJS_RelativeSpecifierOnly(t *testing.T) {
	files := []graph.File{
		{Path: "src/utils.ts", Language: graph.LangTypeScript},
		{Path: "src/main.ts", Language: graph.LangTypeScript},
	}
	r := newResolverWithGoMod(t, "", files)

	target, ok := r.resolveTSJS("./utils", "src/main.ts")
	require.True(t, ok)
	assert.Equal(t, "src/utils.ts", target)

	_, ok = r.resolveTSJS("lodash", "src/main.ts")
	assert.False(t, ok, "bare package specifiers are not resolved (spec.md §4.5)")
}

func TestResolveRust_CratePrefix(t *testing.T) {
	files := []graph.File{
		{Path: "src/lib.rs", Language: graph.LangRust},
		{Path: "src/model/user.rs", Language: graph.LangRust},
	}
	r := newResolverWithGoMod(t, "", files)

	target, ok := r.resolveRust("crate::model::user", "src/lib.rs")
	require.True(t, ok)
	assert.Equal(t, "src/model/user.rs", target)
}

func TestResolveRust_StdNotResolved(t *testing.T) {
	r := newResolverWithGoMod(t, "", nil)
	_, ok := r.resolveRust("std::collections::HashMap", "src/lib.rs")
	assert.False(t, ok)
}

func TestResolveC_QuotedRelativeHeader(t *testing.T) {
	files := []graph.File{
		{Path: "src/main.c", Language: graph.LangC},
		{Path: "src/util.h", Language: graph.LangC},
	}
	r := newResolverWithGoMod(t, "", files)

	target, ok := r.resolveC("util.h", "src/main.c")
	require.True(t, ok)
	assert.Equal(t, "src/util.h", target)
}

func TestResolveC_SystemHeader_NotResolved(t *testing.T) {
	r := newResolverWithGoMod(t, "", nil)
	_, ok := r.resolveC("<stdio.h>", "src/main.c")
	assert.False(t, ok)
}
