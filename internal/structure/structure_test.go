package structure_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
	"github.com/mycelium-dev/mycelium/internal/structure"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestWalk_DiscoversRecognisedFiles verifies recognised source files are
// recorded with their language and that excluded directories are skipped
// entirely.
func TestWalk_DiscoversRecognisedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(root, "README.md"), "# hello\n")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "module.exports = {}\n")

	ctx := context.Background()
	store := graph.NewMemGraph()
	result, err := structure.Walk(ctx, store, structure.Options{Root: root, Registry: langs.NewRegistry()})
	require.NoError(t, err)

	var goFile *graph.File
	for i := range result.Files {
		if result.Files[i].Path == "main.go" {
			goFile = &result.Files[i]
		}
		assert.NotEqual(t, "node_modules/pkg/index.js", result.Files[i].Path, "excluded directories must be skipped")
	}
	require.NotNil(t, goFile, "main.go should be discovered")
	assert.Equal(t, graph.LangGo, goFile.Language)
	assert.Equal(t, 3, goFile.Lines)
}

// TestWalk_MaxFileSize_SkipsOversizedFiles verifies files larger than
// MaxFileSize are excluded from the result.
func TestWalk_MaxFileSize_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "big.go"), "package main\n// "+string(make([]byte, 200))+"\n")

	ctx := context.Background()
	store := graph.NewMemGraph()
	result, err := structure.Walk(ctx, store, structure.Options{Root: root, Registry: langs.NewRegistry(), MaxFileSize: 10})
	require.NoError(t, err)
	assert.Empty(t, result.Files, "oversized file must be skipped")
}

// TestWalk_LanguageFilter_RestrictsToRequestedLanguages verifies a
// non-matching recognised file is excluded when a language filter is set.
func TestWalk_LanguageFilter_RestrictsToRequestedLanguages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "script.py"), "print('hi')\n")

	ctx := context.Background()
	store := graph.NewMemGraph()
	result, err := structure.Walk(ctx, store, structure.Options{
		Root: root, Registry: langs.NewRegistry(), LanguageFilter: []graph.Language{graph.LangPython},
	})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "script.py", result.Files[0].Path)
}

// TestWalk_FolderFileCounts verifies folder file counts reflect direct
// children only.
func TestWalk_FolderFileCounts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "a.go"), "package pkg\n")
	writeFile(t, filepath.Join(root, "pkg", "b.go"), "package pkg\n")

	ctx := context.Background()
	store := graph.NewMemGraph()
	result, err := structure.Walk(ctx, store, structure.Options{Root: root, Registry: langs.NewRegistry()})
	require.NoError(t, err)

	var pkgFolder *graph.Folder
	for i := range result.Folders {
		if result.Folders[i].Path == "pkg" {
			pkgFolder = &result.Folders[i]
		}
	}
	require.NotNil(t, pkgFolder)
	assert.Equal(t, 2, pkgFolder.FileCount)
}
