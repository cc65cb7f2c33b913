// Package structure implements Phase 1 (spec.md §4.3): a recursive
// descent of the repository root that populates KG.files and KG.folders.
package structure

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
)

// DefaultExclusions is the default directory-basename exclusion list
// (spec.md §4.3).
var DefaultExclusions = []string{
	".git", "node_modules", "__pycache__", "bin", "obj", "dist", "build",
	"target", "packages", ".venv", "venv", ".env", ".vs", ".vscode", ".idea",
	"TestResults", ".mypy_cache", ".pytest_cache", ".tox", ".eggs",
}

// Options configures a Phase 1 walk.
type Options struct {
	Root             string
	Registry         *langs.Registry
	MaxFileSize      int64    // bytes; 0 means unlimited
	LanguageFilter   []graph.Language
	ExcludePatterns  []string // additional user-supplied basename/glob patterns
}

// Result is the set of files Phase 1 recognised, alongside the folder
// tree it discovered; downstream phases re-derive everything else from
// the Store the caller passed to Walk.
type Result struct {
	Files   []graph.File
	Folders []graph.Folder
}

// Walk performs the Phase 1 recursive descent, writing File and Folder
// nodes into store as they're discovered, and returns them for the
// pipeline's own bookkeeping (file count, phase timing, language mix).
func Walk(ctx context.Context, store graph.Store, opts Options) (Result, error) {
	exclusionSet := make(map[string]struct{}, len(DefaultExclusions))
	for _, e := range DefaultExclusions {
		exclusionSet[e] = struct{}{}
	}

	langFilter := make(map[graph.Language]struct{}, len(opts.LanguageFilter))
	for _, l := range opts.LanguageFilter {
		langFilter[l] = struct{}{}
	}

	childCounts := make(map[string]int)
	var result Result

	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // spec.md §7: soft per-file errors never abort the walk
		}
		if path == opts.Root {
			return nil
		}
		rel, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		base := d.Name()

		if d.IsDir() {
			if _, excluded := exclusionSet[base]; excluded || isDotDir(base) || matchesAny(base, opts.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(base, opts.ExcludePatterns) {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			return nil
		}

		analyser, recognised := opts.Registry.Lookup(path)
		var lang graph.Language
		if recognised {
			lang = analyser.Language()
			if len(langFilter) > 0 {
				if _, ok := langFilter[lang]; !ok {
					return nil
				}
			}
		}

		lines := 0
		if recognised {
			source, readErr := os.ReadFile(path)
			if readErr == nil {
				lines = countLines(source)
			}
		}

		f := graph.File{Path: rel, Language: lang, Size: info.Size(), Lines: lines}
		if err := store.AddFile(ctx, f); err != nil {
			return err
		}
		result.Files = append(result.Files, f)

		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." {
			dir = ""
		}
		childCounts[dir]++

		return nil
	})
	if err != nil {
		return result, err
	}

	for dir, count := range childCounts {
		folder := graph.Folder{Path: dir, FileCount: count}
		if err := store.AddFolder(ctx, folder); err != nil {
			return result, err
		}
		result.Folders = append(result.Folders, folder)
	}

	return result, nil
}

func isDotDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := 0
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}
