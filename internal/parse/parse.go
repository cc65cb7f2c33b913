// Package parse implements Phase 2 (spec.md §4.4): per-file tree-sitter
// parsing and symbol/import/call extraction, canonical id assignment, and
// insertion into the Knowledge Graph, Symbol Table, and Namespace Index.
package parse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
)

// FileImport and FileCall carry a file's raw imports and calls forward from
// its extraction pass so Phase 3/4 can resolve them against the
// now-canonical symbol ids.
type FileImport struct {
	File   string
	Target string
	Statement string
}

type FileCall struct {
	CallerFile        string
	CallerName        string
	Qualifier         string
	Callee            string
	Line              int
	EnclosingFunction string
}

// Options configures Phase 2.
type Options struct {
	Registry    *langs.Registry
	Parallelism int // maximum concurrent extractions; 0 means no limit, 1 extracts one file at a time

	// Root is joined onto each file's (repo-relative) path before reading it
	// from disk. Left empty when files already carry absolute or
	// cwd-relative paths.
	Root string
}

// Result accumulates everything Phase 2 produced, for Phase 3/4 to consume
// alongside the Store/SymbolTable/NamespaceIndex it also populated.
type Result struct {
	Imports []FileImport
	Calls   []FileCall
}

// fileExtraction is one file's raw analyser output, still carrying
// "_pending_N" ids, computed off the critical section so extraction can be
// parallelized (spec.md §5).
type fileExtraction struct {
	file     graph.File
	res      langs.ExtractResult
	analyser langs.Analyser
}

// Run executes Phase 2 over files (as discovered by Phase 1), writing
// symbols into store, st, and ns, and returning the raw import/call data
// for Phase 3/4.
func Run(ctx context.Context, store graph.Store, st *graph.SymbolTable, ns *graph.NamespaceIndex, files []graph.File, opts Options) (Result, error) {
	extractions := make([]fileExtraction, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			analyser, ok := opts.Registry.ByLanguage(f.Language)
			if !ok || !analyser.IsAvailable() {
				return nil
			}
			diskPath := f.Path
			if opts.Root != "" && !filepath.IsAbs(diskPath) {
				diskPath = filepath.Join(opts.Root, diskPath)
			}
			source, err := os.ReadFile(diskPath)
			if err != nil {
				return nil // spec.md §4.4: IO failure skips the file silently
			}
			res, err := analyser.Extract(f.Path, source)
			if err != nil {
				return nil // spec.md §4.4: parse failure skips the file silently
			}
			extractions[i] = fileExtraction{file: f, res: res, analyser: analyser}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	// Insertion into the shared stores happens sequentially, in file-walk
	// order, so that id assignment and collision suffixing stay
	// deterministic regardless of how extraction itself was scheduled.
	var out Result
	for _, ex := range extractions {
		if ex.file.Path == "" {
			continue
		}
		ids := assignCanonicalIDs(ex.file.Path, ex.res.Symbols)
		for i, raw := range ex.res.Symbols {
			sym := graph.Symbol{
				ID: ids[i], Name: raw.Name, Kind: raw.Kind, File: ex.file.Path, Line: raw.Line,
				Visibility: raw.Visibility, Exported: raw.Exported, Parent: raw.Parent,
				Language: ex.file.Language, CtorParams: raw.CtorParams,
			}
			if err := store.AddSymbol(ctx, sym); err != nil {
				return out, fmt.Errorf("add symbol %s: %w", sym.ID, err)
			}
			st.Insert(sym)
			if sym.Kind == graph.SymbolKindNamespace {
				ns.DeclareNamespace(sym.Name, sym.File)
			}
		}
		for _, imp := range ex.res.Imports {
			out.Imports = append(out.Imports, FileImport{File: ex.file.Path, Target: imp.Target, Statement: imp.Statement})
		}
		for _, call := range ex.res.Calls {
			if ex.analyser.IsBuiltinCallee(call.Callee) {
				continue // spec.md §4.4: builtin-named callees are excluded before resolution
			}
			out.Calls = append(out.Calls, FileCall{
				CallerFile: ex.file.Path, CallerName: call.CallerName, Qualifier: call.Qualifier,
				Callee: call.Callee, Line: call.Line, EnclosingFunction: call.EnclosingFunction,
			})
		}
	}

	return out, nil
}

// assignCanonicalIDs replaces each symbol's "_pending_N" placeholder with
// its canonical id (spec.md §3): "{file}:{name}" or "{file}:{parent}.{name}"
// when nested, suffixing "_1", "_2", ... on collisions in AST-visit order.
func assignCanonicalIDs(file string, symbols []langs.RawSymbol) []string {
	seen := make(map[string]int, len(symbols))
	ids := make([]string, len(symbols))
	for i, sym := range symbols {
		base := file + ":" + sym.Name
		if sym.Parent != "" {
			base = file + ":" + sym.Parent + "." + sym.Name
		}
		count := seen[base]
		seen[base] = count + 1
		if count == 0 {
			ids[i] = base
		} else {
			ids[i] = fmt.Sprintf("%s_%d", base, count)
		}
	}
	return ids
}
