// Package langs implements the per-language analyser contract used by
// Phase 2 (spec.md §4.4): symbol, import, and call extraction over a
// tree-sitter AST, dispatched by file extension.
package langs

import "github.com/mycelium-dev/mycelium/internal/graph"

// RawSymbol is a symbol as extracted from an AST, before Phase 2 assigns it
// a canonical id. PendingID holds the "_pending_N" placeholder the analyser
// generated during its own walk, purely to keep sibling symbols distinct
// before the phase's collision-disambiguation pass runs.
type RawSymbol struct {
	PendingID  string
	Name       string
	Kind       graph.SymbolKind
	Line       int
	Visibility graph.Visibility
	Exported   bool
	Parent     string
	CtorParams []graph.Param
}

// RawImport is an import/use statement as extracted from an AST, before
// Phase 3 resolves its target file.
type RawImport struct {
	Target    string // module path, namespace, or header filename
	Statement string // verbatim source text
}

// RawCall is a call site as extracted from an AST, before Phase 4 resolves
// its callee symbol.
type RawCall struct {
	CallerName        string // enclosing-function name the call was found in
	Qualifier         string // expression left of '.' or '::', if any
	Callee            string
	Line              int
	EnclosingFunction string
}

// ExtractResult is everything one analyser pass over a file yields.
type ExtractResult struct {
	Symbols []RawSymbol
	Imports []RawImport
	Calls   []RawCall
}

// Analyser is the per-language contract Phase 2 dispatches to (spec.md
// §4.4: "extract-symbols, extract-imports, extract-calls,
// builtin-exclusions, extensions, language-name, is-available").
type Analyser interface {
	Language() graph.Language
	Extensions() []string
	IsAvailable() bool
	Extract(path string, source []byte) (ExtractResult, error)
	IsBuiltinCallee(name string) bool
}

// baseBuiltins is embedded by analysers to provide IsBuiltinCallee over a
// static exclusion set (spec.md §4.4).
type baseBuiltins struct {
	set map[string]struct{}
}

func newBaseBuiltins(names ...string) baseBuiltins {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return baseBuiltins{set: set}
}

func (b baseBuiltins) IsBuiltinCallee(name string) bool {
	_, ok := b.set[name]
	return ok
}
