package langs

import (
	"path/filepath"
	"strings"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

// Registry dispatches files to their Analyser by extension (spec.md §4.3:
// "determine language by extension via the analyser registry").
type Registry struct {
	byExt  map[string]Analyser
	byLang map[graph.Language]Analyser
}

// NewRegistry returns a Registry with every language this module supports
// registered, Go/C#/Java/Python/Rust/C/C++/TS/JS included, VB.NET stubbed
// (IsAvailable() == false: no tree-sitter VB.NET grammar exists in the
// ecosystem this module draws its dependency stack from).
func NewRegistry() *Registry {
	r := &Registry{
		byExt:  make(map[string]Analyser),
		byLang: make(map[graph.Language]Analyser),
	}
	for _, a := range []Analyser{
		newGoAnalyser(),
		newPythonAnalyser(),
		newTSJSAnalyser(),
		newRustAnalyser(),
		newJavaAnalyser(),
		newCAnalyser(),
		newCPPAnalyser(),
		newCSharpAnalyser(),
		newVBNetAnalyser(),
	} {
		r.register(a)
	}
	return r
}

func (r *Registry) register(a Analyser) {
	r.byLang[a.Language()] = a
	for _, ext := range a.Extensions() {
		r.byExt[ext] = a
	}
}

// Lookup returns the analyser responsible for path's extension, if any.
func (r *Registry) Lookup(path string) (Analyser, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	a, ok := r.byExt[ext]
	if !ok || !a.IsAvailable() {
		return nil, false
	}
	return a, true
}

// ByLanguage returns the analyser registered for lang, if any.
func (r *Registry) ByLanguage(lang graph.Language) (Analyser, bool) {
	a, ok := r.byLang[lang]
	return a, ok
}

// Extensions returns every extension with an available analyser registered,
// used by Phase 1 to decide whether a file is "recognised" (spec.md §4.3).
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext, a := range r.byExt {
		if a.IsAvailable() {
			out = append(out, ext)
		}
	}
	return out
}
