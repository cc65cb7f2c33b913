// Package calls implements Phase 4 (spec.md §4.6): tiered call resolution
// (import-resolved, DI-aware, same-file, fuzzy-global) with interface
// redirection and the interface-self-call guard.
package calls

import (
	"context"
	"fmt"
	"strings"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/parse"
)

const (
	confidenceImportResolved = 0.9
	confidenceImplResolved   = 0.85
	confidenceDIResolved     = 0.9
	confidenceDIImplResolved = 0.85
	confidenceSameFile       = 0.85
	confidenceFuzzyUnique    = 0.5
	confidenceFuzzyAmbiguous = 0.3
)

// Resolver holds everything Phase 4 needs to resolve one raw call: the
// Symbol Table, a file's outgoing import list, and per-file lookup of
// symbols by name (for parent/kind checks the Symbol Table alone can't
// answer directly).
type Resolver struct {
	st            *graph.SymbolTable
	importsByFile map[string][]string
	byFileByName  map[string]map[string]graph.Symbol
	fieldTypes    map[string]map[string]string // file -> normalized field name -> type
}

// NewResolver builds a Resolver from Phase 3's import edges and every
// symbol the run has discovered so far.
func NewResolver(st *graph.SymbolTable, importEdges []graph.ImportEdge, symbols []graph.Symbol) *Resolver {
	r := &Resolver{
		st:            st,
		importsByFile: make(map[string][]string),
		byFileByName:  make(map[string]map[string]graph.Symbol),
		fieldTypes:    make(map[string]map[string]string),
	}
	for _, e := range importEdges {
		r.importsByFile[e.From] = append(r.importsByFile[e.From], e.To)
	}
	for _, s := range symbols {
		byName, ok := r.byFileByName[s.File]
		if !ok {
			byName = make(map[string]graph.Symbol)
			r.byFileByName[s.File] = byName
		}
		byName[s.Name] = s

		if s.Kind == graph.SymbolKindConstructor {
			ft, ok := r.fieldTypes[s.File]
			if !ok {
				ft = make(map[string]string)
				r.fieldTypes[s.File] = ft
			}
			for _, p := range s.CtorParams {
				ft[normalizeField(p.Name)] = p.Type
			}
		}
	}
	return r
}

func normalizeField(name string) string {
	return strings.TrimPrefix(name, "_")
}

// parentIsInterface reports whether sym's declared Parent is itself a
// symbol of kind Interface in the same file.
func (r *Resolver) parentIsInterface(sym graph.Symbol) bool {
	if sym.Parent == "" {
		return false
	}
	byName, ok := r.byFileByName[sym.File]
	if !ok {
		return false
	}
	parent, ok := byName[sym.Parent]
	return ok && parent.Kind == graph.SymbolKindInterface
}

// Run resolves every raw call against the shared stores, writing CallEdge
// rows into store.
func Run(ctx context.Context, store graph.Store, resolver *Resolver, rawCalls []parse.FileCall) ([]graph.CallEdge, error) {
	var edges []graph.CallEdge
	for _, rc := range rawCalls {
		edge, ok := resolver.resolveOne(rc)
		if !ok {
			continue
		}
		if err := store.AddCallEdge(ctx, edge); err != nil {
			return nil, fmt.Errorf("add call edge %s->%s: %w", edge.From, edge.To, err)
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func (r *Resolver) resolveOne(rc parse.FileCall) (graph.CallEdge, bool) {
	callerID, ok := r.lookupCaller(rc.CallerFile, rc.CallerName)
	if !ok {
		return graph.CallEdge{}, false
	}

	if edge, ok := r.tierADI(rc, callerID); ok {
		return edge, r.guard(rc, edge)
	}
	if edge, ok := r.tierA(rc, callerID); ok {
		return edge, r.guard(rc, edge)
	}
	if edge, ok := r.tierB(rc, callerID); ok {
		return edge, r.guard(rc, edge)
	}
	if edge, ok := r.tierC(rc, callerID); ok {
		return edge, r.guard(rc, edge)
	}
	return graph.CallEdge{}, false
}

func (r *Resolver) lookupCaller(file, name string) (string, bool) {
	if id, ok := r.st.LookupInFile(file, name); ok {
		return id, true
	}
	for _, e := range r.st.LookupGlobal(name) {
		if e.File == file {
			return e.ID, true
		}
	}
	return "", false
}

// tierA is the import-resolved tier (spec.md §4.6), including interface
// redirection.
func (r *Resolver) tierA(rc parse.FileCall, callerID string) (graph.CallEdge, bool) {
	for _, importedFile := range r.importsByFile[rc.CallerFile] {
		targetID, ok := r.st.LookupInFile(importedFile, rc.Callee)
		if !ok || targetID == callerID {
			continue
		}
		targetSym := r.byFileByName[importedFile][rc.Callee]

		if r.parentIsInterface(targetSym) && rc.CallerName != rc.Callee {
			if implID, ok := r.findImplementation(rc.Callee, importedFile, rc.CallerFile); ok {
				return graph.CallEdge{From: callerID, To: implID, Confidence: confidenceImplResolved, Tier: "A", Reason: "impl-resolved", Line: rc.Line}, true
			}
		}
		return graph.CallEdge{From: callerID, To: targetID, Confidence: confidenceImportResolved, Tier: "A", Reason: "import-resolved", Line: rc.Line}, true
	}
	return graph.CallEdge{}, false
}

// findImplementation searches first the caller's other imported files for a
// concrete (non-interface-parented) same-named symbol; only if that yields
// nothing does it fall back to the global fuzzy index (spec.md §4.6: prefer
// an implementation the caller actually imports over one that merely exists
// somewhere in the repo).
func (r *Resolver) findImplementation(name, interfaceFile, callerFile string) (string, bool) {
	for _, importedFile := range r.importsByFile[callerFile] {
		if importedFile == interfaceFile {
			continue
		}
		id, ok := r.st.LookupInFile(importedFile, name)
		if !ok {
			continue
		}
		if sym := r.byFileByName[importedFile][name]; !r.parentIsInterface(sym) {
			return id, true
		}
	}
	for _, e := range r.st.LookupGlobalExcludingFile(name, interfaceFile) {
		sym := r.byFileByName[e.File][name]
		if !r.parentIsInterface(sym) {
			return e.ID, true
		}
	}
	return "", false
}

// tierADI is the DI-aware tier: a call qualified by a field whose type was
// derived from a same-file constructor's parameter list (spec.md §4.6).
func (r *Resolver) tierADI(rc parse.FileCall, callerID string) (graph.CallEdge, bool) {
	if rc.Qualifier == "" {
		return graph.CallEdge{}, false
	}
	fieldTypes, ok := r.fieldTypes[rc.CallerFile]
	if !ok {
		return graph.CallEdge{}, false
	}
	typeName, ok := fieldTypes[normalizeField(rc.Qualifier)]
	if !ok {
		return graph.CallEdge{}, false
	}

	for _, importedFile := range r.importsByFile[rc.CallerFile] {
		if _, hasType := r.st.LookupInFile(importedFile, typeName); !hasType {
			continue
		}
		targetID, hasCallee := r.st.LookupInFile(importedFile, rc.Callee)
		if !hasCallee || targetID == callerID {
			continue
		}
		targetSym := r.byFileByName[importedFile][rc.Callee]
		if r.parentIsInterface(targetSym) && rc.CallerName != rc.Callee {
			if implID, ok := r.findImplementation(rc.Callee, importedFile, rc.CallerFile); ok {
				return graph.CallEdge{From: callerID, To: implID, Confidence: confidenceDIImplResolved, Tier: "A", Reason: "di-impl-resolved", Line: rc.Line}, true
			}
		}
		return graph.CallEdge{From: callerID, To: targetID, Confidence: confidenceDIResolved, Tier: "A", Reason: "di-resolved", Line: rc.Line}, true
	}
	return graph.CallEdge{}, false
}

func (r *Resolver) tierB(rc parse.FileCall, callerID string) (graph.CallEdge, bool) {
	targetID, ok := r.st.LookupInFile(rc.CallerFile, rc.Callee)
	if !ok || targetID == callerID {
		return graph.CallEdge{}, false
	}
	return graph.CallEdge{From: callerID, To: targetID, Confidence: confidenceSameFile, Tier: "B", Reason: "same-file", Line: rc.Line}, true
}

func (r *Resolver) tierC(rc parse.FileCall, callerID string) (graph.CallEdge, bool) {
	matches := r.st.LookupGlobalExcludingFile(rc.Callee, rc.CallerFile)
	if len(matches) == 0 {
		return graph.CallEdge{}, false
	}
	if len(matches) == 1 {
		return graph.CallEdge{From: callerID, To: matches[0].ID, Confidence: confidenceFuzzyUnique, Tier: "C", Reason: "fuzzy-unique", Line: rc.Line}, true
	}
	return graph.CallEdge{From: callerID, To: matches[0].ID, Confidence: confidenceFuzzyAmbiguous, Tier: "C", Reason: "fuzzy-ambiguous", Line: rc.Line}, true
}

// guard applies the interface-self-call guard (spec.md §4.6) at every
// tier: a method calling its own interface declaration is not a real edge.
func (r *Resolver) guard(rc parse.FileCall, edge graph.CallEdge) bool {
	if rc.CallerName != rc.Callee {
		return true
	}
	targetFile := symbolFile(edge.To)
	if targetFile == "" {
		return true
	}
	targetSym, ok := r.byFileByName[targetFile][rc.Callee]
	if !ok {
		return true
	}
	return !r.parentIsInterface(targetSym)
}

// symbolFile recovers a symbol's file from its canonical id ("{file}:...").
func symbolFile(id string) string {
	idx := strings.Index(id, ":")
	if idx == -1 {
		return ""
	}
	return id[:idx]
}
