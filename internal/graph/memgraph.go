package graph

import (
	"context"
	"sync"
)

// Compile-time assertion: *MemGraph satisfies Store.
var _ Store = (*MemGraph)(nil)

// MemGraph implements Store using Go maps. It is the default Knowledge Graph
// backend: thread-safe via sync.RWMutex, torn down with the run since it
// keeps no state on disk.
type MemGraph struct {
	mu sync.RWMutex

	files   map[string]File
	folders map[string]Folder
	symbols map[string]Symbol // key: symbol id

	callEdges    []CallEdge
	importEdges  []ImportEdge
	projectRefs  []ProjectRef
	packageRefs  []PackageRef
	genericEdges []GenericEdge

	communities []Community
	processes   []Process
}

// NewMemGraph returns an initialized MemGraph ready for use.
func NewMemGraph() *MemGraph {
	return &MemGraph{
		files:   make(map[string]File),
		folders: make(map[string]Folder),
		symbols: make(map[string]Symbol),
	}
}

// InitSchema is a no-op for the in-memory graph.
func (g *MemGraph) InitSchema(_ context.Context) error { return nil }

// Close is a no-op for the in-memory graph.
func (g *MemGraph) Close() error { return nil }

func (g *MemGraph) AddFile(_ context.Context, f File) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.files[f.Path] = f
	return nil
}

func (g *MemGraph) AddFolder(_ context.Context, f Folder) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.folders[f.Path] = f
	return nil
}

// AddSymbol idempotently ensures a file node exists for the symbol's
// defining file and records the defines edge (spec.md §4.1).
func (g *MemGraph) AddSymbol(_ context.Context, sym Symbol) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.files[sym.File]; !ok {
		g.files[sym.File] = File{Path: sym.File, Language: sym.Language}
	}
	g.symbols[sym.ID] = sym
	g.genericEdges = append(g.genericEdges, GenericEdge{From: sym.File, To: sym.ID, Kind: EdgeKindDefines})
	return nil
}

func (g *MemGraph) AddCallEdge(_ context.Context, e CallEdge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callEdges = append(g.callEdges, e)
	return nil
}

func (g *MemGraph) AddImportEdge(_ context.Context, e ImportEdge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.importEdges = append(g.importEdges, e)
	return nil
}

func (g *MemGraph) AddProjectRef(_ context.Context, r ProjectRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.projectRefs = append(g.projectRefs, r)
	return nil
}

func (g *MemGraph) AddPackageRef(_ context.Context, r PackageRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.packageRefs = append(g.packageRefs, r)
	return nil
}

func (g *MemGraph) AddCommunity(_ context.Context, c Community) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.communities = append(g.communities, c)
	return nil
}

func (g *MemGraph) AddProcess(_ context.Context, p Process) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.processes = append(g.processes, p)
	return nil
}

func (g *MemGraph) AddGenericEdge(_ context.Context, e GenericEdge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.genericEdges = append(g.genericEdges, e)
	return nil
}

func (g *MemGraph) HasNode(_ context.Context, id string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.files[id]; ok {
		return true, nil
	}
	if _, ok := g.folders[id]; ok {
		return true, nil
	}
	if _, ok := g.symbols[id]; ok {
		return true, nil
	}
	return false, nil
}

func (g *MemGraph) SymbolsInFile(_ context.Context, file string) ([]Symbol, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Symbol
	for _, s := range g.symbols {
		if s.File == file {
			out = append(out, s)
		}
	}
	return out, nil
}

func (g *MemGraph) CallersOf(_ context.Context, symbolID string) ([]CallEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []CallEdge
	for _, e := range g.callEdges {
		if e.To == symbolID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *MemGraph) CalleesOf(_ context.Context, symbolID string) ([]CallEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []CallEdge
	for _, e := range g.callEdges {
		if e.From == symbolID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *MemGraph) AllFiles(_ context.Context) ([]File, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]File, 0, len(g.files))
	for _, f := range g.files {
		out = append(out, f)
	}
	return out, nil
}

func (g *MemGraph) AllFolders(_ context.Context) ([]Folder, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Folder, 0, len(g.folders))
	for _, f := range g.folders {
		out = append(out, f)
	}
	return out, nil
}

func (g *MemGraph) AllSymbols(_ context.Context) ([]Symbol, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Symbol, 0, len(g.symbols))
	for _, s := range g.symbols {
		out = append(out, s)
	}
	return out, nil
}

func (g *MemGraph) AllCallEdges(_ context.Context) ([]CallEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]CallEdge, len(g.callEdges))
	copy(out, g.callEdges)
	return out, nil
}

func (g *MemGraph) AllImportEdges(_ context.Context) ([]ImportEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ImportEdge, len(g.importEdges))
	copy(out, g.importEdges)
	return out, nil
}

func (g *MemGraph) AllProjectRefs(_ context.Context) ([]ProjectRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ProjectRef, len(g.projectRefs))
	copy(out, g.projectRefs)
	return out, nil
}

func (g *MemGraph) AllPackageRefs(_ context.Context) ([]PackageRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]PackageRef, len(g.packageRefs))
	copy(out, g.packageRefs)
	return out, nil
}

func (g *MemGraph) AllCommunities(_ context.Context) ([]Community, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Community, len(g.communities))
	copy(out, g.communities)
	return out, nil
}

func (g *MemGraph) AllProcesses(_ context.Context) ([]Process, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Process, len(g.processes))
	copy(out, g.processes)
	return out, nil
}
