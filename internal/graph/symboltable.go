package graph

// SymbolTable is the dual index populated during Phase 2 (spec.md §4.2):
// a scoped exact lookup per file, and a fuzzy cross-file lookup by bare
// name. Both indexes are pure in-memory maps — no library in the retrieval
// pack models this shape, and the teacher's own MemGraph keeps its single
// symbol index the same way.
type SymbolTable struct {
	fileIndex   map[string]map[string]string // file -> name -> symbol id
	globalIndex map[string][]GlobalEntry     // name -> definitions, insertion order
}

// GlobalEntry is one entry in the SymbolTable's global (cross-file) index.
type GlobalEntry struct {
	ID       string
	Name     string
	File     string
	Kind     SymbolKind
	Language Language
}

// NewSymbolTable returns an empty, ready-to-use SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		fileIndex:   make(map[string]map[string]string),
		globalIndex: make(map[string][]GlobalEntry),
	}
}

// Insert registers sym in both indexes. Called once per symbol during
// Phase 2, after the canonical id has been assigned.
func (t *SymbolTable) Insert(sym Symbol) {
	byName, ok := t.fileIndex[sym.File]
	if !ok {
		byName = make(map[string]string)
		t.fileIndex[sym.File] = byName
	}
	byName[sym.Name] = sym.ID

	t.globalIndex[sym.Name] = append(t.globalIndex[sym.Name], GlobalEntry{
		ID: sym.ID, Name: sym.Name, File: sym.File, Kind: sym.Kind, Language: sym.Language,
	})
}

// LookupInFile returns the symbol id exactly matching name within file, if any.
func (t *SymbolTable) LookupInFile(file, name string) (string, bool) {
	byName, ok := t.fileIndex[file]
	if !ok {
		return "", false
	}
	id, ok := byName[name]
	return id, ok
}

// LookupGlobal returns every definition of name across all files, in
// insertion (AST-visit) order.
func (t *SymbolTable) LookupGlobal(name string) []GlobalEntry {
	return t.globalIndex[name]
}

// LookupGlobalExcludingFile returns every definition of name whose file
// differs from excludeFile (spec.md §4.6 Tier C restricts fuzzy matches to
// other files).
func (t *SymbolTable) LookupGlobalExcludingFile(name, excludeFile string) []GlobalEntry {
	all := t.globalIndex[name]
	out := make([]GlobalEntry, 0, len(all))
	for _, e := range all {
		if e.File != excludeFile {
			out = append(out, e)
		}
	}
	return out
}
