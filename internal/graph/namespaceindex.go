package graph

// NamespaceIndex is the bidirectional namespace<->file map plus per-file
// import records populated during Phases 2 and 3 (spec.md §2, §4.5). It also
// carries the .NET Assembly Index (root namespace -> owning project) used by
// the C#/VB.NET import resolver.
type NamespaceIndex struct {
	// Declarations: namespace name -> files that declare a Namespace symbol
	// under that name (spec.md §4.4: "Symbols of kind Namespace are
	// additionally registered in the Namespace Index under their declared
	// name.").
	declarations map[string][]string

	// Imports: file -> list of namespaces it imports/uses (populated for
	// C#/VB.NET resolution, spec.md §4.5).
	imports map[string][]string

	// assembly: root namespace -> owning project directory.
	assembly map[string]string
}

// NewNamespaceIndex returns an empty, ready-to-use NamespaceIndex.
func NewNamespaceIndex() *NamespaceIndex {
	return &NamespaceIndex{
		declarations: make(map[string][]string),
		imports:      make(map[string][]string),
		assembly:     make(map[string]string),
	}
}

// DeclareNamespace registers that file declares a Namespace symbol named ns.
func (n *NamespaceIndex) DeclareNamespace(ns, file string) {
	n.declarations[ns] = append(n.declarations[ns], file)
}

// FilesForNamespace returns every file that declares ns.
func (n *NamespaceIndex) FilesForNamespace(ns string) []string {
	return n.declarations[ns]
}

// AddImport records that file imports/uses namespace ns.
func (n *NamespaceIndex) AddImport(file, ns string) {
	n.imports[file] = append(n.imports[file], ns)
}

// ImportsOf returns the namespaces imported/used by file.
func (n *NamespaceIndex) ImportsOf(file string) []string {
	return n.imports[file]
}

// RegisterProject associates a root namespace with the project directory
// that owns it, for exact and longest-prefix namespace resolution
// (spec.md §4.5).
func (n *NamespaceIndex) RegisterProject(rootNamespace, projectDir string) {
	if rootNamespace == "" {
		return
	}
	n.assembly[rootNamespace] = projectDir
}

// ResolveAssembly resolves ns to an owning project directory: exact match
// first, then the longest registered namespace that is a dotted-boundary
// prefix of ns (spec.md §4.5).
func (n *NamespaceIndex) ResolveAssembly(ns string) (string, bool) {
	if dir, ok := n.assembly[ns]; ok {
		return dir, true
	}
	best := ""
	bestDir := ""
	for registered, dir := range n.assembly {
		if registered == ns {
			continue
		}
		if len(registered) >= len(ns) {
			continue
		}
		if ns[:len(registered)] != registered {
			continue
		}
		if ns[len(registered)] != '.' {
			continue
		}
		if len(registered) > len(best) {
			best = registered
			bestDir = dir
		}
	}
	if best == "" {
		return "", false
	}
	return bestDir, true
}

// KnownNamespaces returns every namespace currently registered in the
// Assembly Index.
func (n *NamespaceIndex) KnownNamespaces() []string {
	out := make([]string, 0, len(n.assembly))
	for ns := range n.assembly {
		out = append(out, ns)
	}
	return out
}
