package graph

import (
	"context"
	"io"
)

// GenericEdge is a loosely-typed edge used for traversal-only edge kinds
// (member_of, step_with_order, contains) that do not carry their own
// dedicated struct.
type GenericEdge struct {
	From string
	To   string
	Kind EdgeKind
}

// Store is the Knowledge Graph backend contract (spec.md §4.1). Every phase
// reads and writes through this interface; MemGraph is the default, in-run
// implementation, KuzuGraph is an ephemeral alternative backed by an
// embedded graph database (see kuzugraph.go).
type Store interface {
	io.Closer

	InitSchema(ctx context.Context) error

	// --- Writes ---

	AddFile(ctx context.Context, f File) error
	AddFolder(ctx context.Context, f Folder) error
	// AddSymbol idempotently ensures a File node exists for sym.File and
	// records the defines edge, then inserts the symbol (spec.md §4.1).
	AddSymbol(ctx context.Context, sym Symbol) error
	AddCallEdge(ctx context.Context, e CallEdge) error
	AddImportEdge(ctx context.Context, e ImportEdge) error
	AddProjectRef(ctx context.Context, r ProjectRef) error
	AddPackageRef(ctx context.Context, r PackageRef) error
	AddCommunity(ctx context.Context, c Community) error
	AddProcess(ctx context.Context, p Process) error
	AddGenericEdge(ctx context.Context, e GenericEdge) error

	// --- Point queries ---

	HasNode(ctx context.Context, id string) (bool, error)
	SymbolsInFile(ctx context.Context, file string) ([]Symbol, error)
	CallersOf(ctx context.Context, symbolID string) ([]CallEdge, error)
	CalleesOf(ctx context.Context, symbolID string) ([]CallEdge, error)

	// --- Enumeration ---

	AllFiles(ctx context.Context) ([]File, error)
	AllFolders(ctx context.Context) ([]Folder, error)
	AllSymbols(ctx context.Context) ([]Symbol, error)
	AllCallEdges(ctx context.Context) ([]CallEdge, error)
	AllImportEdges(ctx context.Context) ([]ImportEdge, error)
	AllProjectRefs(ctx context.Context) ([]ProjectRef, error)
	AllPackageRefs(ctx context.Context) ([]PackageRef, error)
	AllCommunities(ctx context.Context) ([]Community, error)
	AllProcesses(ctx context.Context) ([]Process, error)
}
