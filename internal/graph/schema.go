// Package graph implements the Knowledge Graph: a directed, typed multigraph
// of files, folders, symbols, communities, and processes, threaded through
// all six analysis phases.
package graph

// --- Node kinds ---

// NodeKind classifies nodes stored in the Knowledge Graph.
type NodeKind string

const (
	NodeKindFile      NodeKind = "file"
	NodeKindFolder    NodeKind = "folder"
	NodeKindSymbol    NodeKind = "symbol"
	NodeKindCommunity NodeKind = "community"
	NodeKindProcess   NodeKind = "process"
	NodeKindProject   NodeKind = "project" // .NET project (.csproj/.vbproj)
	NodeKindPackage   NodeKind = "package" // .NET NuGet package reference
)

// EdgeKind classifies edges stored in the Knowledge Graph.
type EdgeKind string

const (
	EdgeKindDefines       EdgeKind = "defines"
	EdgeKindImports       EdgeKind = "imports"
	EdgeKindCalls         EdgeKind = "calls"
	EdgeKindProjectRef    EdgeKind = "project_reference"
	EdgeKindPackageRef    EdgeKind = "package_reference"
	EdgeKindMemberOf      EdgeKind = "member_of"
	EdgeKindStepWithOrder EdgeKind = "step_with_order"
	EdgeKindContains      EdgeKind = "contains"
)

// SymbolKind enumerates the declaration kinds extracted across all nine
// supported languages.
type SymbolKind string

const (
	SymbolKindClass       SymbolKind = "Class"
	SymbolKindFunction    SymbolKind = "Function"
	SymbolKindMethod      SymbolKind = "Method"
	SymbolKindInterface   SymbolKind = "Interface"
	SymbolKindStruct      SymbolKind = "Struct"
	SymbolKindEnum        SymbolKind = "Enum"
	SymbolKindNamespace   SymbolKind = "Namespace"
	SymbolKindProperty    SymbolKind = "Property"
	SymbolKindConstructor SymbolKind = "Constructor"
	SymbolKindModule      SymbolKind = "Module"
	SymbolKindRecord      SymbolKind = "Record"
	SymbolKindDelegate    SymbolKind = "Delegate"
	SymbolKindTypeAlias   SymbolKind = "TypeAlias"
	SymbolKindConstant    SymbolKind = "Constant"
	SymbolKindVariable    SymbolKind = "Variable"
	SymbolKindTrait       SymbolKind = "Trait"
	SymbolKindImpl        SymbolKind = "Impl"
	SymbolKindMacro       SymbolKind = "Macro"
	SymbolKindTemplate    SymbolKind = "Template"
	SymbolKindTypedef     SymbolKind = "Typedef"
	SymbolKindAnnotation  SymbolKind = "Annotation"
	SymbolKindStatic      SymbolKind = "Static"
)

// Visibility enumerates the declared accessibility of a symbol.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityInternal  Visibility = "internal"
	VisibilityProtected Visibility = "protected"
	VisibilityFriend    Visibility = "friend"
	VisibilityUnknown   Visibility = "unknown"
)

// Language identifies the source language of a file or symbol.
type Language string

const (
	LangCSharp     Language = "csharp"
	LangVBNet      Language = "vbnet"
	LangJava       Language = "java"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
)

// SupportedLanguages lists every language this module's analyser registry
// can, in principle, dispatch to. Not all are guaranteed to produce symbols
// at runtime — see LanguageAnalyser.IsAvailable.
var SupportedLanguages = []Language{
	LangCSharp, LangVBNet, LangJava, LangPython, LangTypeScript,
	LangJavaScript, LangGo, LangRust, LangC, LangCPP,
}

// --- Entities (spec.md §3) ---

// Param is a single (name, type) pair, used to record constructor
// parameters for Tier A-DI call resolution (spec.md §4.6).
type Param struct {
	Name string
	Type string
}

// File is a source file discovered during Phase 1.
type File struct {
	Path     string // repo-relative, forward-slash normalised
	Language Language
	Size     int64
	Lines    int
}

// Folder is a directory discovered during Phase 1.
type Folder struct {
	Path      string
	FileCount int
}

// Symbol is a named declaration extracted during Phase 2.
type Symbol struct {
	ID         string
	Name       string
	Kind       SymbolKind
	File       string
	Line       int
	Visibility Visibility
	Exported   bool
	Parent     string // parent symbol name, empty if top-level
	Language   Language
	CtorParams []Param // constructor parameters; C/C++ functions carry their parameters and Go structs their fields here too, but Phase 4 reads it only from Constructor symbols
}

// CallEdge is a resolved call relationship produced during Phase 4.
type CallEdge struct {
	From       string
	To         string
	Confidence float64
	Tier       string // "A", "B", "C"
	Reason     string
	Line       int
}

// ImportEdge is a file-to-file import relationship produced during Phase 3.
type ImportEdge struct {
	From      string
	To        string
	Statement string
}

// ProjectRef is a .NET project-to-project reference.
type ProjectRef struct {
	From string
	To   string
	Type string
}

// PackageRef is a .NET project-to-NuGet-package reference.
type PackageRef struct {
	Project string
	Package string
	Version string
}

// Community is a cluster of tightly-connected symbols produced by Phase 5.
type Community struct {
	ID              string
	Label           string
	Members         []string // ordered symbol IDs
	Cohesion        float64
	PrimaryLanguage Language
}

// Process is a likely end-to-end execution trace produced by Phase 6.
type Process struct {
	ID              string
	Entry           string
	Terminal        string
	Steps           []string
	Type            string // "intra_community" | "cross_community"
	TotalConfidence float64
}

const (
	ProcessTypeIntraCommunity = "intra_community"
	ProcessTypeCrossCommunity = "cross_community"
)
