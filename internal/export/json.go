// Package export renders a completed analysis run as the JSON v1.0
// artifact (spec.md §6) and, from that artifact, a Mermaid diagram.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

const schemaVersion = "1.0"

// Document is the top-level JSON v1.0 export structure (spec.md §6).
type Document struct {
	Version     string           `json:"version"`
	Metadata    Metadata         `json:"metadata"`
	Stats       Stats            `json:"stats"`
	Structure   StructureSection `json:"structure"`
	Symbols     []SymbolExport   `json:"symbols"`
	Imports     ImportsSection   `json:"imports"`
	Calls       []CallExport     `json:"calls"`
	Communities []graph.Community `json:"communities"`
	Processes   []graph.Process  `json:"processes"`
}

type Metadata struct {
	RepoName           string             `json:"repo_name"`
	RepoPath           string             `json:"repo_path"`
	AnalysedAt         string             `json:"analysed_at"`
	MyceliumVersion    string             `json:"mycelium_version"`
	CommitHash         *string            `json:"commit_hash"`
	AnalysisDurationMs int64              `json:"analysis_duration_ms"`
	PhaseTimings       map[string]float64 `json:"phase_timings"`
}

type Stats struct {
	Files       int            `json:"files"`
	Folders     int            `json:"folders"`
	Symbols     int            `json:"symbols"`
	Calls       int            `json:"calls"`
	Imports     int            `json:"imports"`
	Communities int            `json:"communities"`
	Processes   int            `json:"processes"`
	Languages   map[string]int `json:"languages"`
}

type StructureSection struct {
	Files   []FileExport   `json:"files"`
	Folders []FolderExport `json:"folders"`
}

type FileExport struct {
	Path     string         `json:"path"`
	Language graph.Language `json:"language"`
	Size     int64          `json:"size"`
	Lines    int            `json:"lines"`
}

type FolderExport struct {
	Path      string `json:"path"`
	FileCount int    `json:"file_count"`
}

type SymbolExport struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       graph.SymbolKind  `json:"type"`
	File       string            `json:"file"`
	Line       int               `json:"line"`
	Visibility graph.Visibility  `json:"visibility"`
	Exported   bool              `json:"exported"`
	Parent     string            `json:"parent,omitempty"`
	Language   graph.Language    `json:"language"`
}

type ImportsSection struct {
	FileImports        []FileImportExport `json:"file_imports"`
	ProjectReferences  []graph.ProjectRef `json:"project_references"`
	PackageReferences  []graph.PackageRef `json:"package_references"`
}

type FileImportExport struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Statement string `json:"statement"`
}

type CallExport struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Confidence float64 `json:"confidence"`
	Tier       string  `json:"tier"`
	Reason     string  `json:"reason"`
	Line       int     `json:"line"`
}

// BuildOptions carries the run-level facts the export needs beyond what's
// in the Store (spec.md §6 metadata block).
type BuildOptions struct {
	RepoName           string
	RepoPath           string
	MyceliumVersion    string
	CommitHash         string // "" means unknown/non-git, rendered as null
	AnalysisDurationMs int64
	PhaseTimings       map[string]float64
	AnalysedAt         time.Time
}

// Build reads every store enumeration and assembles the JSON v1.0 document.
func Build(ctx context.Context, store graph.Store, opts BuildOptions) (*Document, error) {
	files, err := store.AllFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	folders, err := store.AllFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	symbols, err := store.AllSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	calls, err := store.AllCallEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	importEdges, err := store.AllImportEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	projectRefs, err := store.AllProjectRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list project refs: %w", err)
	}
	packageRefs, err := store.AllPackageRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list package refs: %w", err)
	}
	communities, err := store.AllCommunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	processes, err := store.AllProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	doc := &Document{
		Version: schemaVersion,
		Metadata: Metadata{
			RepoName:           opts.RepoName,
			RepoPath:           opts.RepoPath,
			AnalysedAt:         opts.AnalysedAt.UTC().Format(time.RFC3339),
			MyceliumVersion:    opts.MyceliumVersion,
			AnalysisDurationMs: opts.AnalysisDurationMs,
			PhaseTimings:       opts.PhaseTimings,
		},
	}
	if opts.CommitHash != "" {
		hash := opts.CommitHash
		doc.Metadata.CommitHash = &hash
	}

	languages := make(map[string]int)
	for _, f := range files {
		languages[string(f.Language)]++
		doc.Structure.Files = append(doc.Structure.Files, FileExport{Path: f.Path, Language: f.Language, Size: f.Size, Lines: f.Lines})
	}
	for _, fo := range folders {
		doc.Structure.Folders = append(doc.Structure.Folders, FolderExport{Path: fo.Path, FileCount: fo.FileCount})
	}
	for _, s := range symbols {
		doc.Symbols = append(doc.Symbols, SymbolExport{
			ID: s.ID, Name: s.Name, Type: s.Kind, File: s.File, Line: s.Line,
			Visibility: s.Visibility, Exported: s.Exported, Parent: s.Parent, Language: s.Language,
		})
	}
	for _, e := range importEdges {
		doc.Imports.FileImports = append(doc.Imports.FileImports, FileImportExport{From: e.From, To: e.To, Statement: e.Statement})
	}
	doc.Imports.ProjectReferences = projectRefs
	doc.Imports.PackageReferences = packageRefs
	for _, c := range calls {
		doc.Calls = append(doc.Calls, CallExport{From: c.From, To: c.To, Confidence: c.Confidence, Tier: c.Tier, Reason: c.Reason, Line: c.Line})
	}
	doc.Communities = communities
	doc.Processes = processes

	doc.Stats = Stats{
		Files: len(files), Folders: len(folders), Symbols: len(symbols),
		Calls: len(calls), Imports: len(importEdges), Communities: len(communities),
		Processes: len(processes), Languages: languages,
	}

	return doc, nil
}

// WriteFile marshals doc as pretty-printed UTF-8 JSON, creating parent
// directories as needed (spec.md §6).
func WriteFile(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// ReadFile loads a previously written JSON v1.0 artifact, used by the
// diagram subcommand to re-render without re-analysing (spec.md §4
// supplemented features).
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}
