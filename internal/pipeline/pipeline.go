// Package pipeline wires the six analysis phases (spec.md §4) into one
// sequential run against a fresh set of shared stores, the way the
// teacher's internal/orchestrator wires its five pipeline stages.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mycelium-dev/mycelium/internal/calls"
	"github.com/mycelium-dev/mycelium/internal/community"
	"github.com/mycelium-dev/mycelium/internal/export"
	"github.com/mycelium-dev/mycelium/internal/gitmeta"
	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/imports"
	"github.com/mycelium-dev/mycelium/internal/langs"
	"github.com/mycelium-dev/mycelium/internal/parse"
	"github.com/mycelium-dev/mycelium/internal/process"
	"github.com/mycelium-dev/mycelium/internal/structure"
)

// MyceliumVersion is stamped into every JSON artifact's metadata block.
const MyceliumVersion = "0.1.0"

// Config holds every tunable the CLI surface exposes (spec.md §6
// Configuration defaults).
type Config struct {
	Root             string
	Output           string
	Languages        []graph.Language
	Exclude          []string
	Resolution       float64
	MaxProcesses     int
	MaxDepth         int
	MaxBranching     int
	MinSteps         int
	MaxFileSize      int64
	MaxCommunitySize int
	GraphBackend     string // "memory" (default) or "kuzu"
	Verbose          bool
	Quiet            bool
}

// DefaultConfig returns spec.md §6's configuration defaults with Root/
// Output left for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		Resolution:       1.0,
		MaxProcesses:     75,
		MaxDepth:         10,
		MaxBranching:     4,
		MinSteps:         2,
		MaxFileSize:      1_000_000,
		MaxCommunitySize: 50,
		GraphBackend:     "memory",
	}
}

// Result is what a completed run hands back to the CLI: the assembled
// JSON document plus the counts the summary line reports.
type Result struct {
	Document *export.Document
	RunID    string
}

// Run executes every phase in sequence against a fresh Store, emitting
// ProgressEvents on reporter (may be nil) as each phase starts/finishes.
func Run(ctx context.Context, cfg Config, reporter *ProgressReporter) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	timings := make(map[string]float64)

	store, closeStore, err := openStore(cfg.GraphBackend)
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	defer closeStore()
	if err := store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	registry := langs.NewRegistry()
	st := graph.NewSymbolTable()
	ns := graph.NewNamespaceIndex()

	// Phase 1 — Structure.
	phaseStart := emitStart(reporter, "structure")
	structResult, err := structure.Walk(ctx, store, structure.Options{
		Root: cfg.Root, Registry: registry, MaxFileSize: cfg.MaxFileSize,
		LanguageFilter: cfg.Languages, ExcludePatterns: cfg.Exclude,
	})
	if err != nil {
		emitFail(reporter, "structure", err)
		return nil, fmt.Errorf("phase 1 (structure): %w", err)
	}
	timings["structure"] = emitDone(reporter, "structure", phaseStart)

	// Phase 2 — Parsing.
	phaseStart = emitStart(reporter, "parse")
	parseResult, err := parse.Run(ctx, store, st, ns, structResult.Files, parse.Options{Registry: registry, Parallelism: 0, Root: cfg.Root})
	if err != nil {
		emitFail(reporter, "parse", err)
		return nil, fmt.Errorf("phase 2 (parse): %w", err)
	}
	timings["parse"] = emitDone(reporter, "parse", phaseStart)

	symbols, err := store.AllSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols after phase 2: %w", err)
	}

	// Phase 3 — Imports.
	phaseStart = emitStart(reporter, "imports")
	importResolver := imports.NewResolver(cfg.Root, structResult.Files, st, ns)
	fileHasSymbols := make(map[string]bool)
	for _, s := range symbols {
		if !fileHasSymbols[s.File] {
			fileHasSymbols[s.File] = true
			importResolver.MarkHasSymbols(s.File)
		}
	}
	importEdges, err := imports.Run(ctx, store, importResolver, structResult.Files, parseResult.Imports)
	if err != nil {
		emitFail(reporter, "imports", err)
		return nil, fmt.Errorf("phase 3 (imports): %w", err)
	}
	timings["imports"] = emitDone(reporter, "imports", phaseStart)

	// Phase 4 — Calls.
	phaseStart = emitStart(reporter, "calls")
	callResolver := calls.NewResolver(st, importEdges, symbols)
	callEdges, err := calls.Run(ctx, store, callResolver, parseResult.Calls)
	if err != nil {
		emitFail(reporter, "calls", err)
		return nil, fmt.Errorf("phase 4 (calls): %w", err)
	}
	timings["calls"] = emitDone(reporter, "calls", phaseStart)

	// Phase 5 — Communities.
	phaseStart = emitStart(reporter, "communities")
	communities, err := community.Run(ctx, store, symbols, callEdges, community.Options{MaxCommunitySize: cfg.MaxCommunitySize})
	if err != nil {
		emitFail(reporter, "communities", err)
		return nil, fmt.Errorf("phase 5 (communities): %w", err)
	}
	timings["communities"] = emitDone(reporter, "communities", phaseStart)

	communityOf := make(map[string]string)
	for _, c := range communities {
		for _, m := range c.Members {
			communityOf[m] = c.ID
		}
	}

	// Phase 6 — Processes.
	phaseStart = emitStart(reporter, "processes")
	_, err = process.Run(ctx, store, symbols, callEdges, communityOf, process.Options{
		MaxProcesses: cfg.MaxProcesses, MaxDepth: cfg.MaxDepth, MaxBranching: cfg.MaxBranching, MinSteps: cfg.MinSteps,
	})
	if err != nil {
		emitFail(reporter, "processes", err)
		return nil, fmt.Errorf("phase 6 (processes): %w", err)
	}
	timings["processes"] = emitDone(reporter, "processes", phaseStart)

	doc, err := export.Build(ctx, store, export.BuildOptions{
		RepoName:           filepath.Base(cfg.Root),
		RepoPath:           cfg.Root,
		MyceliumVersion:    MyceliumVersion,
		CommitHash:         gitmeta.CommitHash(cfg.Root),
		AnalysisDurationMs: time.Since(start).Milliseconds(),
		PhaseTimings:       timings,
		AnalysedAt:         start,
	})
	if err != nil {
		return nil, fmt.Errorf("build export document: %w", err)
	}

	return &Result{Document: doc, RunID: runID}, nil
}

func openStore(backend string) (graph.Store, func(), error) {
	if backend == "kuzu" {
		kg, err := graph.NewKuzuGraphScratch()
		if err != nil {
			return nil, nil, err
		}
		return kg, func() { kg.Close() }, nil
	}
	mg := graph.NewMemGraph()
	return mg, func() { mg.Close() }, nil
}

func emitStart(reporter *ProgressReporter, phase string) time.Time {
	if reporter != nil {
		reporter.Emit(ProgressEvent{Phase: phase, Status: ProgressWorking})
	}
	return time.Now()
}

func emitDone(reporter *ProgressReporter, phase string, since time.Time) float64 {
	elapsed := time.Since(since).Seconds()
	if reporter != nil {
		reporter.Emit(ProgressEvent{Phase: phase, Status: ProgressComplete})
	}
	return elapsed
}

func emitFail(reporter *ProgressReporter, phase string, err error) {
	if reporter != nil {
		reporter.Emit(ProgressEvent{Phase: phase, Status: ProgressFailed, Message: err.Error()})
	}
}
