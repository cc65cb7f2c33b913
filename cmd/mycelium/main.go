// Command mycelium analyses a repository across nine languages and emits
// a JSON knowledge graph of its files, symbols, imports, calls,
// communities, and execution traces (spec.md §6).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mycelium-dev/mycelium/internal/config"
	"github.com/mycelium-dev/mycelium/internal/export"
	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/mcpserver"
	"github.com/mycelium-dev/mycelium/internal/pipeline"
)

type cliFlags struct {
	Output           string
	Languages        string
	Resolution       float64
	MaxProcesses     int
	MaxDepth         int
	MaxBranching     int
	MinSteps         int
	MaxFileSize      int64
	MaxCommunitySize int
	GraphBackend     string
	Exclude          stringList
	Verbose          bool
	Quiet            bool
	ServeMCP         bool
	Version          bool
}

// stringList accumulates repeated `--exclude PATTERN` flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags
	def := pipeline.DefaultConfig()

	fs := flag.NewFlagSet("mycelium", flag.ContinueOnError)
	fs.StringVar(&flags.Output, "output", "", "write the JSON artifact to this path instead of stdout")
	fs.StringVar(&flags.Languages, "languages", "", "comma-separated language filter (e.g. go,python,typescript)")
	fs.Float64Var(&flags.Resolution, "resolution", def.Resolution, "Louvain resolution parameter (community detection does not read this value)")
	fs.IntVar(&flags.MaxProcesses, "max-processes", def.MaxProcesses, "maximum number of processes to emit")
	fs.IntVar(&flags.MaxDepth, "max-depth", def.MaxDepth, "maximum BFS trace depth")
	fs.IntVar(&flags.MaxBranching, "max-branching", def.MaxBranching, "maximum callees followed per BFS step")
	fs.IntVar(&flags.MinSteps, "min-steps", def.MinSteps, "minimum process length")
	fs.Int64Var(&flags.MaxFileSize, "max-file-size", def.MaxFileSize, "skip files larger than this many bytes")
	fs.IntVar(&flags.MaxCommunitySize, "max-community-size", def.MaxCommunitySize, "community size bound before auto-tune/splitting")
	fs.StringVar(&flags.GraphBackend, "graph-backend", def.GraphBackend, "graph store backend: memory or kuzu")
	fs.Var(&flags.Exclude, "exclude", "additional exclude pattern (repeatable)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "print per-phase timing to stderr")
	fs.BoolVar(&flags.Quiet, "quiet", false, "suppress progress and summary output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as an MCP server on stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	if flags.ServeMCP {
		return runServeMCP()
	}

	positional := fs.Args()
	if len(positional) > 0 && positional[0] == "diagram" {
		path := flags.Output
		if len(positional) > 1 {
			path = positional[1]
		}
		return runDiagram(path)
	}

	if len(positional) < 1 {
		printUsage(fs)
		return fmt.Errorf("missing command: expected 'analyze <path>'")
	}
	if positional[0] != "analyze" {
		printUsage(fs)
		return fmt.Errorf("unknown command %q", positional[0])
	}
	if len(positional) < 2 {
		return fmt.Errorf("usage: mycelium analyze <path>")
	}
	root := positional[1]

	return runAnalyze(root, flags)
}

func runAnalyze(root string, flags cliFlags) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving repository path: %w", err)
	}

	projCfg, err := config.Load(abs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load mycelium.yml: %v\n", err)
		projCfg = &config.ProjectConfig{}
	}

	cfg := pipeline.DefaultConfig()
	cfg.Root = abs
	applyConfig(&cfg, projCfg)
	applyFlags(&cfg, flags)

	reporter := pipeline.NewProgressReporter()
	done := make(chan struct{})
	if !cfg.Quiet {
		go func() {
			defer close(done)
			for ev := range reporter.Subscribe() {
				fmt.Fprintln(os.Stderr, pipeline.FormatProgress(ev))
			}
		}()
	} else {
		go func() {
			defer close(done)
			for range reporter.Subscribe() {
			}
		}()
	}

	start := time.Now()
	result, runErr := pipeline.Run(context.Background(), cfg, reporter)
	reporter.Close()
	<-done

	if runErr != nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}

	if cfg.Output != "" {
		if err := export.WriteFile(result.Document, cfg.Output); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		data, err := json.MarshalIndent(result.Document, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return err
		}
	}

	if !cfg.Quiet {
		s := result.Document.Stats
		fmt.Fprintf(os.Stderr, "%d files, %d symbols, %d calls, %d communities, %d processes in %s\n",
			s.Files, s.Symbols, s.Calls, s.Communities, s.Processes, time.Since(start).Round(time.Millisecond))
	}
	if cfg.Verbose {
		for _, phase := range []string{"structure", "parse", "imports", "calls", "communities", "processes"} {
			fmt.Fprintf(os.Stderr, "  %s: %.3fs\n", phase, result.Document.Metadata.PhaseTimings[phase])
		}
	}
	return nil
}

func applyConfig(cfg *pipeline.Config, proj *config.ProjectConfig) {
	if proj.Output != "" {
		cfg.Output = proj.Output
	}
	for _, l := range proj.Languages {
		cfg.Languages = append(cfg.Languages, graph.Language(l))
	}
	cfg.Exclude = append(cfg.Exclude, proj.Exclude...)
	if proj.Resolution != 0 {
		cfg.Resolution = proj.Resolution
	}
	if proj.MaxProcesses != 0 {
		cfg.MaxProcesses = proj.MaxProcesses
	}
	if proj.MaxDepth != 0 {
		cfg.MaxDepth = proj.MaxDepth
	}
	if proj.MaxBranching != 0 {
		cfg.MaxBranching = proj.MaxBranching
	}
	if proj.MinSteps != 0 {
		cfg.MinSteps = proj.MinSteps
	}
	if proj.MaxFileSize != 0 {
		cfg.MaxFileSize = proj.MaxFileSize
	}
	if proj.MaxCommunitySize != 0 {
		cfg.MaxCommunitySize = proj.MaxCommunitySize
	}
	if proj.GraphBackend != "" {
		cfg.GraphBackend = proj.GraphBackend
	}
	cfg.Verbose = cfg.Verbose || proj.Verbose
	cfg.Quiet = cfg.Quiet || proj.Quiet
}

func applyFlags(cfg *pipeline.Config, flags cliFlags) {
	cfg.Output = orDefault(flags.Output, cfg.Output)
	if flags.Languages != "" {
		cfg.Languages = nil
		for _, l := range strings.Split(flags.Languages, ",") {
			cfg.Languages = append(cfg.Languages, graph.Language(strings.TrimSpace(l)))
		}
	}
	cfg.Exclude = append(cfg.Exclude, flags.Exclude...)
	cfg.Resolution = flags.Resolution
	cfg.MaxProcesses = flags.MaxProcesses
	cfg.MaxDepth = flags.MaxDepth
	cfg.MaxBranching = flags.MaxBranching
	cfg.MinSteps = flags.MinSteps
	cfg.MaxFileSize = flags.MaxFileSize
	cfg.MaxCommunitySize = flags.MaxCommunitySize
	cfg.GraphBackend = flags.GraphBackend
	cfg.Verbose = cfg.Verbose || flags.Verbose
	cfg.Quiet = cfg.Quiet || flags.Quiet
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func runServeMCP() error {
	svc := mcpserver.NewService()
	server := mcpserver.NewServer(svc)
	fmt.Fprintf(os.Stderr, "mycelium MCP server v%s starting on stdio\n", version)
	err := mcpserver.RunStdio(context.Background(), server)
	fmt.Fprintln(os.Stderr, "mycelium MCP server stopped")
	return err
}

func runDiagram(path string) error {
	if path == "" {
		return fmt.Errorf("usage: mycelium diagram <artifact.json>")
	}
	doc, err := export.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Println(export.GenerateMermaid(doc))
	return nil
}

func printUsage(fs *flag.FlagSet) {
	w := os.Stderr
	fmt.Fprintf(w, "mycelium v%s — structural code map\n\n", version)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  mycelium analyze <path> [flags]    Analyse a repository and emit JSON")
	fmt.Fprintln(w, "  mycelium diagram <artifact.json>   Render a prior run as a Mermaid diagram")
	fmt.Fprintln(w, "  mycelium --serve-mcp               Run as an MCP server on stdio")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}
