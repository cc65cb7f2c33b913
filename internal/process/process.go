// Package process implements Phase 6 (spec.md §4.8): entry-point scoring,
// multi-branch BFS trace detection, deduplication, and depth-diverse
// selection of execution processes.
package process

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

// Options configures Phase 6 (spec.md §6 CLI defaults).
type Options struct {
	MaxProcesses int
	MaxDepth     int
	MaxBranching int
	MinSteps     int
}

var frameworkTypes = map[string]bool{
	"Task": true, "ValueTask": true, "ILogger": true, "IConfiguration": true,
	"IServiceCollection": true, "IServiceProvider": true, "CancellationToken": true, "HttpClient": true,
}

var testPathRe = regexp.MustCompile(`(?i)(/tests?/|/specs?/|/__tests__/|/TestHarness/|Tests\.|_test\.|_spec\.|/\.?Tests/)`)

var utilitySegmentRe = regexp.MustCompile(`(?i)(^|/)(utils|helpers|extensions|common|shared|utilities)(/|$)`)

type entryRule struct {
	re     *regexp.Regexp
	weight float64
	target string // "name" or "parent"
}

var entryRules = []entryRule{
	{regexp.MustCompile(`(?i).*Controller$`), 1.5, "name"},
	{regexp.MustCompile(`(?i).*Handler$`), 1.5, "name"},
	{regexp.MustCompile(`(?i).*Endpoint$`), 1.5, "name"},
	{regexp.MustCompile(`(?i).*Middleware$`), 1.5, "name"},
	{regexp.MustCompile(`(?i)^Main$`), 1.5, "name"},
	{regexp.MustCompile(`(?i)^Startup$`), 1.5, "name"},
	{regexp.MustCompile(`(?i)^Configure.*$`), 1.5, "name"},
	{regexp.MustCompile(`(?i)^Map.*Endpoints$`), 1.5, "name"},
	{regexp.MustCompile(`(?i).*Route$`), 1.5, "name"},
	{regexp.MustCompile(`(?i).*Listener$`), 1.5, "name"},
	{regexp.MustCompile(`(?i)^handle.*$`), 1.5, "name"},
	{regexp.MustCompile(`^on[A-Z].*$`), 1.5, "name"},
	{regexp.MustCompile(`(?i)^process.*$`), 1.5, "name"},
}

// graphIndex is the adjacency Phase 6 needs: out/in degree and sorted
// (confidence-descending) callee lists, built once from call edges.
type graphIndex struct {
	outEdges map[string][]graph.CallEdge // sorted by confidence desc
	inDegree map[string]int
}

func buildIndex(edges []graph.CallEdge) *graphIndex {
	idx := &graphIndex{outEdges: make(map[string][]graph.CallEdge), inDegree: make(map[string]int)}
	for _, e := range edges {
		idx.outEdges[e.From] = append(idx.outEdges[e.From], e)
		idx.inDegree[e.To]++
	}
	for _, list := range idx.outEdges {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Confidence > list[j].Confidence })
	}
	return idx
}

type candidate struct {
	symbol graph.Symbol
	score  float64
}

// Run executes Phase 6: scores entry-point candidates, BFS-traces from the
// top candidates, dedups, and selects with depth diversity.
func Run(ctx context.Context, store graph.Store, symbols []graph.Symbol, edges []graph.CallEdge, communityOf map[string]string, opts Options) ([]graph.Process, error) {
	idx := buildIndex(edges)

	var candidates []candidate
	for _, s := range symbols {
		if s.Kind != graph.SymbolKindFunction && s.Kind != graph.SymbolKindMethod && s.Kind != graph.SymbolKindConstructor {
			continue
		}
		if frameworkTypes[s.Name] || testPathRe.MatchString(s.File) {
			continue
		}
		score := entryScore(s, idx)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, candidate{symbol: s, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	topN := 2 * opts.MaxProcesses
	if topN > len(candidates) {
		topN = len(candidates)
	}

	var traces [][]string
	for _, c := range candidates[:topN] {
		found := bfsTrace(c.symbol.ID, idx, opts)
		traces = append(traces, found...)
	}

	traces = dedup(traces)

	processes := selectProcesses(traces, idx, communityOf, opts)

	for _, p := range processes {
		if err := store.AddProcess(ctx, p); err != nil {
			return nil, fmt.Errorf("add process %s: %w", p.ID, err)
		}
		for i := 0; i+1 < len(p.Steps); i++ {
			if err := store.AddGenericEdge(ctx, graph.GenericEdge{From: p.Steps[i], To: p.Steps[i+1], Kind: graph.EdgeKindStepWithOrder}); err != nil {
				return nil, fmt.Errorf("add step edge: %w", err)
			}
		}
	}
	return processes, nil
}

func entryScore(s graph.Symbol, idx *graphIndex) float64 {
	out := float64(len(idx.outEdges[s.ID]))
	in := float64(idx.inDegree[s.ID])
	score := out / (in + 1)

	if s.Exported {
		score *= 2.0
	}

	nameMultiplier := 1.0
	for _, rule := range entryRules {
		if rule.re.MatchString(s.Name) {
			nameMultiplier = 1.5
			break
		}
	}
	if nameMultiplier == 1.0 && s.Parent != "" {
		for _, rule := range entryRules {
			if rule.re.MatchString(s.Parent) {
				nameMultiplier = 1.3
				break
			}
		}
	}
	score *= nameMultiplier

	if utilitySegmentRe.MatchString(s.File) {
		score *= 0.3
	}

	score *= 1 + 0.5*float64(bfsDepthTo3Hops(s.ID, idx))
	return score
}

// bfsDepthTo3Hops returns how many of the first 3 BFS hops from id are
// actually reachable (0..3), used as the entry-score depth multiplier.
func bfsDepthTo3Hops(id string, idx *graphIndex) int {
	depth := 0
	frontier := []string{id}
	visited := map[string]bool{id: true}
	for hop := 0; hop < 3; hop++ {
		var next []string
		for _, cur := range frontier {
			for _, e := range idx.outEdges[cur] {
				if !visited[e.To] {
					visited[e.To] = true
					next = append(next, e.To)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		depth++
		frontier = next
	}
	return depth
}

type frontierEntry struct {
	current string
	path    []string
}

// bfsTrace performs the multi-branch BFS expansion from entry (spec.md
// §4.8), capping collected traces at 3*max_branching.
func bfsTrace(entry string, idx *graphIndex, opts Options) [][]string {
	traceCap := 3 * opts.MaxBranching
	var traces [][]string
	queue := []frontierEntry{{current: entry, path: []string{entry}}}

	for len(queue) > 0 && len(traces) < traceCap {
		fe := queue[0]
		queue = queue[1:]

		callees := idx.outEdges[fe.current]
		onPath := make(map[string]bool, len(fe.path))
		for _, s := range fe.path {
			onPath[s] = true
		}

		extended := 0
		for _, e := range callees {
			if extended >= opts.MaxBranching {
				break
			}
			if onPath[e.To] {
				continue // per-path cycle check
			}
			extended++
			newPath := append(append([]string(nil), fe.path...), e.To)
			if len(newPath) >= opts.MaxDepth {
				if len(newPath) >= opts.MinSteps {
					traces = append(traces, newPath)
				}
				continue
			}
			queue = append(queue, frontierEntry{current: e.To, path: newPath})
		}
		if extended == 0 && len(fe.path) >= opts.MinSteps {
			traces = append(traces, fe.path)
		}
	}
	return traces
}

// dedup removes any trace whose symbol set is a strict subset of a longer
// trace's set (spec.md §4.8), sorting by length descending first.
func dedup(traces [][]string) [][]string {
	sort.SliceStable(traces, func(i, j int) bool { return len(traces[i]) > len(traces[j]) })

	sets := make([]map[string]bool, len(traces))
	for i, t := range traces {
		set := make(map[string]bool, len(t))
		for _, s := range t {
			set[s] = true
		}
		sets[i] = set
	}

	kept := make([]bool, len(traces))
	var out [][]string
	for i := range traces {
		subset := false
		for j := range traces {
			if i == j || !kept[j] {
				continue
			}
			if isStrictSubset(sets[i], sets[j]) {
				subset = true
				break
			}
		}
		if !subset {
			kept[i] = true
			out = append(out, traces[i])
		}
	}
	return out
}

func isStrictSubset(a, b map[string]bool) bool {
	if len(a) >= len(b) {
		return false
	}
	for s := range a {
		if !b[s] {
			return false
		}
	}
	return true
}

type scoredTrace struct {
	steps      []string
	confidence float64 // geometric mean per hop
	product    float64 // raw product, reported in output
}

func selectProcesses(traces [][]string, idx *graphIndex, communityOf map[string]string, opts Options) []graph.Process {
	scored := make([]scoredTrace, 0, len(traces))
	for _, t := range traces {
		product, hops := 1.0, 0
		for i := 0; i+1 < len(t); i++ {
			if c, ok := edgeConfidence(idx, t[i], t[i+1]); ok {
				product *= c
				hops++
			}
		}
		if hops == 0 {
			continue
		}
		geoMean := math.Pow(product, 1.0/float64(hops))
		scored = append(scored, scoredTrace{steps: t, confidence: geoMean, product: product})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].confidence != scored[j].confidence {
			return scored[i].confidence > scored[j].confidence
		}
		return len(scored[i].steps) > len(scored[j].steps)
	})

	var long, short []scoredTrace
	for _, s := range scored {
		if len(s.steps) > 2 {
			long = append(long, s)
		} else {
			short = append(short, s)
		}
	}

	halfBudget := opts.MaxProcesses / 2
	var selected []scoredTrace
	if halfBudget < len(long) {
		selected = append(selected, long[:halfBudget]...)
	} else {
		selected = append(selected, long...)
	}
	remaining := opts.MaxProcesses - len(selected)
	if remaining > len(short) {
		remaining = len(short)
	}
	if remaining > 0 {
		selected = append(selected, short[:remaining]...)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].confidence != selected[j].confidence {
			return selected[i].confidence > selected[j].confidence
		}
		return len(selected[i].steps) > len(selected[j].steps)
	})

	processes := make([]graph.Process, 0, len(selected))
	for i, s := range selected {
		processType := classify(s.steps, communityOf)
		processes = append(processes, graph.Process{
			ID:              fmt.Sprintf("process_%d", i),
			Entry:           s.steps[0],
			Terminal:        s.steps[len(s.steps)-1],
			Steps:           s.steps,
			Type:            processType,
			TotalConfidence: s.product,
		})
	}
	return processes
}

func edgeConfidence(idx *graphIndex, from, to string) (float64, bool) {
	for _, e := range idx.outEdges[from] {
		if e.To == to {
			return e.Confidence, true
		}
	}
	return 0, false
}

func classify(steps []string, communityOf map[string]string) string {
	seen := make(map[string]bool)
	for _, s := range steps {
		if c, ok := communityOf[s]; ok && c != "" {
			seen[c] = true
		}
	}
	if len(seen) <= 1 {
		return graph.ProcessTypeIntraCommunity
	}
	return graph.ProcessTypeCrossCommunity
}
