// Package community implements Phase 5 (spec.md §4.7): Louvain modularity
// optimization over the call graph, with auto-tuned resolution and
// recursive splitting of oversized communities.
package community

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

const maxLocalMoveIterations = 100

// Options configures Phase 5.
type Options struct {
	MaxCommunitySize int
}

// graphData is the undirected weighted adjacency the Louvain pass operates
// on, built once from call edges (parallel edges summed, weight =
// confidence).
type graphData struct {
	nodes   []string // stable order: first-seen
	index   map[string]int
	adj     []map[int]float64
	totalW  float64
}

func buildGraph(symbols []graph.Symbol, edges []graph.CallEdge) *graphData {
	g := &graphData{index: make(map[string]int)}
	ensure := func(id string) int {
		if i, ok := g.index[id]; ok {
			return i
		}
		i := len(g.nodes)
		g.index[id] = i
		g.nodes = append(g.nodes, id)
		g.adj = append(g.adj, make(map[int]float64))
		return i
	}
	for _, s := range symbols {
		ensure(s.ID)
	}
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		a, b := ensure(e.From), ensure(e.To)
		g.adj[a][b] += e.Confidence
		g.adj[b][a] += e.Confidence
		g.totalW += e.Confidence
	}
	return g
}

func (g *graphData) degree(i int) float64 {
	total := 0.0
	for _, w := range g.adj[i] {
		total += w
	}
	return total
}

// louvainLevel runs alternating local-moves + contraction passes at the
// given resolution, returning a community id per original node index.
func louvainLevel(g *graphData, resolution float64) []int {
	n := len(g.nodes)
	comm := make([]int, n)
	for i := range comm {
		comm[i] = i
	}
	if n == 0 {
		return comm
	}

	curNodes := make([][]int, n) // curNodes[superNode] = original indices it aggregates
	for i := range curNodes {
		curNodes[i] = []int{i}
	}
	curAdj := g.adj
	curDeg := make([]float64, n)
	for i := range curDeg {
		curDeg[i] = g.degree(i)
	}
	m2 := 2 * g.totalW
	if m2 == 0 {
		return comm
	}

	curComm := make([]int, n)
	for i := range curComm {
		curComm[i] = i
	}

	for {
		moved := localMoves(curAdj, curDeg, curComm, resolution, m2)

		// Map super-node communities back to original-node community ids.
		for superIdx, members := range curNodes {
			for _, orig := range members {
				comm[orig] = curComm[superIdx]
			}
		}

		if !moved {
			break
		}

		// Contract: each distinct community becomes a new super-node.
		remap := make(map[int]int)
		var newNodes [][]int
		for superIdx, c := range curComm {
			newIdx, ok := remap[c]
			if !ok {
				newIdx = len(newNodes)
				remap[c] = newIdx
				newNodes = append(newNodes, nil)
			}
			newNodes[newIdx] = append(newNodes[newIdx], curNodes[superIdx]...)
		}

		newAdj := make([]map[int]float64, len(newNodes))
		for i := range newAdj {
			newAdj[i] = make(map[int]float64)
		}
		for superIdx, neighbors := range curAdj {
			from := remap[curComm[superIdx]]
			for neighbor, w := range neighbors {
				to := remap[curComm[neighbor]]
				if from == to {
					continue // drop intra-community weight; modularity only needs inter-community + degree
				}
				newAdj[from][to] += w
			}
		}

		if len(newNodes) == len(curNodes) {
			break // no further contraction possible
		}

		curNodes = newNodes
		curAdj = newAdj
		curDeg = make([]float64, len(newNodes))
		for superIdx, members := range newNodes {
			for _, orig := range members {
				curDeg[superIdx] += g.degree(orig)
			}
		}
		curComm = make([]int, len(newNodes))
		for i := range curComm {
			curComm[i] = i
		}
	}

	return comm
}

// localMoves runs the local-moves phase: repeatedly move each node into the
// neighboring community that maximises modularity gain, until no move
// improves modularity or the iteration cap is hit (spec.md §4.7).
func localMoves(adj []map[int]float64, degree []float64, comm []int, resolution, m2 float64) bool {
	anyMoved := false
	for iter := 0; iter < maxLocalMoveIterations; iter++ {
		moved := false
		for i := range adj {
			bestComm := comm[i]
			bestGain := 0.0
			neighborWeight := make(map[int]float64)
			for j, w := range adj[i] {
				neighborWeight[comm[j]] += w
			}
			currentComm := comm[i]
			// Tentatively remove i from its own community before scoring.
			sigmaTot := communityDegreeExcluding(adj, degree, comm, currentComm, i)

			for c, kIn := range neighborWeight {
				sigmaC := sigmaTot
				if c != currentComm {
					sigmaC = communityDegreeExcluding(adj, degree, comm, c, -1)
				}
				gain := kIn - resolution*sigmaC*degree[i]/m2
				if gain > bestGain || (gain == bestGain && c < bestComm) {
					bestGain = gain
					bestComm = c
				}
			}
			if bestComm != comm[i] {
				comm[i] = bestComm
				moved = true
				anyMoved = true
			}
		}
		if !moved {
			break
		}
	}
	return anyMoved
}

func communityDegreeExcluding(adj []map[int]float64, degree []float64, comm []int, target, exclude int) float64 {
	total := 0.0
	for i, c := range comm {
		if c == target && i != exclude {
			total += degree[i]
		}
	}
	return total
}

// Run executes Phase 5: builds the weighted adjacency, runs Louvain with
// auto-tuned resolution, recursively splits oversized communities, derives
// labels and cohesion, drops singletons, and writes Community nodes into
// store.
func Run(ctx context.Context, store graph.Store, symbols []graph.Symbol, edges []graph.CallEdge, opts Options) ([]graph.Community, error) {
	g := buildGraph(symbols, edges)
	if len(g.nodes) == 0 {
		return nil, nil
	}

	resolution := 1.0
	var assignment []int
	for {
		assignment = louvainLevel(g, resolution)
		if opts.MaxCommunitySize <= 0 || largestCommunitySize(assignment) <= opts.MaxCommunitySize || resolution >= 10.0 {
			break
		}
		resolution *= 2
		if resolution > 10.0 {
			resolution = 10.0
		}
	}

	groups := groupBy(g.nodes, assignment)
	groups = splitOversized(g, groups, opts.MaxCommunitySize)

	symbolByID := make(map[string]graph.Symbol, len(symbols))
	for _, s := range symbols {
		symbolByID[s.ID] = s
	}

	communityEdgeCounts := internalEdgeCounts(g, groups)

	var communities []graph.Community
	usedLabels := make(map[string]int)
	for i, members := range groups {
		if len(members) < 2 {
			continue // singleton communities are dropped (spec.md §4.7)
		}
		sort.Strings(members)
		label := deriveLabel(members, symbolByID)
		label = disambiguate(label, members, symbolByID, usedLabels)

		n := len(members)
		cohesion := 0.0
		if n > 1 {
			cohesion = round3(float64(communityEdgeCounts[i]) / (float64(n) * float64(n-1) / 2))
		}

		c := graph.Community{
			ID:              fmt.Sprintf("community_%d", i),
			Label:           label,
			Members:         members,
			Cohesion:        cohesion,
			PrimaryLanguage: primaryLanguage(members, symbolByID),
		}
		communities = append(communities, c)
		if err := store.AddCommunity(ctx, c); err != nil {
			return nil, fmt.Errorf("add community %s: %w", c.ID, err)
		}
		for _, m := range members {
			if err := store.AddGenericEdge(ctx, graph.GenericEdge{From: m, To: c.ID, Kind: graph.EdgeKindMemberOf}); err != nil {
				return nil, fmt.Errorf("add member_of edge: %w", err)
			}
		}
	}

	return communities, nil
}

func largestCommunitySize(assignment []int) int {
	counts := make(map[int]int)
	max := 0
	for _, c := range assignment {
		counts[c]++
		if counts[c] > max {
			max = counts[c]
		}
	}
	return max
}

func groupBy(nodes []string, assignment []int) [][]string {
	byComm := make(map[int][]string)
	var order []int
	for i, c := range assignment {
		if _, ok := byComm[c]; !ok {
			order = append(order, c)
		}
		byComm[c] = append(byComm[c], nodes[i])
	}
	sort.Ints(order)
	out := make([][]string, 0, len(order))
	for _, c := range order {
		out = append(out, byComm[c])
	}
	return out
}

// splitOversized recursively applies Louvain at resolution 2.0 (doubling up
// to eight times) to the induced subgraph of any group exceeding
// maxSize (spec.md §4.7).
func splitOversized(g *graphData, groups [][]string, maxSize int) [][]string {
	if maxSize <= 0 {
		return groups
	}
	var out [][]string
	for _, group := range groups {
		if len(group) <= maxSize {
			out = append(out, group)
			continue
		}
		out = append(out, recursiveSplit(g, group, maxSize, 2.0, 0)...)
	}
	return out
}

func recursiveSplit(g *graphData, group []string, maxSize int, resolution float64, depth int) [][]string {
	// depth 0..8 tries resolution 2.0, 4.0, ..., 512.0 (doubling eight times);
	// only give up once resolution 512 itself has been attempted and failed.
	if depth > 8 {
		return [][]string{group}
	}
	sub := induced(g, group)
	assignment := louvainLevel(sub, resolution)
	subGroups := groupBy(sub.nodes, assignment)
	if len(subGroups) <= 1 {
		if largestCommunitySize(assignment) > maxSize {
			return recursiveSplit(g, group, maxSize, resolution*2, depth+1)
		}
		return [][]string{group}
	}
	var out [][]string
	for _, sg := range subGroups {
		if len(sg) > maxSize {
			out = append(out, recursiveSplit(g, sg, maxSize, resolution*2, depth+1)...)
		} else {
			out = append(out, sg)
		}
	}
	return out
}

// induced builds the subgraph of g restricted to members.
func induced(g *graphData, members []string) *graphData {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	sub := &graphData{index: make(map[string]int)}
	ensure := func(id string) int {
		if i, ok := sub.index[id]; ok {
			return i
		}
		i := len(sub.nodes)
		sub.index[id] = i
		sub.nodes = append(sub.nodes, id)
		sub.adj = append(sub.adj, make(map[int]float64))
		return i
	}
	for _, m := range members {
		ensure(m)
	}
	for id, gi := range g.index {
		if _, ok := set[id]; !ok {
			continue
		}
		si := ensure(id)
		for nj, w := range g.adj[gi] {
			nid := g.nodes[nj]
			if _, ok := set[nid]; !ok {
				continue
			}
			sj := ensure(nid)
			sub.adj[si][sj] = w
			sub.totalW += w / 2
		}
	}
	return sub
}

func internalEdgeCounts(g *graphData, groups [][]string) map[int]int {
	memberComm := make(map[string]int)
	for ci, members := range groups {
		for _, m := range members {
			memberComm[m] = ci
		}
	}
	counts := make(map[int]int)
	seen := make(map[[2]int]bool)
	for i, neighbors := range g.adj {
		for j := range neighbors {
			if i >= j {
				continue
			}
			ci, iok := memberComm[g.nodes[i]]
			cj, jok := memberComm[g.nodes[j]]
			if iok && jok && ci == cj {
				key := [2]int{i, j}
				if !seen[key] {
					seen[key] = true
					counts[ci]++
				}
			}
		}
	}
	return counts
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

var stripDirSegments = []string{"src", "source", "sourcecode", "lib", "app"}

// deriveLabel implements the label-derivation order from spec.md §4.7.
func deriveLabel(members []string, byID map[string]graph.Symbol) string {
	if label, ok := labelFromParent(members, byID); ok {
		return label
	}
	if label, ok := labelFromDirectory(members, byID); ok {
		return label
	}
	if label, ok := labelFromPrefix(members, byID); ok {
		return label
	}
	return fmt.Sprintf("Community (%d members)", len(members))
}

func labelFromParent(members []string, byID map[string]graph.Symbol) (string, bool) {
	counts := make(map[string]int)
	for _, id := range members {
		if s, ok := byID[id]; ok && s.Parent != "" {
			counts[s.Parent]++
		}
	}
	best, bestCount := "", 0
	for parent, c := range counts {
		if c > bestCount {
			best, bestCount = parent, c
		}
	}
	if best == "" || float64(bestCount)/float64(len(members)) < 0.3 {
		return "", false
	}
	segs := strings.Split(best, ".")
	return segs[len(segs)-1], true
}

func labelFromDirectory(members []string, byID map[string]graph.Symbol) (string, bool) {
	counts := make(map[string]int)
	for _, id := range members {
		s, ok := byID[id]
		if !ok {
			continue
		}
		dir := strings.TrimSuffix(symbolDir(s.File), "/")
		if dir == "" {
			continue
		}
		segs := strings.Split(dir, "/")
		filtered := segs[:0]
		for _, seg := range segs {
			skip := false
			for _, strip := range stripDirSegments {
				if strings.EqualFold(seg, strip) {
					skip = true
					break
				}
			}
			if !skip {
				filtered = append(filtered, seg)
			}
		}
		if len(filtered) == 0 {
			continue
		}
		counts[filtered[len(filtered)-1]]++
	}
	best, bestCount := "", 0
	for dir, c := range counts {
		if c > bestCount {
			best, bestCount = dir, c
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func labelFromPrefix(members []string, byID map[string]graph.Symbol) (string, bool) {
	var names []string
	for _, id := range members {
		if s, ok := byID[id]; ok {
			names = append(names, s.Name)
		}
	}
	if len(names) < 2 {
		return "", false
	}
	prefix := names[0]
	for _, n := range names[1:] {
		prefix = commonPrefix(prefix, n)
		if prefix == "" {
			break
		}
	}
	if len(prefix) >= 3 {
		return prefix, true
	}
	return "", false
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func symbolDir(file string) string {
	idx := strings.LastIndex(file, "/")
	if idx == -1 {
		return ""
	}
	return file[:idx]
}

// disambiguate appends a distinguishing suffix when two communities
// produce the same label: the name of the community's first member, or,
// when that label is also taken, an ordinal. Secondary parents and
// directory components are not tried.
func disambiguate(label string, members []string, byID map[string]graph.Symbol, used map[string]int) string {
	if _, taken := used[label]; !taken {
		used[label] = 1
		return label
	}

	if len(members) > 0 {
		if s, ok := byID[members[0]]; ok && s.Name != "" {
			candidate := label + " (" + s.Name + ")"
			if _, taken := used[candidate]; !taken {
				used[candidate] = 1
				return candidate
			}
		}
	}

	used[label]++
	return fmt.Sprintf("%s #%d", label, used[label])
}

func primaryLanguage(members []string, byID map[string]graph.Symbol) graph.Language {
	counts := make(map[graph.Language]int)
	for _, id := range members {
		if s, ok := byID[id]; ok {
			counts[s.Language]++
		}
	}
	best := graph.Language("")
	bestCount := 0
	for lang, c := range counts {
		if c > bestCount {
			best, bestCount = lang, c
		}
	}
	return best
}
