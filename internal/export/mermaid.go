package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

// GenerateMermaid renders a JSON v1.0 Document as a Mermaid graph TD
// diagram: one subgraph per community, call edges between members, and
// any symbol outside a community plotted loose. Adapted from the teacher's
// file/cluster Mermaid export to a symbol/community graph.
func GenerateMermaid(doc *Document) string {
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(symbolID string) string {
		if id, ok := nodeIDs[symbolID]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[symbolID] = id
		return id
	}

	nameByID := make(map[string]string, len(doc.Symbols))
	for _, s := range doc.Symbols {
		nameByID[s.ID] = s.Name
	}

	clustered := make(map[string]bool)

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	communities := append([]graph.Community(nil), doc.Communities...)
	sort.Slice(communities, func(i, j int) bool { return communities[i].ID < communities[j].ID })

	for _, c := range communities {
		members := append([]string(nil), c.Members...)
		sort.Strings(members)
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s\"]\n", getID("cluster:"+c.ID), c.Label))
		for _, m := range members {
			clustered[m] = true
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(m), shortName(m, nameByID)))
		}
		sb.WriteString("  end\n")
	}

	for _, s := range doc.Symbols {
		if !clustered[s.ID] {
			sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(s.ID), shortName(s.ID, nameByID)))
		}
	}

	for _, call := range doc.Calls {
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(call.From), getID(call.To)))
	}

	return sb.String()
}

func shortName(symbolID string, nameByID map[string]string) string {
	if name, ok := nameByID[symbolID]; ok && name != "" {
		return name
	}
	return symbolID
}
