package state

import (
	"fmt"
	"slices"
	"strings"
)

// NodeCfg describes one node of the simulated network.
type NodeCfg struct {
	Name string
	Id   NodeId
	Kind NodeKind
	// Pdr is the initial packet drop rate, only meaningful for drones.
	Pdr float64 `yaml:",omitempty"`
}

// NetworkCfg is the whole topology, loaded from a single YAML file.
type NetworkCfg struct {
	Nodes []NodeCfg
	// Graph uses the group syntax understood by ParseGraph, with node names
	// as terminals.
	Graph []string
	// LogPath, if set, mirrors all simulation logs into a file.
	LogPath string `yaml:"log_path,omitempty"`
	// StrictDelivery makes a drone treat an undeliverable freshly generated
	// protocol packet as fatal instead of handing it to the controller.
	StrictDelivery bool `yaml:"strict_delivery,omitempty"`
}

func (c *NetworkCfg) TryGetNode(id NodeId) *NodeCfg {
	idx := slices.IndexFunc(c.Nodes, func(cfg NodeCfg) bool {
		return cfg.Id == id
	})
	if idx == -1 {
		return nil
	}
	return &c.Nodes[idx]
}

func (c *NetworkCfg) GetNode(id NodeId) NodeCfg {
	val := c.TryGetNode(id)
	if val == nil {
		panic(fmt.Sprintf("node %d not found", id))
	}
	return *val
}

func (c *NetworkCfg) names() []string {
	names := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		names = append(names, n.Name)
	}
	return names
}

func (c *NetworkCfg) idOf(name string) NodeId {
	for _, n := range c.Nodes {
		if n.Name == name {
			return n.Id
		}
	}
	panic("node name " + name + " not found")
}

// Edges evaluates the graph into a deduplicated, sorted list of undirected
// edges between node ids.
func (c *NetworkCfg) Edges() ([]Pair[NodeId, NodeId], error) {
	pairs, err := ParseGraph(c.Graph, c.names())
	if err != nil {
		return nil, err
	}
	edges := make([]Pair[NodeId, NodeId], 0, len(pairs))
	for _, p := range pairs {
		edges = append(edges, MakeSortedPair(c.idOf(p.V1), c.idOf(p.V2)))
	}
	slices.SortFunc(edges, comparePairs[NodeId])
	return slices.Compact(edges), nil
}

// Neighbors lists every node sharing an edge with id.
func (c *NetworkCfg) Neighbors(id NodeId) ([]NodeId, error) {
	edges, err := c.Edges()
	if err != nil {
		return nil, err
	}
	nodes := make([]NodeId, 0)
	for _, edge := range edges {
		if edge.V1 == id {
			nodes = append(nodes, edge.V2)
		} else if edge.V2 == id {
			nodes = append(nodes, edge.V1)
		}
	}
	return nodes, nil
}

func comparePairs[T NodeId | string](a, b Pair[T, T]) int {
	if a.V1 != b.V1 {
		if a.V1 < b.V1 {
			return -1
		}
		return 1
	}
	if a.V2 != b.V2 {
		if a.V2 < b.V2 {
			return -1
		}
		return 1
	}
	return 0
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	spl := strings.Split(strings.TrimSpace(s), ",")
	line := make([]string, 0)
	for _, sym := range spl {
		x := strings.TrimSpace(sym)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf("%s is not a valid node/group", x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("node/group list must not be empty")
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph evaluates the topology graph syntax:

	backbone = d1, d2, d3

	backbone, backbone // fully interconnect the group

	c1, d1 // a single edge

A line with '=' defines a group; any other line interconnects all listed
nodes/groups with each other (but not within a group). nodes is the set of
terminal node names the graph may reference.
*/
func ParseGraph(graph []string, nodes []string) ([]Pair[string, string], error) {
	parsedPairings := make([]Pair[string, string], 0)
	groups := make(map[string][]string)
	symbols := slices.Clone(nodes)

	// pass 0, collect all symbols
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			if len(spl) != 2 {
				return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
			}
			grp := strings.TrimSpace(spl[0])
			if slices.Contains(nodes, grp) {
				return nil, fmt.Errorf("group name must not be a node name: %s", grp)
			}
			symbols = append(symbols, grp)
		}
	}
	slices.Sort(symbols)
	symbols = slices.Compact(symbols)

	// map: group -> groups it depends on, used for topological expansion
	topo := make(map[string][]string)
	expansion := make(map[string][]string)

	// pass 1, parse graph
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			grp := strings.TrimSpace(spl[0])
			if _, ok := groups[grp]; ok {
				return nil, fmt.Errorf("duplicate group name: %s", grp)
			}
			lst, err := parseSymbolList(spl[1], symbols)
			if err != nil {
				return nil, err
			}
			deps := make([]string, 0)
			for _, l := range lst {
				if !slices.Contains(nodes, l) {
					deps = append(deps, l)
				} else {
					expansion[grp] = append(expansion[grp], l)
				}
			}
			slices.Sort(deps)
			deps = slices.Compact(deps)
			topo[grp] = deps
			groups[grp] = lst
		} else {
			names, err := parseSymbolList(line, symbols)
			if err != nil {
				return nil, err
			}
			if len(names) < 2 {
				return nil, fmt.Errorf("invalid pairing, %v", names)
			}
			interconnect := make([]string, 0)
			for _, name := range names {
				for _, other := range interconnect {
					parsedPairings = append(parsedPairings, MakeSortedPair(other, name))
				}
				interconnect = append(interconnect, name)
			}
			slices.SortFunc(parsedPairings, comparePairs[string])
			parsedPairings = slices.Compact(parsedPairings)
		}
	}

	// pass 2, expand group names by topological sorting
	for len(topo) > 0 {
		var group string
		for k, v := range topo {
			if len(v) == 0 {
				group = k
				break
			}
		}
		if group == "" {
			cycleNodes := make([]string, 0)
			for node := range topo {
				cycleNodes = append(cycleNodes, node)
			}
			slices.Sort(cycleNodes)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycleNodes)
		}
		delete(topo, group)

		for k, deps := range topo {
			if slices.Contains(deps, group) {
				expansion[k] = append(expansion[k], expansion[group]...)
				slices.Sort(expansion[k])
				expansion[k] = slices.Compact(expansion[k])

				x := 0
				for _, dep := range deps {
					if dep != group {
						deps[x] = dep
						x++
					}
				}
				topo[k] = deps[:x]
			}
		}
	}

	// pass 3, rewrite pairings in terms of terminal nodes
	pairings := make([]Pair[string, string], 0)
	for _, pair := range parsedPairings {
		left := expand(pair.V1, nodes, expansion)
		right := expand(pair.V2, nodes, expansion)
		for _, x := range left {
			for _, y := range right {
				if x != y {
					pairings = append(pairings, MakeSortedPair(x, y))
				}
			}
		}
		slices.SortFunc(pairings, comparePairs[string])
		pairings = slices.Compact(pairings)
	}
	return pairings, nil
}

func expand(symbol string, nodes []string, expansion map[string][]string) []string {
	if slices.Contains(nodes, symbol) {
		return []string{symbol}
	}
	return expansion[symbol]
}
