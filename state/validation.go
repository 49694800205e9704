package state

import (
	"fmt"
	"regexp"
)

var namePattern = regexp.MustCompile("^[0-9a-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(%q) = %d > 100 is too long", s, len(s))
	}
	return nil
}

func DropRateValidator(pdr float64) error {
	if pdr < 0 || pdr > 1 {
		return fmt.Errorf("drop rate %v is outside [0, 1]", pdr)
	}
	return nil
}

// NetworkConfigValidator checks node naming, id uniqueness, drop rate ranges
// and the degree constraints of endpoints: a client attaches to one or two
// drones, a server to at least two, and neither connects to other endpoints.
func NetworkConfigValidator(cfg *NetworkCfg) error {
	seenNames := make(map[string]struct{})
	seenIds := make(map[NodeId]struct{})
	for _, node := range cfg.Nodes {
		if err := NameValidator(node.Name); err != nil {
			return err
		}
		if _, ok := seenNames[node.Name]; ok {
			return fmt.Errorf("duplicate node name: %s", node.Name)
		}
		seenNames[node.Name] = struct{}{}
		if _, ok := seenIds[node.Id]; ok {
			return fmt.Errorf("duplicate node id: %d", node.Id)
		}
		seenIds[node.Id] = struct{}{}
		if err := DropRateValidator(node.Pdr); err != nil {
			return fmt.Errorf("node %s: %w", node.Name, err)
		}
	}

	edges, err := cfg.Edges()
	if err != nil {
		return err
	}
	degree := make(map[NodeId]int)
	for _, edge := range edges {
		a, b := cfg.GetNode(edge.V1), cfg.GetNode(edge.V2)
		if a.Kind != Drone && b.Kind != Drone {
			return fmt.Errorf("edge %s, %s connects two endpoints", a.Name, b.Name)
		}
		degree[edge.V1]++
		degree[edge.V2]++
	}
	for _, node := range cfg.Nodes {
		switch node.Kind {
		case Client:
			if degree[node.Id] < 1 || degree[node.Id] > 2 {
				return fmt.Errorf("client %s must attach to 1 or 2 drones, has %d edges", node.Name, degree[node.Id])
			}
		case Server:
			if degree[node.Id] < 2 {
				return fmt.Errorf("server %s must attach to at least 2 drones, has %d edges", node.Name, degree[node.Id])
			}
		}
	}
	return nil
}
