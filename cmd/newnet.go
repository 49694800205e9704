package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/skyward-sim/skyward/state"
	"github.com/spf13/cobra"
)

const topologyHeader = `# skyward network topology
#
# nodes: name, numeric id, kind (drone/client/server), optional pdr in [0,1]
# graph: "a = b, c" defines a group; any other line interconnects the listed
#        nodes/groups (but not within a group)
`

// newnetCmd represents the newnet command
var newnetCmd = &cobra.Command{
	Use:   "newnet",
	Short: "Scaffold a sample topology config",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", configPath)
		}

		cfg := state.NetworkCfg{
			Nodes: []state.NodeCfg{
				{Name: "c1", Id: 1, Kind: state.Client},
				{Name: "d1", Id: 10, Kind: state.Drone, Pdr: 0.05},
				{Name: "d2", Id: 11, Kind: state.Drone},
				{Name: "d3", Id: 12, Kind: state.Drone},
				{Name: "s1", Id: 20, Kind: state.Server},
			},
			Graph: []string{
				"backbone = d1, d2, d3",
				"backbone, backbone",
				"c1, d1",
				"s1, d2",
				"s1, d3",
			},
		}
		if err := state.NetworkConfigValidator(&cfg); err != nil {
			return err
		}

		out, err := yaml.Marshal(&cfg)
		if err != nil {
			return err
		}
		err = os.WriteFile(configPath, append([]byte(topologyHeader), out...), 0644)
		if err != nil {
			return err
		}
		fmt.Printf("wrote sample topology to %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newnetCmd)
}
