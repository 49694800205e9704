package cmd

import (
	"os"

	"github.com/skyward-sim/skyward/state"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skyward",
	Short: "Skyward simulated drone network",
	Long: `Skyward runs a simulated packet-switched network of autonomous drone nodes.
Drones forward source-routed packets over per-neighbor channels, answer topology
discovery floods, simulate lossy links, and obey a supervisory controller.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", state.DefaultConfigPath, "network topology config")
}
