package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/skyward-sim/skyward/sim"
	"github.com/skyward-sim/skyward/state"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated network",
	Long: `Run builds the network described by the topology config, starts one actor
per drone, initiates a discovery flood from every endpoint, and streams
controller events until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return err
		}
		var cfg state.NetworkCfg
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return err
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}
		logger, err := sim.NewLogger(level, cfg.LogPath, "skyward")
		if err != nil {
			return err
		}

		net, err := sim.NewNetwork(cfg, logger)
		if err != nil {
			return err
		}

		if ok, _ := cmd.Flags().GetBool("debug"); ok {
			// expvar + /debug/metrics on the default mux
			go func() {
				logger.Error("debug server stopped", "err", http.ListenAndServe("127.0.0.1:6060", nil))
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		net.Start(ctx)

		go func() {
			for {
				select {
				case e := <-net.Controller.Events:
					logger.Info("event",
						"node", e.Node,
						"kind", state.EventName(e.Event),
						"packet", e.Event.Subject())
				case <-ctx.Done():
					return
				}
			}
		}()

		floodId := uint64(1)
		for _, node := range cfg.Nodes {
			if node.Kind == state.Drone {
				continue
			}
			if err := net.Controller.InitiateFlood(node.Id, floodId, 0); err != nil {
				logger.Warn("flood initiation failed", "node", node.Name, "err", err)
			}
			floodId++
		}

		logger.Info("network running, send SIGINT or Ctrl+C to exit")
		select {
		case <-ctx.Done():
		case err := <-net.Errors():
			logger.Error("network fault", "err", err)
			net.Stop()
			return err
		}
		net.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().Bool("debug", false, "Serve runtime metrics on 127.0.0.1:6060")
}
