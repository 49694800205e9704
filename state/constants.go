package state

import "time"

var (
	// FloodDedupTTL bounds how long a (flood id, initiator) record is kept.
	// Floods complete within a round trip, so expired records can never
	// cause a re-broadcast of a live flood.
	FloodDedupTTL = time.Minute * 10

	// PacketChannelCap approximates the unbounded per-edge queues of the
	// reference network. A drone never holds more than this many undelivered
	// packets per inbound edge before producers start to block.
	PacketChannelCap = 4096

	// CommandChannelCap sizes the controller command queue per node.
	CommandChannelCap = 64

	// EventChannelCap sizes the per-node event queue toward the controller.
	EventChannelCap = 4096

	// DefaultConfigPath is where the run command looks for a topology file.
	DefaultConfigPath = "topology.yaml"
)
