package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skyward-sim/skyward/core"
	"github.com/skyward-sim/skyward/state"
)

// Network wires a topology config into live channels and one goroutine per
// drone. Endpoint nodes (clients and servers) get an inbox channel owned by
// the caller; their application logic is outside this package.
type Network struct {
	cfg state.NetworkCfg
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc

	packetCh  map[state.NodeId]chan state.Packet
	commandCh map[state.NodeId]chan state.Command
	eventCh   map[state.NodeId]chan state.Event

	drones map[state.NodeId]*core.Drone
	wg     sync.WaitGroup
	errs   chan error

	Controller *Controller
}

// NewNetwork validates cfg and builds every channel and drone, without
// starting anything.
func NewNetwork(cfg state.NetworkCfg, log *slog.Logger) (*Network, error) {
	if err := state.NetworkConfigValidator(&cfg); err != nil {
		return nil, fmt.Errorf("invalid network config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	n := &Network{
		cfg:       cfg,
		log:       log,
		packetCh:  make(map[state.NodeId]chan state.Packet),
		commandCh: make(map[state.NodeId]chan state.Command),
		eventCh:   make(map[state.NodeId]chan state.Event),
		drones:    make(map[state.NodeId]*core.Drone),
		errs:      make(chan error, len(cfg.Nodes)),
	}

	for _, node := range cfg.Nodes {
		n.packetCh[node.Id] = make(chan state.Packet, state.PacketChannelCap)
	}

	for _, node := range cfg.Nodes {
		if node.Kind != state.Drone {
			continue
		}
		neighbors, err := cfg.Neighbors(node.Id)
		if err != nil {
			return nil, err
		}
		table := make(map[state.NodeId]chan<- state.Packet, len(neighbors))
		for _, id := range neighbors {
			table[id] = n.packetCh[id]
		}
		n.commandCh[node.Id] = make(chan state.Command, state.CommandChannelCap)
		n.eventCh[node.Id] = make(chan state.Event, state.EventChannelCap)
		n.drones[node.Id] = core.New(
			core.Config{
				Id:             node.Id,
				Pdr:            node.Pdr,
				StrictDelivery: cfg.StrictDelivery,
				Log:            log.With("node", node.Name),
			},
			n.commandCh[node.Id],
			n.eventCh[node.Id],
			n.packetCh[node.Id],
			table,
		)
	}

	n.Controller = newController(n)
	return n, nil
}

// Start launches every drone and the controller's event pumps. Fatal drone
// errors cancel the whole network; they are readable from Errors.
func (n *Network) Start(ctx context.Context) {
	n.ctx, n.cancel = context.WithCancelCause(ctx)
	for id, d := range n.drones {
		n.wg.Add(1)
		go func(id state.NodeId, d *core.Drone) {
			defer n.wg.Done()
			if err := d.Run(n.ctx); err != nil {
				n.errs <- fmt.Errorf("drone %d: %w", id, err)
				n.cancel(err)
			}
		}(id, d)
	}
	n.Controller.start()
	n.log.Info("network started", "drones", len(n.drones), "nodes", len(n.cfg.Nodes))
}

// Stop cancels the network and waits for every goroutine to exit.
func (n *Network) Stop() {
	n.cancel(context.Canceled)
	n.wg.Wait()
	n.log.Info("network stopped")
}

// Errors reports fatal drone faults (tier-3 invariant violations).
func (n *Network) Errors() <-chan error {
	return n.errs
}

// Inbox is the packet channel of an endpoint (or drone) node; tests and
// endpoint logic read delivered traffic from here.
func (n *Network) Inbox(id state.NodeId) <-chan state.Packet {
	return n.packetCh[id]
}

// Send injects a packet into a node's inbound packet channel, standing in
// for the endpoint application logic that would normally originate it.
// Valid only after Start.
func (n *Network) Send(to state.NodeId, p state.Packet) {
	select {
	case n.packetCh[to] <- p:
	case <-n.ctx.Done():
	}
}

func (n *Network) Config() state.NetworkCfg {
	return n.cfg
}
