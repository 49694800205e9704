package sim

import (
	"fmt"

	"github.com/skyward-sim/skyward/state"
)

// NodeEvent tags an event with the drone that reported it.
type NodeEvent struct {
	Node  state.NodeId
	Event state.Event
}

// Controller is the supervisory side of the network: it aggregates per-drone
// event channels into one stream, performs out-of-band delivery of shortcut
// packets, and exposes the command surface.
type Controller struct {
	net *Network

	// Events is the merged event stream of every drone.
	Events chan NodeEvent
}

func newController(n *Network) *Controller {
	return &Controller{
		net:    n,
		Events: make(chan NodeEvent, state.EventChannelCap),
	}
}

// start spawns one pump per drone. Pumps exit with the network context.
func (c *Controller) start() {
	for id, ch := range c.net.eventCh {
		c.net.wg.Add(1)
		go func(id state.NodeId, ch <-chan state.Event) {
			defer c.net.wg.Done()
			for {
				select {
				case e := <-ch:
					c.handle(id, e)
				case <-c.net.ctx.Done():
					return
				}
			}
		}(id, ch)
	}
}

func (c *Controller) handle(id state.NodeId, e state.Event) {
	if sc, ok := e.(state.ControllerShortcut); ok {
		c.deliverShortcut(id, sc.Packet)
	}
	select {
	case c.Events <- NodeEvent{Node: id, Event: e}:
	case <-c.net.ctx.Done():
	}
}

// deliverShortcut hands an undeliverable packet straight to its final
// destination, bypassing the remaining hops.
func (c *Controller) deliverShortcut(from state.NodeId, p state.Packet) {
	if len(p.Header.Hops) == 0 {
		c.net.log.Warn("shortcut packet with empty route discarded", "from", from, "packet", p)
		return
	}
	dest := p.Header.Hops[len(p.Header.Hops)-1]
	ch, ok := c.net.packetCh[dest]
	if !ok {
		c.net.log.Warn("shortcut destination unknown, packet lost", "from", from, "dest", dest, "packet", p)
		return
	}
	p.Header.HopIndex = len(p.Header.Hops) - 1
	c.net.log.Debug("shortcut delivery", "from", from, "dest", dest, "packet", p)
	select {
	case ch <- p:
	case <-c.net.ctx.Done():
	}
}

// SetDropRate replaces one drone's drop probability.
func (c *Controller) SetDropRate(id state.NodeId, rate float64) {
	c.command(id, state.SetDropRate{Rate: rate})
}

// Crash begins a drone's crash-drain sequence. The neighbor removals that
// complete the drain are issued separately, see DetachEdge.
func (c *Controller) Crash(id state.NodeId) {
	c.command(id, state.Crash{})
}

// AddEdge connects two nodes by installing each one's inbound channel in the
// other's neighbor table. Endpoint nodes have no table and are skipped.
func (c *Controller) AddEdge(a, b state.NodeId) {
	if _, ok := c.net.drones[a]; ok {
		c.command(a, state.AddNeighbor{Node: b, Ch: c.net.packetCh[b]})
	}
	if _, ok := c.net.drones[b]; ok {
		c.command(b, state.AddNeighbor{Node: a, Ch: c.net.packetCh[a]})
	}
}

// DetachEdge removes the channel pair installed by AddEdge (or the initial
// wiring).
func (c *Controller) DetachEdge(a, b state.NodeId) {
	if _, ok := c.net.drones[a]; ok {
		c.command(a, state.RemoveNeighbor{Node: b})
	}
	if _, ok := c.net.drones[b]; ok {
		c.command(b, state.RemoveNeighbor{Node: a})
	}
}

func (c *Controller) command(id state.NodeId, cmd state.Command) {
	ch, ok := c.net.commandCh[id]
	if !ok {
		c.net.log.Warn("command for non-drone node dropped", "node", id, "command", cmd)
		return
	}
	select {
	case ch <- cmd:
	case <-c.net.ctx.Done():
	}
}

// InitiateFlood originates a discovery flood from an endpoint node toward
// every drone it attaches to.
func (c *Controller) InitiateFlood(from state.NodeId, floodId, session uint64) error {
	cfg := c.net.cfg
	node := cfg.TryGetNode(from)
	if node == nil {
		return fmt.Errorf("unknown node id %d", from)
	}
	neighbors, err := cfg.Neighbors(from)
	if err != nil {
		return err
	}
	req := state.FloodRequest{
		FloodId:   floodId,
		Initiator: from,
		Trace:     []state.FloodPathEntry{{Node: from, Kind: node.Kind}},
	}
	for _, id := range neighbors {
		c.net.Send(id, state.Packet{
			Header:  state.SourceRoutingHeader{Hops: []state.NodeId{from}, HopIndex: 0},
			Session: session,
			Payload: req,
		})
	}
	return nil
}
