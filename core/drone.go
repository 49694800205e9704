package core

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/jellydator/ttlcache/v3"
	"github.com/skyward-sim/skyward/state"
)

// ErrInvariant marks tier-3 protocol faults: a malformed header constructed
// upstream, or a freshly generated packet with nowhere to go under strict
// delivery. These abort the drone's Run loop instead of being swallowed.
var ErrInvariant = errors.New("protocol invariant violated")

type phase uint8

const (
	running phase = iota
	crashing
	terminated
)

type floodKey struct {
	floodId   uint64
	initiator state.NodeId
}

// Config carries the per-drone knobs that are not channels.
type Config struct {
	Id  state.NodeId
	Pdr float64
	// StrictDelivery promotes delivery failures of freshly generated
	// protocol packets to fatal errors.
	StrictDelivery bool
	Log            *slog.Logger
	// Rng overrides the entropy source of the drop simulator. Nil picks a
	// randomly seeded one.
	Rng *rand.Rand
}

// Drone is one autonomous intermediate node. All of its state is owned by the
// single goroutine executing Run; the only way in is the command and packet
// channels, the only way out is the neighbor channels and the event channel.
type Drone struct {
	id  state.NodeId
	log *slog.Logger

	commands <-chan state.Command
	events   chan<- state.Event
	packets  <-chan state.Packet

	neighbors map[state.NodeId]chan<- state.Packet
	pdr       float64
	strict    bool
	drop      *dropSimulator
	seen      *ttlcache.Cache[floodKey, struct{}]

	phase phase
	ctx   context.Context
}

// New assembles a drone. The neighbors map is copied; the caller keeps no
// handle into the drone's state.
func New(
	cfg Config,
	commands <-chan state.Command,
	events chan<- state.Event,
	packets <-chan state.Packet,
	neighbors map[state.NodeId]chan<- state.Packet,
) *Drone {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	table := make(map[state.NodeId]chan<- state.Packet, len(neighbors))
	for id, ch := range neighbors {
		table[id] = ch
	}
	return &Drone{
		id:        cfg.Id,
		log:       log.With("drone", cfg.Id),
		commands:  commands,
		events:    events,
		packets:   packets,
		neighbors: table,
		pdr:       clampRate(cfg.Pdr),
		strict:    cfg.StrictDelivery,
		drop:      newDropSimulator(cfg.Rng),
		seen: ttlcache.New[floodKey, struct{}](
			ttlcache.WithTTL[floodKey, struct{}](state.FloodDedupTTL),
			ttlcache.WithDisableTouchOnHit[floodKey, struct{}](),
		),
	}
}

func (d *Drone) Id() state.NodeId { return d.id }

// handleCommand mutates the drone's state for one controller command. Only
// valid while running; the crash drain loop has its own restricted handler.
func (d *Drone) handleCommand(cmd state.Command) {
	switch c := cmd.(type) {
	case state.SetDropRate:
		old := d.pdr
		d.pdr = clampRate(c.Rate)
		d.log.Debug("drop rate changed", "from", old, "to", d.pdr)
	case state.Crash:
		d.log.Info("crash commanded, entering drain")
		d.phase = crashing
	case state.AddNeighbor:
		d.addNeighbor(c.Node, c.Ch)
	case state.RemoveNeighbor:
		d.removeNeighbor(c.Node)
	}
}

func (d *Drone) addNeighbor(id state.NodeId, ch chan<- state.Packet) {
	d.neighbors[id] = ch
	d.log.Debug("neighbor added", "neighbor", id)
}

func (d *Drone) removeNeighbor(id state.NodeId) {
	delete(d.neighbors, id)
	d.log.Debug("neighbor removed", "neighbor", id)
}

// hasNeighborOtherThan reports whether any outbound channel exists besides
// the one toward from.
func (d *Drone) hasNeighborOtherThan(from state.NodeId) bool {
	for id := range d.neighbors {
		if id != from {
			return true
		}
	}
	return false
}

// emit reports an outcome to the controller. Gives up silently on context
// cancellation; a torn-down harness no longer reads events.
func (d *Drone) emit(e state.Event) {
	select {
	case d.events <- e:
	case <-d.ctx.Done():
	}
}

func clampRate(p float64) float64 {
	return min(max(p, 0), 1)
}
