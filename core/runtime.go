package core

import (
	"context"
	"time"

	"github.com/skyward-sim/skyward/perf"
	"github.com/skyward-sim/skyward/state"
)

// Run executes the drone's actor loop until it terminates through the crash
// drain sequence or the context is cancelled by the surrounding harness.
// Commands take strict priority over packets whenever both are ready, so
// crashes and neighbor table updates always take effect before further
// traffic is processed.
//
// The returned error is nil for both termination paths; anything non-nil
// wraps ErrInvariant and means a construction bug upstream.
func (d *Drone) Run(ctx context.Context) error {
	d.ctx = ctx
	d.log.Debug("drone started", "neighbors", len(d.neighbors), "pdr", d.pdr)
	for d.phase == running {
		select {
		case cmd := <-d.commands:
			d.handleCommand(cmd)
			continue
		default:
		}
		select {
		case cmd := <-d.commands:
			d.handleCommand(cmd)
		case pkt := <-d.packets:
			perf.PacketsPerSecond.Add(1)
			start := time.Now()
			err := d.handlePacket(pkt)
			perf.DispatchLatency.Add(float64(time.Since(start).Microseconds()))
			if err != nil {
				d.log.Error("fatal packet handling fault", "err", err)
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
	return d.drain(ctx)
}

// drain is the crashing half of the state machine. In-flight acknowledgement
// traffic keeps flowing, fragments are refused, floods are ignored, and the
// only way out is the neighbor table reaching empty.
func (d *Drone) drain(ctx context.Context) error {
	for {
		if len(d.neighbors) == 0 {
			d.phase = terminated
			d.log.Info("drained, terminated")
			return nil
		}
		select {
		case cmd := <-d.commands:
			d.handleDrainCommand(cmd)
			continue
		default:
		}
		select {
		case cmd := <-d.commands:
			d.handleDrainCommand(cmd)
		case pkt := <-d.packets:
			if err := d.handleDrainPacket(pkt); err != nil {
				d.log.Error("fatal packet handling fault while draining", "err", err)
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// handleDrainCommand honors RemoveNeighbor and nothing else.
func (d *Drone) handleDrainCommand(cmd state.Command) {
	if c, ok := cmd.(state.RemoveNeighbor); ok {
		d.removeNeighbor(c.Node)
		return
	}
	d.log.Debug("command ignored while draining", "command", cmd)
}

func (d *Drone) handleDrainPacket(p state.Packet) error {
	switch p.Payload.(type) {
	case state.FloodRequest:
		// a leaving node must not advertise new topology
		d.log.Debug("flood request discarded while draining", "packet", p)
		return nil
	case state.MsgFragment:
		// never forwarded while crashing, regardless of drop rate
		return d.sendNack(p, state.NackErrorInRouting(d.id))
	default:
		// Ack, Nack, FloodResponse keep flowing until the table empties
		return d.forward(p, onFailureShortcut)
	}
}
