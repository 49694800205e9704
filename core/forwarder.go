package core

import (
	"fmt"

	"github.com/skyward-sim/skyward/perf"
	"github.com/skyward-sim/skyward/state"
)

// failurePolicy decides what an undeliverable packet becomes: a
// ControllerShortcut event, or a tier-3 fatal error.
type failurePolicy uint8

const (
	onFailureShortcut failurePolicy = iota
	onFailureFatal
)

// handlePacket is the per-packet decision pipeline. Exactly one outbound
// packet (forwarded traffic, a nack, or a flood response) and one controller
// event result from every call.
func (d *Drone) handlePacket(p state.Packet) error {
	// flood requests explore the topology; their header is not a committed
	// route and skips validation entirely
	if req, ok := p.Payload.(state.FloodRequest); ok {
		return d.handleFloodRequest(p, req)
	}

	cur, ok := p.Header.CurrentHop()
	if !ok {
		return fmt.Errorf("%w: no current hop in %s", ErrInvariant, p)
	}
	if cur != d.id {
		d.log.Debug("unexpected recipient", "expected", cur, "packet", p)
		return d.sendNack(p, state.NackUnexpectedRecipient(d.id))
	}
	if p.Header.IsLastHop() {
		d.log.Debug("route terminates at a drone", "packet", p)
		return d.sendNack(p, state.NackDestinationIsDrone())
	}
	next, _ := p.Header.NextHop()
	if _, ok := d.neighbors[next]; !ok {
		d.log.Debug("no route to next hop", "next", next, "packet", p)
		return d.sendNack(p, state.NackErrorInRouting(d.id))
	}

	if _, ok := p.Payload.(state.MsgFragment); ok {
		if d.drop.Drop(d.pdr) {
			d.log.Debug("fragment lost to simulated link", "packet", p)
			perf.DropsPerSecond.Add(1)
			d.emit(state.PacketDropped{Packet: p})
			return d.sendNack(p, state.NackDropped())
		}
		// the next-hop check above makes this delivery infallible in a
		// single-threaded drone; a failure here is a construction bug
		return d.forward(p, onFailureFatal)
	}
	return d.forward(p, onFailureShortcut)
}

// forward advances the cursor past this node and delivers to the new current
// hop.
func (d *Drone) forward(p state.Packet, policy failurePolicy) error {
	perf.ForwardsPerSecond.Add(1)
	p.Header = p.Header.Advanced()
	return d.send(p, policy)
}

// sendNack answers orig with a nack routed along the reversed traversed path.
func (d *Drone) sendNack(orig state.Packet, t state.NackType) error {
	perf.NacksPerSecond.Add(1)
	nack := state.Packet{
		Header:  orig.Header.Reversed(),
		Session: orig.Session,
		Payload: state.Nack{Index: orig.Payload.FragmentIndex(), Type: t},
	}
	return d.sendGenerated(nack)
}

// sendGenerated delivers a packet this drone synthesized (nack or flood
// response), whose header cursor already points at the receiving neighbor.
func (d *Drone) sendGenerated(p state.Packet) error {
	policy := onFailureShortcut
	if d.strict {
		policy = onFailureFatal
	}
	return d.send(p, policy)
}

// send hands p to the neighbor the header cursor points at and reports the
// outcome. A missing current hop is always fatal; a missing channel follows
// the given policy.
func (d *Drone) send(p state.Packet, policy failurePolicy) error {
	hop, ok := p.Header.CurrentHop()
	if !ok {
		return fmt.Errorf("%w: header %s has no current hop", ErrInvariant, p.Header)
	}
	ch, ok := d.neighbors[hop]
	if !ok {
		if policy == onFailureFatal {
			return fmt.Errorf("%w: %s has nowhere to go, next hop %d unreachable", ErrInvariant, p, hop)
		}
		d.log.Debug("next hop unreachable, shortcutting to controller", "next", hop, "packet", p)
		perf.ShortcutsPerSecond.Add(1)
		d.emit(state.ControllerShortcut{Packet: p})
		return nil
	}
	select {
	case ch <- p:
		d.emit(state.PacketSent{Packet: p})
	case <-d.ctx.Done():
	}
	return nil
}
