package core

import (
	"slices"

	"github.com/jellydator/ttlcache/v3"
	"github.com/skyward-sim/skyward/perf"
	"github.com/skyward-sim/skyward/state"
)

// handleFloodRequest deduplicates and propagates a discovery flood. The first
// sight of a (flood id, initiator) pair fans out to every neighbor except the
// arrival link; a repeat sighting, or a leaf position, answers with a
// FloodResponse routed back along the accumulated path trace.
func (d *Drone) handleFloodRequest(p state.Packet, req state.FloodRequest) error {
	perf.FloodsPerSecond.Add(1)
	key := floodKey{floodId: req.FloodId, initiator: req.Initiator}
	first := d.seen.Get(key) == nil
	if first {
		d.seen.Set(key, struct{}{}, ttlcache.DefaultTTL)
	}

	from := req.LastHop()
	if first && d.hasNeighborOtherThan(from) {
		return d.rebroadcast(p, req, from)
	}
	return d.respond(p, req)
}

// rebroadcast records this node in the path trace and hop list and copies the
// request to every neighbor except the one it arrived from. Every copy yields
// its own controller event.
func (d *Drone) rebroadcast(p state.Packet, req state.FloodRequest, from state.NodeId) error {
	out := state.Packet{
		Header:  p.Header.AppendedHop(d.id).Advanced(),
		Session: p.Session,
		Payload: req.AppendHop(d.id, state.Drone),
	}

	// deterministic fan-out order keeps event streams reproducible
	ids := make([]state.NodeId, 0, len(d.neighbors))
	for id := range d.neighbors {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if id == from {
			continue
		}
		select {
		case d.neighbors[id] <- out:
			d.emit(state.PacketSent{Packet: out})
		case <-d.ctx.Done():
			return nil
		}
	}
	d.log.Debug("flood re-broadcast", "flood", req.FloodId, "initiator", req.Initiator, "except", from)
	return nil
}

// respond synthesizes the FloodResponse for req. From here on it is an
// ordinary header-following packet.
func (d *Drone) respond(p state.Packet, req state.FloodRequest) error {
	if n := len(req.Trace); n == 0 || req.Trace[n-1].Node != d.id {
		req = req.AppendHop(d.id, state.Drone)
	}
	d.log.Debug("flood answered", "flood", req.FloodId, "initiator", req.Initiator)
	return d.sendGenerated(req.Response(p.Session))
}
