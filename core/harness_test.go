package core

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/skyward-sim/skyward/state"
)

// droneHarness drives a drone's packet pipeline directly, capturing what each
// neighbor channel and the event channel receive.
type droneHarness struct {
	t      *testing.T
	drone  *Drone
	events chan state.Event
	inbox  map[state.NodeId]chan state.Packet
}

func newHarness(t *testing.T, id state.NodeId, neighbors ...state.NodeId) *droneHarness {
	t.Helper()
	events := make(chan state.Event, 64)
	inbox := make(map[state.NodeId]chan state.Packet)
	table := make(map[state.NodeId]chan<- state.Packet)
	for _, n := range neighbors {
		ch := make(chan state.Packet, 64)
		inbox[n] = ch
		table[n] = ch
	}
	d := New(Config{
		Id:  id,
		Rng: rand.New(rand.NewPCG(7, 13)),
	}, nil, events, nil, table)
	d.ctx = context.Background()
	return &droneHarness{t: t, drone: d, events: events, inbox: inbox}
}

func (h *droneHarness) receivedBy(n state.NodeId) state.Packet {
	h.t.Helper()
	select {
	case p := <-h.inbox[n]:
		return p
	default:
		h.t.Fatalf("expected node %d to receive a packet, channel empty", n)
		return state.Packet{}
	}
}

func (h *droneHarness) nothingFor(n state.NodeId) {
	h.t.Helper()
	select {
	case p := <-h.inbox[n]:
		h.t.Fatalf("expected no packet for node %d, got %s", n, p)
	default:
	}
}

func (h *droneHarness) event() state.Event {
	h.t.Helper()
	select {
	case e := <-h.events:
		return e
	default:
		h.t.Fatal("expected a controller event, channel empty")
		return nil
	}
}

func (h *droneHarness) noEvent() {
	h.t.Helper()
	select {
	case e := <-h.events:
		h.t.Fatalf("expected no controller event, got %s %s", state.EventName(e), e.Subject())
	default:
	}
}

func fragment(index uint64, hops []state.NodeId, hopIndex int) state.Packet {
	return state.Packet{
		Header:  state.SourceRoutingHeader{Hops: hops, HopIndex: hopIndex},
		Session: 42,
		Payload: state.MsgFragment{Index: index, Total: 1, Length: 3, Data: [state.FragmentSize]byte{'p', 'k', 't'}},
	}
}

func ack(index uint64, hops []state.NodeId, hopIndex int) state.Packet {
	return state.Packet{
		Header:  state.SourceRoutingHeader{Hops: hops, HopIndex: hopIndex},
		Session: 42,
		Payload: state.Ack{Index: index},
	}
}

func floodRequest(floodId uint64, initiator state.NodeId, trace []state.FloodPathEntry) state.Packet {
	return state.Packet{
		Header:  state.SourceRoutingHeader{Hops: []state.NodeId{initiator}, HopIndex: 0},
		Session: 42,
		Payload: state.FloodRequest{FloodId: floodId, Initiator: initiator, Trace: trace},
	}
}
