package core

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-sim/skyward/state"
)

// runningHarness drives a drone through its real Run loop.
type runningHarness struct {
	t        *testing.T
	commands chan state.Command
	packets  chan state.Packet
	events   chan state.Event
	inbox    map[state.NodeId]chan state.Packet
	drone    *Drone
	done     chan error
}

func newRunningHarness(t *testing.T, id state.NodeId, neighbors ...state.NodeId) *runningHarness {
	t.Helper()
	h := &runningHarness{
		t:        t,
		commands: make(chan state.Command, 64),
		packets:  make(chan state.Packet, 64),
		events:   make(chan state.Event, 256),
		inbox:    make(map[state.NodeId]chan state.Packet),
		done:     make(chan error, 1),
	}
	table := make(map[state.NodeId]chan<- state.Packet)
	for _, n := range neighbors {
		ch := make(chan state.Packet, 64)
		h.inbox[n] = ch
		table[n] = ch
	}
	h.drone = New(Config{
		Id:  id,
		Rng: rand.New(rand.NewPCG(7, 13)),
	}, h.commands, h.events, h.packets, table)
	return h
}

func (h *runningHarness) start() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		h.done <- h.drone.Run(ctx)
	}()
	h.t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(time.Second):
			h.t.Error("drone did not stop")
		}
	})
}

func (h *runningHarness) awaitPacket(n state.NodeId) state.Packet {
	h.t.Helper()
	select {
	case p := <-h.inbox[n]:
		return p
	case <-time.After(time.Second):
		h.t.Fatalf("timed out waiting for a packet toward node %d", n)
		return state.Packet{}
	}
}

func (h *runningHarness) quietFor(n state.NodeId, d time.Duration) {
	h.t.Helper()
	select {
	case p := <-h.inbox[n]:
		h.t.Fatalf("expected no packet for node %d, got %s", n, p)
	case <-time.After(d):
	}
}

func (h *runningHarness) awaitDone() error {
	h.t.Helper()
	select {
	case err := <-h.done:
		h.done <- err // keep the cleanup read happy
		return err
	case <-time.After(time.Second):
		h.t.Fatal("drone did not terminate")
		return nil
	}
}

func (h *runningHarness) notDoneFor(d time.Duration) {
	h.t.Helper()
	select {
	case err := <-h.done:
		h.t.Fatalf("drone terminated early: %v", err)
	case <-time.After(d):
	}
}

func TestCommandsOutrankPackets(t *testing.T) {
	h := newRunningHarness(t, 2, 1, 3)

	// both queues are loaded before the loop starts; the drop rate change
	// must apply before the fragment is processed
	h.commands <- state.SetDropRate{Rate: 1}
	h.packets <- fragment(0, []state.NodeId{1, 2, 3}, 1)
	h.start()

	got := h.awaitPacket(1)
	nack, ok := got.Payload.(state.Nack)
	require.True(t, ok, "expected a nack, got %s", got)
	assert.Equal(t, state.NackDropped(), nack.Type)
	h.quietFor(3, 50*time.Millisecond)
}

func TestCrashDrainForwardsAcknowledgementTraffic(t *testing.T) {
	h := newRunningHarness(t, 2, 1, 3)
	h.start()

	h.commands <- state.Crash{}
	h.packets <- ack(4, []state.NodeId{1, 2, 3}, 1)
	got := h.awaitPacket(3)
	assert.Equal(t, state.Ack{Index: 4}, got.Payload)
	assert.Equal(t, 2, got.Header.HopIndex)

	// a second one keeps flowing; draining is not one-shot
	h.packets <- ack(5, []state.NodeId{1, 2, 3}, 1)
	got = h.awaitPacket(3)
	assert.Equal(t, state.Ack{Index: 5}, got.Payload)
}

func TestCrashDrainRefusesFragments(t *testing.T) {
	h := newRunningHarness(t, 2, 1, 3)
	h.start()

	h.commands <- state.Crash{}
	h.packets <- fragment(6, []state.NodeId{1, 2, 3}, 1)

	got := h.awaitPacket(1)
	nack, ok := got.Payload.(state.Nack)
	require.True(t, ok, "expected a nack, got %s", got)
	assert.Equal(t, state.NackErrorInRouting(2), nack.Type)
	assert.Equal(t, uint64(6), nack.Index)
	h.quietFor(3, 50*time.Millisecond)
}

func TestCrashDrainDiscardsFloodsSilently(t *testing.T) {
	h := newRunningHarness(t, 2, 1, 3)
	h.start()

	h.commands <- state.Crash{}
	h.packets <- floodRequest(7, 1, []state.FloodPathEntry{{Node: 1, Kind: state.Client}})

	h.quietFor(1, 100*time.Millisecond)
	h.quietFor(3, 10*time.Millisecond)
	select {
	case e := <-h.events:
		t.Fatalf("expected no event for a discarded flood, got %s", state.EventName(e))
	default:
	}
}

func TestTerminatedOnlyWhenTableEmpties(t *testing.T) {
	h := newRunningHarness(t, 2, 1, 3)
	h.start()

	h.commands <- state.Crash{}
	h.commands <- state.RemoveNeighbor{Node: 1}
	h.notDoneFor(100 * time.Millisecond)

	h.commands <- state.RemoveNeighbor{Node: 3}
	assert.NoError(t, h.awaitDone())
}

func TestCrashIgnoresOtherCommands(t *testing.T) {
	h := newRunningHarness(t, 2, 1)
	h.start()

	extra := make(chan state.Packet, 1)
	h.commands <- state.Crash{}
	// would keep the table non-empty if it were honored
	h.commands <- state.AddNeighbor{Node: 9, Ch: extra}
	h.commands <- state.RemoveNeighbor{Node: 1}
	assert.NoError(t, h.awaitDone())
}
