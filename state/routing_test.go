package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReversedBuildsReturnPath(t *testing.T) {
	h := SourceRoutingHeader{Hops: []NodeId{1, 2, 3, 4, 5}, HopIndex: 2}

	rev := h.Reversed()
	assert.Equal(t, []NodeId{3, 2, 1}, rev.Hops)
	assert.Equal(t, 1, rev.HopIndex)

	// the new current hop is the node just before the reversing node
	cur, ok := rev.CurrentHop()
	require.True(t, ok)
	assert.Equal(t, NodeId(2), cur)

	// the input header is untouched
	assert.Equal(t, []NodeId{1, 2, 3, 4, 5}, h.Hops)
	assert.Equal(t, 2, h.HopIndex)
}

func TestReversedIsIdempotentOnInput(t *testing.T) {
	h := SourceRoutingHeader{Hops: []NodeId{7, 8, 9}, HopIndex: 1}
	first := h.Reversed()
	second := h.Reversed()
	assert.Equal(t, first, second)
}

func TestReversedAtRouteStart(t *testing.T) {
	// a reversal at cursor 0 yields a single-hop path with no valid
	// recipient; delivery of such a header must surface as an invariant
	// violation downstream
	h := SourceRoutingHeader{Hops: []NodeId{1, 2, 3}, HopIndex: 0}
	rev := h.Reversed()
	assert.Equal(t, []NodeId{1}, rev.Hops)
	_, ok := rev.CurrentHop()
	assert.False(t, ok)
}

func TestCursorOps(t *testing.T) {
	h := SourceRoutingHeader{Hops: []NodeId{1, 2, 3}, HopIndex: 1}

	cur, ok := h.CurrentHop()
	require.True(t, ok)
	assert.Equal(t, NodeId(2), cur)

	next, ok := h.NextHop()
	require.True(t, ok)
	assert.Equal(t, NodeId(3), next)
	assert.False(t, h.IsLastHop())

	adv := h.Advanced()
	assert.Equal(t, 2, adv.HopIndex)
	assert.True(t, adv.IsLastHop())
	_, ok = adv.NextHop()
	assert.False(t, ok)

	past := adv.Advanced()
	_, ok = past.CurrentHop()
	assert.False(t, ok)
}

func TestAppendedHopCopies(t *testing.T) {
	h := SourceRoutingHeader{Hops: []NodeId{1, 2}, HopIndex: 1}
	grown := h.AppendedHop(3)
	assert.Equal(t, []NodeId{1, 2, 3}, grown.Hops)
	assert.Equal(t, []NodeId{1, 2}, h.Hops)
}

func TestFloodRequestHelpers(t *testing.T) {
	req := FloodRequest{
		FloodId:   7,
		Initiator: 1,
		Trace:     []FloodPathEntry{{Node: 1, Kind: Client}},
	}
	assert.Equal(t, NodeId(1), req.LastHop())

	grown := req.AppendHop(2, Drone)
	assert.Equal(t, NodeId(2), grown.LastHop())
	assert.Len(t, req.Trace, 1)

	resp := grown.AppendHop(3, Drone).Response(42)
	assert.Equal(t, []NodeId{3, 2, 1}, resp.Header.Hops)
	assert.Equal(t, 1, resp.Header.HopIndex)
	assert.Equal(t, uint64(42), resp.Session)
	fr, ok := resp.Payload.(FloodResponse)
	require.True(t, ok)
	assert.Equal(t, uint64(7), fr.FloodId)
	assert.Len(t, fr.Trace, 3)
}
