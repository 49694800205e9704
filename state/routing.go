package state

import (
	"fmt"
	"strings"
)

// SourceRoutingHeader is the full pre-computed path of a packet plus a cursor
// marking where along that path the packet currently is. Headers are value
// types; every operation returns a new header and the hop slice is never
// mutated in place.
type SourceRoutingHeader struct {
	Hops     []NodeId
	HopIndex int
}

// CurrentHop is the node the packet is currently at (or addressed to).
func (h SourceRoutingHeader) CurrentHop() (NodeId, bool) {
	if h.HopIndex < 0 || h.HopIndex >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex], true
}

// NextHop is the node one position past the cursor.
func (h SourceRoutingHeader) NextHop() (NodeId, bool) {
	if h.HopIndex+1 < 0 || h.HopIndex+1 >= len(h.Hops) {
		return 0, false
	}
	return h.Hops[h.HopIndex+1], true
}

// IsLastHop reports whether the cursor sits on the final hop of the route,
// i.e. the current node is the nominal destination.
func (h SourceRoutingHeader) IsLastHop() bool {
	return len(h.Hops) > 0 && h.HopIndex == len(h.Hops)-1
}

// Advanced returns the header with the cursor moved one hop forward.
func (h SourceRoutingHeader) Advanced() SourceRoutingHeader {
	h.HopIndex++
	return h
}

// AppendedHop returns the header with node appended to the hop list. The
// receiver's hop slice is copied, never grown in place.
func (h SourceRoutingHeader) AppendedHop(node NodeId) SourceRoutingHeader {
	hops := make([]NodeId, 0, len(h.Hops)+1)
	hops = append(hops, h.Hops...)
	hops = append(hops, node)
	h.Hops = hops
	return h
}

// Reversed builds the return path for this header: the hop sequence from the
// start through the current cursor, reversed, with the cursor reset to 1 so
// it points at the node immediately following the reversing node. The result
// is a valid route back to the original sender without any route computation.
func (h SourceRoutingHeader) Reversed() SourceRoutingHeader {
	n := h.HopIndex + 1
	if n > len(h.Hops) {
		n = len(h.Hops)
	}
	hops := make([]NodeId, n)
	for i := 0; i < n; i++ {
		hops[i] = h.Hops[n-1-i]
	}
	return SourceRoutingHeader{Hops: hops, HopIndex: 1}
}

func (h SourceRoutingHeader) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, hop := range h.Hops {
		if i > 0 {
			b.WriteString(" ")
		}
		if i == h.HopIndex {
			fmt.Fprintf(&b, "(%d)", hop)
		} else {
			fmt.Fprintf(&b, "%d", hop)
		}
	}
	b.WriteString("]")
	return b.String()
}
