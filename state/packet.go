package state

import "fmt"

// NodeId uniquely identifies a node within the network. Ids are assigned by
// the network config and never change for the lifetime of a node.
type NodeId uint8

// NodeKind distinguishes the three roles a node can play in the simulated
// network. Only drones forward traffic; clients and servers terminate it.
type NodeKind uint8

const (
	Drone NodeKind = iota
	Client
	Server
)

func (k NodeKind) String() string {
	switch k {
	case Drone:
		return "drone"
	case Client:
		return "client"
	case Server:
		return "server"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *NodeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "drone":
		*k = Drone
	case "client":
		*k = Client
	case "server":
		*k = Server
	default:
		return fmt.Errorf("unknown node kind: %q", text)
	}
	return nil
}

// FragmentSize is the fixed payload capacity of a single message fragment.
const FragmentSize = 128

// Payload is the per-variant body of a Packet.
type Payload interface {
	Kind() PacketKind
	// FragmentIndex is the index reported in Nacks generated for this
	// payload. Only fragments and nacks carry one; everything else is 0.
	FragmentIndex() uint64
}

type PacketKind uint8

const (
	KindMsgFragment PacketKind = iota
	KindAck
	KindNack
	KindFloodRequest
	KindFloodResponse
)

func (k PacketKind) String() string {
	switch k {
	case KindMsgFragment:
		return "fragment"
	case KindAck:
		return "ack"
	case KindNack:
		return "nack"
	case KindFloodRequest:
		return "flood-request"
	case KindFloodResponse:
		return "flood-response"
	}
	return fmt.Sprintf("packet(%d)", uint8(k))
}

// MsgFragment is one chunk of an application message. Its contents are opaque
// to drones; only endpoints assemble fragments back into messages.
type MsgFragment struct {
	Index  uint64
	Total  uint64
	Length uint8
	Data   [FragmentSize]byte
}

func (MsgFragment) Kind() PacketKind        { return KindMsgFragment }
func (f MsgFragment) FragmentIndex() uint64 { return f.Index }

// Ack acknowledges receipt of a single fragment.
type Ack struct {
	Index uint64
}

func (Ack) Kind() PacketKind      { return KindAck }
func (Ack) FragmentIndex() uint64 { return 0 }

// Nack reports a delivery failure for a single fragment.
type Nack struct {
	Index uint64
	Type  NackType
}

func (Nack) Kind() PacketKind        { return KindNack }
func (n Nack) FragmentIndex() uint64 { return n.Index }

// FloodPathEntry is one traversed node in a flood's path trace.
type FloodPathEntry struct {
	Node NodeId
	Kind NodeKind
}

// FloodRequest is a topology discovery broadcast. The path trace accumulates
// the nodes it has traversed; the routing header is not a committed route and
// drones must not validate it.
type FloodRequest struct {
	FloodId   uint64
	Initiator NodeId
	Trace     []FloodPathEntry
}

func (FloodRequest) Kind() PacketKind      { return KindFloodRequest }
func (FloodRequest) FragmentIndex() uint64 { return 0 }

// LastHop is the node this request most recently traversed, which is the
// neighbor it arrived from. Falls back to the initiator for an empty trace.
func (r FloodRequest) LastHop() NodeId {
	if len(r.Trace) == 0 {
		return r.Initiator
	}
	return r.Trace[len(r.Trace)-1].Node
}

// AppendHop returns a copy of the request with (node, kind) appended to the
// path trace. The receiver's trace is never mutated; fan-out copies of the
// same request must not share backing arrays.
func (r FloodRequest) AppendHop(node NodeId, kind NodeKind) FloodRequest {
	trace := make([]FloodPathEntry, 0, len(r.Trace)+1)
	trace = append(trace, r.Trace...)
	trace = append(trace, FloodPathEntry{Node: node, Kind: kind})
	r.Trace = trace
	return r
}

// Response builds the FloodResponse for this request, routed backward along
// the accumulated path trace. The resulting header's cursor already points at
// the node immediately preceding the responder.
func (r FloodRequest) Response(session uint64) Packet {
	hops := make([]NodeId, len(r.Trace))
	for i, entry := range r.Trace {
		hops[len(r.Trace)-1-i] = entry.Node
	}
	return Packet{
		Header:  SourceRoutingHeader{Hops: hops, HopIndex: 1},
		Session: session,
		Payload: FloodResponse{FloodId: r.FloodId, Trace: r.Trace},
	}
}

// FloodResponse carries a completed path trace back to the flood initiator.
// Once generated it is an ordinary header-following packet.
type FloodResponse struct {
	FloodId uint64
	Trace   []FloodPathEntry
}

func (FloodResponse) Kind() PacketKind      { return KindFloodResponse }
func (FloodResponse) FragmentIndex() uint64 { return 0 }

// Packet is the unit of traffic exchanged between nodes.
type Packet struct {
	Header  SourceRoutingHeader
	Session uint64
	Payload Payload
}

func (p Packet) String() string {
	return fmt.Sprintf("%s session=%d %s", p.Payload.Kind(), p.Session, p.Header)
}

// NackKind is the failure taxonomy reported by drones.
type NackKind uint8

const (
	// ErrorInRouting: the next hop is not a neighbor of the reporting node.
	ErrorInRouting NackKind = iota
	// UnexpectedRecipient: the packet reached a node the header did not name.
	UnexpectedRecipient
	// DestinationIsDrone: the route terminates at a drone, which is invalid.
	DestinationIsDrone
	// Dropped: the fragment was lost to the simulated link.
	Dropped
)

// NackType pairs a failure kind with the reporting node, for the two kinds
// that identify one.
type NackType struct {
	Kind NackKind
	Node NodeId
}

func NackErrorInRouting(node NodeId) NackType {
	return NackType{Kind: ErrorInRouting, Node: node}
}

func NackUnexpectedRecipient(node NodeId) NackType {
	return NackType{Kind: UnexpectedRecipient, Node: node}
}

func NackDestinationIsDrone() NackType {
	return NackType{Kind: DestinationIsDrone}
}

func NackDropped() NackType {
	return NackType{Kind: Dropped}
}

func (t NackType) String() string {
	switch t.Kind {
	case ErrorInRouting:
		return fmt.Sprintf("error-in-routing(%d)", t.Node)
	case UnexpectedRecipient:
		return fmt.Sprintf("unexpected-recipient(%d)", t.Node)
	case DestinationIsDrone:
		return "destination-is-drone"
	case Dropped:
		return "dropped"
	}
	return fmt.Sprintf("nack(%d)", uint8(t.Kind))
}
