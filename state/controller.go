package state

import "fmt"

// Command is an instruction from the simulation controller to one node.
// Commands take strict priority over packets so that crashes and neighbor
// table updates take effect before any further traffic is processed.
type Command interface {
	isCommand()
}

// SetDropRate replaces the node's packet drop probability.
type SetDropRate struct {
	Rate float64
}

// Crash begins the crash-drain sequence. The node keeps forwarding in-flight
// acknowledgement traffic until its neighbor table has been emptied.
type Crash struct{}

// AddNeighbor inserts or overwrites an outbound channel toward a neighbor.
type AddNeighbor struct {
	Node NodeId
	Ch   chan<- Packet
}

// RemoveNeighbor removes a neighbor entry. Removing the last entry of a
// crashing node completes its termination.
type RemoveNeighbor struct {
	Node NodeId
}

func (SetDropRate) isCommand()    {}
func (Crash) isCommand()          {}
func (AddNeighbor) isCommand()    {}
func (RemoveNeighbor) isCommand() {}

// Event is an outcome report from one node to the simulation controller.
type Event interface {
	isEvent()
	// Packet the event is about.
	Subject() Packet
}

// PacketSent: the packet was handed to the next hop's channel.
type PacketSent struct {
	Packet Packet
}

// PacketDropped: the drop simulator discarded a fragment. The Nack(Dropped)
// generated in its place is reported separately when it is itself sent.
type PacketDropped struct {
	Packet Packet
}

// ControllerShortcut: the intended next hop is unreachable and the controller
// must deliver the packet out-of-band.
type ControllerShortcut struct {
	Packet Packet
}

func (PacketSent) isEvent()         {}
func (PacketDropped) isEvent()      {}
func (ControllerShortcut) isEvent() {}

func (e PacketSent) Subject() Packet         { return e.Packet }
func (e PacketDropped) Subject() Packet      { return e.Packet }
func (e ControllerShortcut) Subject() Packet { return e.Packet }

func EventName(e Event) string {
	switch e.(type) {
	case PacketSent:
		return "PacketSent"
	case PacketDropped:
		return "PacketDropped"
	case ControllerShortcut:
		return "ControllerShortcut"
	}
	return fmt.Sprintf("%T", e)
}
