package qdisc

import "fmt"

// Packet is the unit moved through a queue discipline.
// Ownership moves with it: the caller hands it to Enqueue and gets it back
// from Dequeue (or via the Transmitter). Queues never copy packets.
type Packet struct {
	ID          uint64 // unique per run
	Size        uint32 // logical length in bytes, before link-layer adjustment
	ArrivalTime int64  // tick at which the host offered the packet
}

func (p *Packet) String() string {
	return fmt.Sprintf("pkt#%d(%dB)", p.ID, p.Size)
}
