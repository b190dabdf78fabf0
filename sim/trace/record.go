// Package trace provides decision-trace recording for shaping analysis.
// This package has no dependencies on sim/ or sim/qdisc/; it stores pure data types.
package trace

// AdmissionRecord captures a single enqueue decision of the queue discipline.
type AdmissionRecord struct {
	PacketID uint64
	Clock    int64
	Size     uint32
	Admitted bool
	Reason   string // drop reason; empty when admitted
	Backlog  int    // packets queued after the decision
}

// ReleaseRecord captures a packet leaving the queue discipline onto the link.
type ReleaseRecord struct {
	PacketID    uint64
	Clock       int64
	Size        uint32
	ArrivalTime int64
	Backlog     int // packets still queued after the release
}

// Hold returns how long the packet was held by the shaper, in ticks.
func (r ReleaseRecord) Hold() int64 {
	return r.Clock - r.ArrivalTime
}
