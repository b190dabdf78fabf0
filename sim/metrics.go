// Tracks offered, delivered and dropped traffic over a shaping run.

package sim

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/inference-sim/bwshaper/sim/qdisc"
)

// Drop reasons reported in Metrics.Drops.
const (
	DropQueueFull     = "queue-full"
	DropInvalidLength = "invalid-length"
	DropOther         = "other"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	OfferedPackets   int    // packets handed to the queue discipline
	OfferedBytes     uint64 // bytes handed to the queue discipline
	DeliveredPackets int    // packets released onto the link
	DeliveredBytes   uint64 // bytes released onto the link
	DroppedPackets   int    // packets refused at enqueue
	DroppedBytes     uint64 // bytes refused at enqueue

	Drops map[string]int // drop reason -> count

	SojournSum int64 // sum of (departure - arrival) over delivered packets, in ticks
	MaxSojourn int64 // worst single-packet delay, in ticks

	FirstArrival  int64 // tick of the first offered packet (-1 until one arrives)
	LastDeparture int64 // tick of the last delivered packet
	SimEndedTime  int64 // clock when the event loop stopped
}

func NewMetrics() *Metrics {
	return &Metrics{
		Drops:        make(map[string]int),
		FirstArrival: -1,
	}
}

func (m *Metrics) recordOffered(p *qdisc.Packet) {
	if m.FirstArrival < 0 {
		m.FirstArrival = p.ArrivalTime
	}
	m.OfferedPackets++
	m.OfferedBytes += uint64(p.Size)
}

func (m *Metrics) recordDrop(p *qdisc.Packet, err error) {
	m.DroppedPackets++
	m.DroppedBytes += uint64(p.Size)
	m.Drops[dropReason(err)]++
}

func (m *Metrics) recordDelivery(p *qdisc.Packet, now int64) {
	m.DeliveredPackets++
	m.DeliveredBytes += uint64(p.Size)
	sojourn := now - p.ArrivalTime
	m.SojournSum += sojourn
	m.MaxSojourn = max(m.MaxSojourn, sojourn)
	m.LastDeparture = now
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, qdisc.ErrInnerQueueRejected):
		return DropQueueFull
	case errors.Is(err, qdisc.ErrInvalidPacketLength):
		return DropInvalidLength
	}
	return DropOther
}

// MeanSojourn returns the average queueing delay of delivered packets in ticks.
func (m *Metrics) MeanSojourn() float64 {
	if m.DeliveredPackets == 0 {
		return 0
	}
	return float64(m.SojournSum) / float64(m.DeliveredPackets)
}

// Throughput returns the delivered rate in bits per second, measured from the
// first arrival to the end of the run.
func (m *Metrics) Throughput() float64 {
	if m.FirstArrival < 0 {
		return 0
	}
	elapsed := m.SimEndedTime - m.FirstArrival
	if elapsed <= 0 {
		return 0
	}
	return float64(m.DeliveredBytes*8) * float64(qdisc.TicksPerSecond) / float64(elapsed)
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	m.Fprint(os.Stdout)
}

// Fprint writes the metrics summary to w.
func (m *Metrics) Fprint(w io.Writer) {
	tps := float64(qdisc.TicksPerSecond)
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Offered Packets      : %d (%d bytes)\n", m.OfferedPackets, m.OfferedBytes)
	fmt.Fprintf(w, "Delivered Packets    : %d (%d bytes)\n", m.DeliveredPackets, m.DeliveredBytes)
	fmt.Fprintf(w, "Dropped Packets      : %d (%d bytes)\n", m.DroppedPackets, m.DroppedBytes)
	reasons := make([]string, 0, len(m.Drops))
	for r := range m.Drops {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  %-19s: %d\n", r, m.Drops[r])
	}
	if m.DeliveredPackets > 0 {
		fmt.Fprintf(w, "Mean Sojourn         : %.6f s\n", m.MeanSojourn()/tps)
		fmt.Fprintf(w, "Max Sojourn          : %.6f s\n", float64(m.MaxSojourn)/tps)
		fmt.Fprintf(w, "Throughput           : %.0f bps\n", m.Throughput())
	}
	fmt.Fprintf(w, "Simulation Ended     : %.6f s\n", float64(m.SimEndedTime)/tps)
}
