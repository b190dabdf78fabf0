package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/bwshaper/sim/qdisc"
	"github.com/inference-sim/bwshaper/sim/trace"
)

// Departure records a packet leaving the queue discipline onto the link.
type Departure struct {
	PacketID uint64
	Size     uint32
	Time     int64 // tick at which the shaper released the packet
}

// Link is the device behind the queue discipline. It accepts whatever the
// shaper releases and reports its MTU for shapers configured without one.
type Link struct {
	sim        *Simulator
	mtu        uint32
	Departures []Departure
}

var (
	_ qdisc.Transmitter = (*Link)(nil)
	_ qdisc.Device      = (*Link)(nil)
)

// NewLink creates a link owned by sim. An mtu of 0 means the device has none.
func NewLink(sim *Simulator, mtu uint32) *Link {
	return &Link{sim: sim, mtu: mtu}
}

// Transmit implements qdisc.Transmitter.
func (l *Link) Transmit(p *qdisc.Packet) {
	now := l.sim.Clock
	logrus.Debugf(">> Departure: %s at %d ticks", p, now)
	l.Departures = append(l.Departures, Departure{PacketID: p.ID, Size: p.Size, Time: now})
	l.sim.Metrics.recordDelivery(p, now)
	if l.sim.Trace != nil {
		l.sim.Trace.RecordRelease(trace.ReleaseRecord{
			PacketID:    p.ID,
			Clock:       now,
			Size:        p.Size,
			ArrivalTime: p.ArrivalTime,
			Backlog:     l.sim.QDisc.Len(),
		})
	}
}

// MTU implements qdisc.Device.
func (l *Link) MTU() (uint32, bool) {
	return l.mtu, l.mtu > 0
}
