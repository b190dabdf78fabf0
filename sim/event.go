package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/bwshaper/sim/qdisc"
)

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in ticks), a Priority that orders events
// sharing a timestamp (lower first), and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() int64
	Priority() int
	Execute(*Simulator)
}

// PacketArrivalEvent represents a packet offered to the queue discipline.
// Priority 0: arrivals at a tick are enqueued before wake-ups at the same tick
// run, so a wake-up sees every packet that arrived with it.
type PacketArrivalEvent struct {
	time   int64         // Simulation time of arrival (in ticks)
	Packet *qdisc.Packet // The arriving packet
}

// Timestamp returns the scheduled time of the PacketArrivalEvent.
func (e *PacketArrivalEvent) Timestamp() int64 {
	return e.time
}

func (e *PacketArrivalEvent) Priority() int { return 0 }

// Execute enqueues the packet and restarts the queue discipline.
func (e *PacketArrivalEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Arrival: %s at %d ticks", e.Packet, e.time)
	sim.EnqueuePacket(e.Packet)
}

// WakeupEvent fires a callback armed through Simulator.ScheduleAt.
// The queue discipline uses it to re-run its dequeue decision.
type WakeupEvent struct {
	time int64
	fn   func()
}

// Timestamp returns the scheduled time of the WakeupEvent.
func (e *WakeupEvent) Timestamp() int64 {
	return e.time
}

func (e *WakeupEvent) Priority() int { return 1 }

// Execute runs the armed callback.
func (e *WakeupEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Wakeup at %d ticks", e.time)
	e.fn()
}
