// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/bwshaper/sim/qdisc"
	"github.com/inference-sim/bwshaper/sim/trace"
)

// eventEntry wraps an Event with the ID it was scheduled under. IDs grow
// monotonically and break ties between equal timestamps and priorities.
type eventEntry struct {
	event Event
	id    qdisc.EventID
}

// EventQueue is a min-heap ordered by (Timestamp, Priority, ID).
// Implements heap.Interface.
type EventQueue []eventEntry

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].event.Timestamp() != eq[j].event.Timestamp() {
		return eq[i].event.Timestamp() < eq[j].event.Timestamp()
	}
	if eq[i].event.Priority() != eq[j].event.Priority() {
		return eq[i].event.Priority() < eq[j].event.Priority()
	}
	return eq[i].id < eq[j].id
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(eventEntry))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// SimConfig groups the parameters of a single-link shaping simulation.
type SimConfig struct {
	Horizon    int64            // last tick at which events are executed
	Shaper     qdisc.Config     // queue discipline in front of the link
	DeviceMTU  uint32           // MTU reported by the link device; 0 = none
	TraceLevel trace.TraceLevel // "decisions" records every admission and release
}

// Simulator is the core object that holds simulation time, the event loop,
// the shaping queue discipline and the link it feeds.
//
// It is the host of the queue discipline: it provides its Clock and
// Scheduler, and its Link is the Transmitter and Device.
// Thread-safety: NOT thread-safe. Events run one at a time on the caller's goroutine.
type Simulator struct {
	Clock   int64
	Horizon int64
	// EventQueue holds arrivals and armed wake-ups, including cancelled ones
	// that have not been popped yet.
	EventQueue EventQueue
	// pending holds the IDs of scheduled events that are still live.
	pending map[qdisc.EventID]struct{}
	nextID  qdisc.EventID

	QDisc   qdisc.QueueDisc
	Link    *Link
	Metrics *Metrics
	Trace   *trace.SimulationTrace // nil unless tracing is enabled

	failure error
	hasRun  bool
}

var (
	_ qdisc.Clock     = (*Simulator)(nil)
	_ qdisc.Scheduler = (*Simulator)(nil)
)

// NewSimulator builds a simulator with a Shaper in front of a Link and
// initializes the shaper. Configuration errors are returned unchanged.
func NewSimulator(cfg SimConfig) (*Simulator, error) {
	s := &Simulator{
		Clock:      0,
		Horizon:    cfg.Horizon,
		EventQueue: make(EventQueue, 0),
		pending:    make(map[qdisc.EventID]struct{}),
		Metrics:    NewMetrics(),
	}
	s.Link = NewLink(s, cfg.DeviceMTU)
	if cfg.TraceLevel.Enabled() {
		s.Trace = trace.NewSimulationTrace(cfg.TraceLevel)
	}

	shaper := qdisc.New(cfg.Shaper, qdisc.Env{
		Clock:       s,
		Scheduler:   s,
		Transmitter: s.Link,
		Device:      s.Link,
	})
	if err := shaper.Initialize(); err != nil {
		return nil, err
	}
	s.QDisc = shaper
	return s, nil
}

// Now implements qdisc.Clock.
func (sim *Simulator) Now() int64 {
	return sim.Clock
}

// Schedule pushes an event into the EventQueue and returns its ID.
func (sim *Simulator) Schedule(ev Event) qdisc.EventID {
	sim.nextID++
	id := sim.nextID
	heap.Push(&sim.EventQueue, eventEntry{event: ev, id: id})
	sim.pending[id] = struct{}{}
	return id
}

// ScheduleAt implements qdisc.Scheduler. Scheduling before the current clock
// is an error: the event loop never moves backwards.
func (sim *Simulator) ScheduleAt(at int64, fn func()) (qdisc.EventID, error) {
	if fn == nil {
		return 0, fmt.Errorf("schedule at tick %d: nil callback", at)
	}
	if at < sim.Clock {
		return 0, fmt.Errorf("schedule at tick %d: clock is already at %d", at, sim.Clock)
	}
	return sim.Schedule(&WakeupEvent{time: at, fn: fn}), nil
}

// Cancel implements qdisc.Scheduler. The event stays in the heap and is
// skipped when popped.
func (sim *Simulator) Cancel(id qdisc.EventID) {
	delete(sim.pending, id)
}

// PendingEvents returns the number of live (scheduled, not cancelled, not
// yet executed) events.
func (sim *Simulator) PendingEvents() int {
	return len(sim.pending)
}

// InjectArrival schedules a packet to arrive at its ArrivalTime.
func (sim *Simulator) InjectArrival(p *qdisc.Packet) {
	sim.Schedule(&PacketArrivalEvent{time: p.ArrivalTime, Packet: p})
}

// EnqueuePacket offers a packet to the queue discipline and restarts it so
// that an eligible packet leaves at once.
func (sim *Simulator) EnqueuePacket(p *qdisc.Packet) {
	sim.Metrics.recordOffered(p)
	err := sim.QDisc.Enqueue(p)
	if err != nil {
		sim.Metrics.recordDrop(p, err)
		logrus.Debugf("[tick %012d] dropped %s: %v", sim.Clock, p, err)
	}
	if sim.Trace != nil {
		rec := trace.AdmissionRecord{
			PacketID: p.ID,
			Clock:    sim.Clock,
			Size:     p.Size,
			Admitted: err == nil,
			Backlog:  sim.QDisc.Len(),
		}
		if err != nil {
			rec.Reason = dropReason(err)
		}
		sim.Trace.RecordAdmission(rec)
	}
	if err := sim.QDisc.Run(); err != nil && sim.failure == nil {
		sim.failure = err
	}
}

// Run processes events in order until the queue is empty, the horizon is
// passed or the queue discipline fails. A failure raised inside a wake-up is
// read back through QueueDisc.Err and returned.
func (sim *Simulator) Run() error {
	if sim.hasRun {
		panic("Simulator.Run() called more than once")
	}
	sim.hasRun = true

	for len(sim.EventQueue) > 0 && sim.failure == nil {
		entry := heap.Pop(&sim.EventQueue).(eventEntry)
		if _, live := sim.pending[entry.id]; !live {
			continue
		}
		if entry.event.Timestamp() > sim.Horizon {
			heap.Push(&sim.EventQueue, entry)
			break
		}
		delete(sim.pending, entry.id)
		// advance the clock
		sim.Clock = entry.event.Timestamp()
		logrus.Debugf("[tick %012d] Executing %T", sim.Clock, entry.event)
		entry.event.Execute(sim)
		if err := sim.QDisc.Err(); err != nil && sim.failure == nil {
			sim.failure = err
		}
	}
	sim.Metrics.SimEndedTime = sim.Clock
	logrus.Infof("[tick %012d] Simulation ended", sim.Clock)
	return sim.failure
}

// Dispose tears the queue discipline down, cancelling its pending wake-up.
func (sim *Simulator) Dispose() {
	sim.QDisc.Dispose()
}
