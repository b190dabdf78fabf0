package qdisc

import (
	"errors"
	"sort"
	"testing"
)

// testHost is a minimal single-threaded host: a settable clock, a scheduler
// that records every armed callback, and a transmitter that collects packets.
type testHost struct {
	now    int64
	nextID EventID
	events map[EventID]scheduledCall

	armed     []scheduledCall // every ScheduleAt call, in order
	cancelled []EventID
	sent      []*Packet

	failSchedule bool
}

type scheduledCall struct {
	id EventID
	at int64
	fn func()
}

func newTestHost() *testHost {
	return &testHost{events: make(map[EventID]scheduledCall)}
}

func (h *testHost) Now() int64 { return h.now }

func (h *testHost) ScheduleAt(at int64, fn func()) (EventID, error) {
	if h.failSchedule {
		return 0, errors.New("event queue closed")
	}
	h.nextID++
	c := scheduledCall{id: h.nextID, at: at, fn: fn}
	h.events[c.id] = c
	h.armed = append(h.armed, c)
	return c.id, nil
}

func (h *testHost) Cancel(id EventID) {
	if _, ok := h.events[id]; ok {
		delete(h.events, id)
		h.cancelled = append(h.cancelled, id)
	}
}

func (h *testHost) Transmit(p *Packet) {
	h.sent = append(h.sent, p)
}

// live returns the callbacks that are still pending, earliest first.
func (h *testHost) live() []scheduledCall {
	calls := make([]scheduledCall, 0, len(h.events))
	for _, c := range h.events {
		calls = append(calls, c)
	}
	sort.Slice(calls, func(i, j int) bool {
		if calls[i].at != calls[j].at {
			return calls[i].at < calls[j].at
		}
		return calls[i].id < calls[j].id
	})
	return calls
}

// advance moves the clock to t, firing every pending callback due by then
// in time order with the clock set to its due time.
func (h *testHost) advance(t int64) {
	for {
		calls := h.live()
		if len(calls) == 0 || calls[0].at > t {
			break
		}
		c := calls[0]
		delete(h.events, c.id)
		if c.at > h.now {
			h.now = c.at
		}
		c.fn()
	}
	h.now = t
}

type fixedDevice struct {
	mtu uint32
}

func (d fixedDevice) MTU() (uint32, bool) { return d.mtu, d.mtu > 0 }

// newTestShaper builds and initializes a shaper wired to a fresh testHost.
func newTestShaper(t *testing.T, cfg Config) (*Shaper, *testHost) {
	t.Helper()
	h := newTestHost()
	s := New(cfg, Env{Clock: h, Scheduler: h, Transmitter: h})
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s, h
}

// bytesPerSecond builds a DataRate from a byte rate.
func bytesPerSecond(n uint64) DataRate {
	return DataRate(n * 8)
}

func seconds(f float64) int64 {
	return int64(f * float64(TicksPerSecond))
}
