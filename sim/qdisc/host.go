package qdisc

// EventID identifies a pending callback armed on a Scheduler.
// The zero value means "no event".
type EventID uint64

// Clock reports the current simulation time in ticks. It must be monotonic.
type Clock interface {
	Now() int64
}

// Scheduler arms single-shot callbacks at an absolute tick.
// Cancel on an unknown or already-fired ID is a no-op.
type Scheduler interface {
	ScheduleAt(at int64, fn func()) (EventID, error)
	Cancel(id EventID)
}

// Transmitter receives packets released by the shaper outside of a direct
// Dequeue call, i.e. from its own wake-ups. It is the device the shaper feeds.
type Transmitter interface {
	Transmit(p *Packet)
}

// Device is the optional link-layer lookup used to resolve an unset MTU.
// The boolean is false when the device has no MTU to offer.
type Device interface {
	MTU() (uint32, bool)
}

// Env bundles the host collaborators handed to New.
// Clock, Scheduler and Transmitter are required; Device may be nil.
type Env struct {
	Clock       Clock
	Scheduler   Scheduler
	Transmitter Transmitter
	Device      Device
}
