package qdisc

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// QueueDisc is the contract between a host and a queue discipline.
//
// The host calls Initialize once (Validate then Reset), offers packets with
// Enqueue and pulls them with Dequeue, or lets Run hand every eligible packet
// to the Transmitter. Dispose must be called before the host drops the
// discipline so that no armed callback fires into it.
type QueueDisc interface {
	Enqueue(p *Packet) error
	Dequeue() (*Packet, error)
	Run() error
	Err() error
	Validate() error
	Reset()
	Dispose()
	Len() int
	Bytes() uint64
}

// State is the shaper's derived state. It is computed from the backlog and
// the checkpoint on demand and never stored.
type State string

const (
	// StateIdle: nothing queued.
	StateIdle State = "idle"
	// StateArmed: packets queued, checkpoint in the future, waiting for a wake-up.
	StateArmed State = "armed"
	// StateDraining: packets queued and the head is eligible now.
	StateDraining State = "draining"
)

// Shaper is a token-bucket timed gate around a single child queue.
//
// The checkpoint is the earliest tick at which the head of the child may
// leave. Releasing a packet moves it to now plus the packet's transmission
// time at Rate; an empty shaper whose checkpoint has passed pulls it up to now
// on the next enqueue, so idle time never turns into a burst.
//
// At most one wake-up is armed at a time. Arming always cancels the previous
// one, and a wake-up re-runs the full dequeue decision through Run.
type Shaper struct {
	cfg Config
	env Env

	// children, filters and internal are collected before Initialize and
	// checked by Validate.
	children []Queue
	filters  []PacketFilter
	internal []Queue

	child    Queue
	mtu      uint32
	warnings []ConfigWarning

	initialized bool
	disposed    bool
	failure     error // sticky scheduler failure

	checkpoint int64
	pending    EventID
}

var _ QueueDisc = (*Shaper)(nil)

// New creates a shaper with the given configuration and host collaborators.
// The shaper is unusable until Initialize succeeds.
func New(cfg Config, env Env) *Shaper {
	return &Shaper{cfg: cfg, env: env}
}

// AddChild attaches a child queue. Without one, Validate creates a FIFO sized
// by Config.MaxSize.
func (s *Shaper) AddChild(q Queue) {
	s.children = append(s.children, q)
}

// AddPacketFilter installs a classifier. Shapers have a single class, so any
// filter makes Validate fail.
func (s *Shaper) AddPacketFilter(f PacketFilter) {
	s.filters = append(s.filters, f)
}

// AddInternalQueue attaches an internal queue. Shapers keep packets only in
// their child, so any internal queue makes Validate fail.
func (s *Shaper) AddInternalQueue(q Queue) {
	s.internal = append(s.internal, q)
}

// Initialize validates the configuration and resets the runtime state.
func (s *Shaper) Initialize() error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.Reset()
	s.initialized = true
	return nil
}

// Validate checks the static configuration, attaches the default child if
// none was given and resolves the MTU from the device when unset.
// Anomalies that do not prevent shaping are logged and kept in Warnings.
func (s *Shaper) Validate() error {
	if s.disposed {
		return ErrDisposed
	}
	if s.env.Clock == nil || s.env.Scheduler == nil {
		return fmt.Errorf("%w: clock and scheduler are required", ErrConfiguration)
	}
	if s.env.Transmitter == nil {
		return fmt.Errorf("%w: transmitter is required", ErrConfiguration)
	}
	if err := s.cfg.validate(); err != nil {
		return err
	}
	if len(s.internal) > 0 {
		return fmt.Errorf("%w: shaper cannot have internal queues", ErrConfiguration)
	}
	if len(s.filters) > 0 {
		return fmt.Errorf("%w: shaper cannot have packet filters", ErrConfiguration)
	}
	children := s.children
	if len(children) == 0 {
		if s.cfg.MaxSize.IsZero() {
			return fmt.Errorf("%w: cannot size the default child queue from max size %s", ErrConfiguration, s.cfg.MaxSize)
		}
		children = []Queue{NewFifoQueue(s.cfg.MaxSize)}
	}
	if len(children) != 1 {
		return fmt.Errorf("%w: shaper needs exactly 1 child queue, has %d", ErrConfiguration, len(children))
	}

	mtu := s.cfg.MTU
	if mtu == 0 && s.env.Device != nil {
		if devMTU, ok := s.env.Device.MTU(); ok {
			mtu = devMTU
		}
	}
	if mtu == 0 && s.cfg.PeakRate > 0 {
		return fmt.Errorf("%w: peak rate %s is set but the mtu is null, no packet would be dequeued", ErrConfiguration, s.cfg.PeakRate)
	}

	// nothing is committed until every check has passed
	s.children = children
	s.child = children[0]
	s.mtu = mtu
	s.warnings = s.cfg.warnings(s.mtu)
	for _, w := range s.warnings {
		logrus.Warnf("[shaper] %s", w)
	}
	return nil
}

// Reset returns the runtime state to its initial values: checkpoint zero and
// no pending wake-up. A pending wake-up is cancelled.
func (s *Shaper) Reset() {
	s.cancelPending()
	s.checkpoint = 0
	s.failure = nil
}

// Dispose cancels any pending wake-up and releases the child queue.
// Packets still queued are dropped. Dispose is idempotent.
func (s *Shaper) Dispose() {
	if s.disposed {
		return
	}
	s.cancelPending()
	if s.child != nil && s.child.Len() > 0 {
		logrus.Infof("[shaper] disposed with %d packets (%d bytes) queued", s.child.Len(), s.child.Bytes())
	}
	s.child = nil
	s.children = nil
	s.disposed = true
}

// Enqueue offers a packet to the shaper.
//
// The packet's wire length is computed for bookkeeping only; admission is
// decided by the child queue, whose error is returned unchanged. A packet the
// overhead calculator rejects is dropped with ErrInvalidPacketLength.
func (s *Shaper) Enqueue(p *Packet) error {
	if err := s.usable(); err != nil {
		return err
	}
	wire, err := s.wireLength(p)
	if err != nil {
		logrus.Warnf("[shaper] dropping %s: %v", p, err)
		return err
	}

	now := s.env.Clock.Now()
	if s.child.Bytes() == 0 && s.checkpoint <= now {
		s.checkpoint = now
	}

	if err := s.child.Enqueue(p); err != nil {
		logrus.Debugf("[shaper] child refused %s: %v", p, err)
		return err
	}
	logrus.Debugf("[shaper] enqueued %s (%dB on the wire), backlog %d packets / %d bytes",
		p, wire, s.child.Len(), s.child.Bytes())
	return nil
}

// Dequeue releases the head packet if its checkpoint has been reached.
//
// When the head is eligible it is removed, the checkpoint advances by its
// transmission time and a wake-up is armed at the new checkpoint for the next
// packet. Otherwise a wake-up is armed at the current checkpoint and nil is
// returned. An empty shaper returns nil and arms nothing.
func (s *Shaper) Dequeue() (*Packet, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	head := s.child.Peek()
	if head == nil {
		return nil, nil
	}

	now := s.env.Clock.Now()
	if delta := now - s.checkpoint; delta < 0 {
		if err := s.arm(s.checkpoint); err != nil {
			return nil, err
		}
		logrus.Debugf("[shaper] %s held, wake-up in %d ticks", head, -delta)
		return nil, nil
	}

	wire, err := s.wireLength(head)
	if err != nil {
		s.child.Dequeue()
		logrus.Warnf("[shaper] dropping %s at head: %v", head, err)
		return nil, err
	}
	next := addTicks(now, s.cfg.Rate.TxTicks(wire))
	if err := s.arm(next); err != nil {
		return nil, err
	}
	s.checkpoint = next
	p := s.child.Dequeue()
	logrus.Debugf("[shaper] released %s (%dB on the wire), next checkpoint %d", p, wire, next)
	return p, nil
}

// Run dequeues until nothing is eligible and hands each released packet to
// the Transmitter. Packets with an invalid length are skipped.
func (s *Shaper) Run() error {
	for {
		p, err := s.Dequeue()
		if errors.Is(err, ErrInvalidPacketLength) {
			continue
		}
		if err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		s.env.Transmitter.Transmit(p)
	}
}

// Err returns the scheduler failure that stopped the shaper, or nil.
// Wake-ups have no caller to return it to, so hosts read it here.
func (s *Shaper) Err() error {
	return s.failure
}

// wake is the callback armed on the scheduler.
func (s *Shaper) wake() {
	s.pending = 0
	if s.disposed {
		return
	}
	if err := s.Run(); err != nil {
		logrus.Errorf("[shaper] wake-up: %v", err)
	}
}

// arm schedules the single wake-up at tick at, replacing any pending one.
func (s *Shaper) arm(at int64) error {
	s.cancelPending()
	id, err := s.env.Scheduler.ScheduleAt(at, s.wake)
	if err != nil {
		s.failure = fmt.Errorf("%w: arming wake-up at tick %d: %v", ErrScheduler, at, err)
		return s.failure
	}
	s.pending = id
	return nil
}

func (s *Shaper) cancelPending() {
	if s.pending != 0 {
		s.env.Scheduler.Cancel(s.pending)
		s.pending = 0
	}
}

func (s *Shaper) usable() error {
	switch {
	case s.disposed:
		return ErrDisposed
	case !s.initialized:
		return ErrNotInitialized
	case s.failure != nil:
		return s.failure
	}
	return nil
}

func (s *Shaper) wireLength(p *Packet) (uint64, error) {
	return ComputeWireLength(p.Size, s.cfg.NetworkOffset, s.cfg.Overhead, s.cfg.LinkMode)
}

// State reports the derived state at the current clock.
func (s *Shaper) State() State {
	if s.child == nil || s.child.Len() == 0 {
		return StateIdle
	}
	if s.env.Clock.Now() < s.checkpoint {
		return StateArmed
	}
	return StateDraining
}

// Checkpoint returns the earliest tick at which the next packet may leave.
func (s *Shaper) Checkpoint() int64 {
	return s.checkpoint
}

// Pending reports whether a wake-up is armed.
func (s *Shaper) Pending() bool {
	return s.pending != 0
}

// Len returns the number of packets in the child queue.
func (s *Shaper) Len() int {
	if s.child == nil {
		return 0
	}
	return s.child.Len()
}

// Bytes returns the backlog in bytes.
func (s *Shaper) Bytes() uint64 {
	if s.child == nil {
		return 0
	}
	return s.child.Bytes()
}

// Peek returns the head packet without removing it.
func (s *Shaper) Peek() *Packet {
	if s.child == nil {
		return nil
	}
	return s.child.Peek()
}

// Child returns the child queue, or nil before validation and after disposal.
func (s *Shaper) Child() Queue {
	return s.child
}

// Config returns a copy of the configuration.
func (s *Shaper) Config() Config {
	return s.cfg
}

// Rate returns the sustained rate.
func (s *Shaper) Rate() DataRate {
	return s.cfg.Rate
}

// MTU returns the resolved second bucket size; it reflects the device MTU
// when the configuration left it unset.
func (s *Shaper) MTU() uint32 {
	return s.mtu
}

// Warnings returns the anomalies found by the last Validate.
func (s *Shaper) Warnings() []ConfigWarning {
	return s.warnings
}
