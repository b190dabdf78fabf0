// Implements the FifoQueue, the default child of a Shaper.
// Packets are held in arrival order until the shaper releases them.

package qdisc

import (
	"fmt"
	"strings"
)

// Queue is the child queue a Shaper gates. Enqueue applies the queue's own
// admission policy and reports a refusal with an error wrapping
// ErrInnerQueueRejected. Dequeue and Peek return nil when empty.
type Queue interface {
	Enqueue(p *Packet) error
	Dequeue() *Packet
	Peek() *Packet
	Len() int
	Bytes() uint64
}

// PacketFilter classifies packets into child classes. The Shaper has a single
// class and rejects any configuration that installs one.
type PacketFilter interface {
	Classify(p *Packet) int
}

// FifoQueue is a drop-tail FIFO bounded in packets or in bytes.
type FifoQueue struct {
	queue []*Packet
	limit QueueSize
	bytes uint64
}

var _ Queue = (*FifoQueue)(nil)

// NewFifoQueue creates an empty FIFO with the given capacity.
func NewFifoQueue(limit QueueSize) *FifoQueue {
	return &FifoQueue{limit: limit}
}

// Enqueue adds a packet to the back of the queue, or refuses it when the
// packet would push the queue past its limit.
func (q *FifoQueue) Enqueue(p *Packet) error {
	if p == nil {
		panic("FifoQueue.Enqueue: p must not be nil")
	}
	switch q.limit.Unit {
	case Packets:
		if uint64(len(q.queue))+1 > q.limit.Value {
			return fmt.Errorf("%w: %s: fifo holds %d packets, limit %s", ErrInnerQueueRejected, p, len(q.queue), q.limit)
		}
	case Bytes:
		if q.bytes+uint64(p.Size) > q.limit.Value {
			return fmt.Errorf("%w: %s: fifo holds %d bytes, limit %s", ErrInnerQueueRejected, p, q.bytes, q.limit)
		}
	}
	q.queue = append(q.queue, p)
	q.bytes += uint64(p.Size)
	return nil
}

// Dequeue removes the packet at the front of the queue.
func (q *FifoQueue) Dequeue() *Packet {
	if len(q.queue) == 0 {
		return nil
	}
	p := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	q.bytes -= uint64(p.Size)
	return p
}

// Peek returns the packet at the front of the queue without removing it.
func (q *FifoQueue) Peek() *Packet {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Len returns the number of queued packets.
func (q *FifoQueue) Len() int {
	return len(q.queue)
}

// Bytes returns the backlog in bytes.
func (q *FifoQueue) Bytes() uint64 {
	return q.bytes
}

// Limit returns the configured capacity.
func (q *FifoQueue) Limit() QueueSize {
	return q.limit
}

func (q *FifoQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, p := range q.queue {
		sb.WriteString(p.String())
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
