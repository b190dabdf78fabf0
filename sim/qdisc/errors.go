package qdisc

import "errors"

var (
	// ErrConfiguration is returned when a static configuration is invalid or
	// contradictory. A shaper that fails validation refuses to start.
	ErrConfiguration = errors.New("invalid shaper configuration")

	// ErrInvalidPacketLength is returned when a packet is shorter than the
	// header adjustment applied by the overhead calculator. The packet is
	// dropped; the shaper keeps running.
	ErrInvalidPacketLength = errors.New("invalid packet length")

	// ErrInnerQueueRejected is returned by a child queue that refuses a packet
	// because it is full. The shaper propagates it unchanged.
	ErrInnerQueueRejected = errors.New("inner queue rejected packet")

	// ErrScheduler is returned once the host scheduler failed to arm a
	// wake-up. It is fatal for the shaper instance.
	ErrScheduler = errors.New("scheduler failure")

	// ErrDisposed is returned by operations on a disposed shaper.
	ErrDisposed = errors.New("shaper disposed")

	// ErrNotInitialized is returned by operations on a shaper that has not
	// been successfully initialized.
	ErrNotInitialized = errors.New("shaper not initialized")
)
