// Package qdisc implements a bandwidth-shaping queue discipline.
//
// A Shaper sits in front of a single child Queue and releases packets onto a
// link no faster than its configured Rate allows. Timing follows a token
// bucket approximated by a checkpoint: the earliest tick at which the next
// packet may leave. Every released packet pushes the checkpoint forward by its
// transmission time at Rate, computed on the packet's wire length (see
// ComputeWireLength for header, encapsulation and ATM/PTM cell accounting).
//
// The package owns no event loop. The host supplies a Clock, a Scheduler, a
// Transmitter for packets released by wake-ups and, optionally, a Device for
// MTU discovery (see host.go). All calls are expected from a single goroutine;
// the Shaper does no locking.
//
// Typical wiring:
//
//	sh := qdisc.New(cfg, qdisc.Env{Clock: s, Scheduler: s, Transmitter: link})
//	if err := sh.Initialize(); err != nil {
//	    return err
//	}
//	_ = sh.Enqueue(pkt)
//	_ = sh.Run()
package qdisc
