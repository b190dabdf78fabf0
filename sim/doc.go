// Package sim provides the discrete-event engine that hosts the bandwidth shaper.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: Event types that drive the simulation (PacketArrival, Wakeup)
//   - simulator.go: The event loop, and the Clock and Scheduler handed to the shaper
//   - link.go: The device behind the shaper, recording every departure
//
// # Architecture
//
// The sim package owns time and the event queue; the shaping logic lives in
// sub-packages:
//   - sim/qdisc/: The shaping queue discipline, its child FIFO and the wire-length calculator
//   - sim/trace/: Decision trace recording
//
// Workloads are generated by workload.go from a WorkloadConfig and a
// PartitionedRNG, so a seed fully determines a run.
package sim
