package sim

import (
	"fmt"
	"math"

	"github.com/inference-sim/bwshaper/sim/qdisc"
)

// Arrival patterns understood by WorkloadConfig.
const (
	ArrivalConstant = "constant"
	ArrivalPoisson  = "poisson"
)

// ValidArrivalPatterns is the set of recognized arrival pattern names.
var ValidArrivalPatterns = map[string]bool{"": true, ArrivalConstant: true, ArrivalPoisson: true}

// WorkloadConfig describes the packets offered to the shaper.
// Sizes are drawn uniformly from [SizeMin, SizeMax].
type WorkloadConfig struct {
	Pattern          string  `yaml:"pattern"`            // "constant" or "poisson"; empty means constant
	PacketsPerSecond float64 `yaml:"packets_per_second"` // mean arrival rate
	Count            int     `yaml:"count"`              // number of packets to generate
	SizeMin          uint32  `yaml:"size_min"`           // bytes
	SizeMax          uint32  `yaml:"size_max"`           // bytes; 0 means equal to SizeMin
	Start            int64   `yaml:"start"`              // tick of the first arrival
}

// Validate checks the workload parameters.
func (w WorkloadConfig) Validate() error {
	if !ValidArrivalPatterns[w.Pattern] {
		return fmt.Errorf("unknown arrival pattern %q", w.Pattern)
	}
	if w.PacketsPerSecond <= 0 || math.IsNaN(w.PacketsPerSecond) || math.IsInf(w.PacketsPerSecond, 0) {
		return fmt.Errorf("packets_per_second must be a positive finite number, got %v", w.PacketsPerSecond)
	}
	if w.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", w.Count)
	}
	if w.SizeMax != 0 && w.SizeMax < w.SizeMin {
		return fmt.Errorf("size_max (%d) must not be below size_min (%d)", w.SizeMax, w.SizeMin)
	}
	if w.Start < 0 {
		return fmt.Errorf("start must be non-negative, got %d", w.Start)
	}
	return nil
}

// GeneratePackets creates the packets of a workload with arrival times set.
// The same config and RNG key always produce the same packets.
func GeneratePackets(w WorkloadConfig, rng *PartitionedRNG) ([]*qdisc.Packet, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	sampler := NewArrivalSampler(w.Pattern, w.PacketsPerSecond)
	arrivals := rng.ForSubsystem(SubsystemArrivals)
	sizes := rng.ForSubsystem(SubsystemSizes)

	sizeMax := w.SizeMax
	if sizeMax == 0 {
		sizeMax = w.SizeMin
	}

	packets := make([]*qdisc.Packet, 0, w.Count)
	currentTime := w.Start
	for i := 0; i < w.Count; i++ {
		size := w.SizeMin
		if sizeMax > w.SizeMin {
			size += uint32(sizes.Int63n(int64(sizeMax-w.SizeMin) + 1))
		}
		packets = append(packets, &qdisc.Packet{
			ID:          uint64(i + 1),
			Size:        size,
			ArrivalTime: currentTime,
		})
		currentTime += sampler.SampleIAT(arrivals)
	}
	return packets, nil
}
