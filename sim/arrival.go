package sim

import (
	"math"
	"math/rand"

	"github.com/inference-sim/bwshaper/sim/qdisc"
)

// ArrivalSampler generates packet inter-arrival times.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in ticks.
	// Always returns a positive value (>= 1).
	SampleIAT(rng *rand.Rand) int64
}

// ConstantSampler spaces packets evenly (CV=0).
type ConstantSampler struct {
	iat int64
}

func (s *ConstantSampler) SampleIAT(_ *rand.Rand) int64 {
	return s.iat
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	ratePerTick float64 // packets per tick
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) int64 {
	iat := int64(rng.ExpFloat64() / s.ratePerTick)
	if iat < 1 {
		return 1
	}
	return iat
}

// NewArrivalSampler creates the sampler for a pattern at packetsPerSecond.
// Valid patterns are listed in ValidArrivalPatterns.
// Panics on unrecognized names or a non-positive rate; callers validate first.
func NewArrivalSampler(pattern string, packetsPerSecond float64) ArrivalSampler {
	if packetsPerSecond <= 0 || math.IsNaN(packetsPerSecond) || math.IsInf(packetsPerSecond, 0) {
		panic("NewArrivalSampler: packetsPerSecond must be a positive finite number")
	}
	switch pattern {
	case "", ArrivalConstant:
		iat := int64(math.Round(float64(qdisc.TicksPerSecond) / packetsPerSecond))
		return &ConstantSampler{iat: max(iat, 1)}
	case ArrivalPoisson:
		return &PoissonSampler{ratePerTick: packetsPerSecond / float64(qdisc.TicksPerSecond)}
	default:
		panic("NewArrivalSampler: unknown pattern " + pattern)
	}
}
