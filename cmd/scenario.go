package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/bwshaper/sim"
	"github.com/inference-sim/bwshaper/sim/qdisc"
	"github.com/inference-sim/bwshaper/sim/trace"
)

// Scenario is the on-disk description of a shaping run.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Seed       int64              `yaml:"seed"`
	Horizon    time.Duration      `yaml:"horizon"`     // 0 runs until the event queue drains
	DeviceMTU  uint32             `yaml:"device_mtu"`  // MTU reported by the link; 0 = none
	TraceLevel trace.TraceLevel   `yaml:"trace_level"` // "none" (default) or "decisions"
	Shaper     qdisc.Config       `yaml:"shaper"`
	Workload   sim.WorkloadConfig `yaml:"workload"`
}

// DefaultScenario returns the scenario used when no file is given.
func DefaultScenario() Scenario {
	return Scenario{
		Seed:       42,
		DeviceMTU:  1500,
		TraceLevel: trace.TraceLevelNone,
		Shaper:     qdisc.DefaultConfig(),
		Workload: sim.WorkloadConfig{
			Pattern:          sim.ArrivalPoisson,
			PacketsPerSecond: 100,
			Count:            1000,
			SizeMin:          64,
			SizeMax:          1500,
		},
	}
}

// LoadScenario reads a scenario file on top of DefaultScenario.
// Unknown keys are rejected so that typos do not silently fall back to defaults.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("reading scenario: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return sc, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return sc, nil
}

// HorizonTicks converts the horizon to simulation ticks.
func (sc Scenario) HorizonTicks() int64 {
	if sc.Horizon <= 0 {
		return math.MaxInt64
	}
	return sc.Horizon.Nanoseconds() / (int64(time.Second) / qdisc.TicksPerSecond)
}
