package qdisc

import "fmt"

// Config holds the static parameters of a Shaper.
// It is copied into the shaper at construction and never changes afterwards;
// reconfiguring means building a new shaper.
type Config struct {
	Rate     DataRate  `yaml:"rate"`      // sustained rate of the first bucket (must be > 0)
	PeakRate DataRate  `yaml:"peak_rate"` // rate of the second bucket; 0 disables it
	MTU      uint32    `yaml:"mtu"`       // second bucket size in bytes; 0 = ask the device
	Burst    uint32    `yaml:"burst"`     // first bucket size in bytes; should exceed MTU
	LinkMode LinkMode  `yaml:"link_mode"` // "none" (default), "atm" or "ptm"
	MaxSize  QueueSize `yaml:"max_size"`  // capacity of the default child queue

	// Link-layer adjustments fed to ComputeWireLength.
	NetworkOffset int `yaml:"network_offset"` // bytes stripped below the shaper (negative adds)
	Overhead      int `yaml:"overhead"`       // per-packet encapsulation bytes
}

// DefaultConfig returns the configuration a shaper uses when nothing else is
// specified: 125KB/s, a 1000 packet child queue and an MTU taken from the device.
func DefaultConfig() Config {
	return Config{
		Rate:     1_000_000,
		Burst:    125_000,
		LinkMode: LinkModeNone,
		MaxSize:  QueueSize{Unit: Packets, Value: 1000},
	}
}

// validate checks the fields that can be judged without the host.
func (c Config) validate() error {
	if c.Rate == 0 {
		return fmt.Errorf("%w: rate must be positive", ErrConfiguration)
	}
	if !IsValidLinkMode(string(c.LinkMode)) {
		return fmt.Errorf("%w: unknown link mode %q", ErrConfiguration, c.LinkMode)
	}
	return nil
}

// ConfigWarning describes a configuration that is accepted but behaves in a
// counterintuitive way.
type ConfigWarning struct {
	Field   string
	Message string
}

func (w ConfigWarning) String() string {
	return w.Field + ": " + w.Message
}

// warnings returns the non-fatal anomalies of a configuration with a resolved MTU.
func (c Config) warnings(mtu uint32) []ConfigWarning {
	var ws []ConfigWarning
	if c.Burst <= mtu {
		ws = append(ws, ConfigWarning{
			Field:   "burst",
			Message: fmt.Sprintf("size of the first bucket (%d) should be greater than the size of the second bucket (%d)", c.Burst, mtu),
		})
	}
	if c.PeakRate > 0 && c.PeakRate <= c.Rate {
		ws = append(ws, ConfigWarning{
			Field:   "peak_rate",
			Message: fmt.Sprintf("rate of the second bucket (%s) should be greater than the rate of the first bucket (%s)", c.PeakRate, c.Rate),
		})
	}
	return ws
}
