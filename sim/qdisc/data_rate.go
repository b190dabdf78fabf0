package qdisc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// TicksPerSecond is the resolution of simulation time: one tick is a nanosecond.
const TicksPerSecond int64 = 1_000_000_000

// DataRate is a link rate in bits per second.
//
// It parses the usual rate notations: a number followed by an optional SI
// (k, M, G) or binary (Ki, Mi, Gi) prefix and a bit ("bps", "b/s") or byte
// ("Bps", "B/s") unit, e.g. "10Mbps", "125KB/s", "1.5Gb/s". A bare number is
// taken as bits per second.
type DataRate uint64

// ParseDataRate parses a rate string such as "125KB/s" or "10Mbps".
func ParseDataRate(s string) (DataRate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty data rate")
	}
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("data rate %q: missing number", s)
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("data rate %q: %w", s, err)
	}
	unit := strings.TrimSpace(s[i:])
	if unit == "" {
		return DataRate(math.Round(value)), nil
	}

	var base string
	switch {
	case strings.HasSuffix(unit, "/s"):
		base = strings.TrimSuffix(unit, "/s")
	case strings.HasSuffix(unit, "ps"):
		base = strings.TrimSuffix(unit, "ps")
	default:
		return 0, fmt.Errorf("data rate %q: unit must end in \"ps\" or \"/s\"", s)
	}
	if base == "" {
		return 0, fmt.Errorf("data rate %q: missing bit or byte unit", s)
	}

	var bitsPerUnit float64
	switch base[len(base)-1] {
	case 'b':
		bitsPerUnit = 1
	case 'B':
		bitsPerUnit = 8
	default:
		return 0, fmt.Errorf("data rate %q: unit must be b or B", s)
	}
	mult, ok := ratePrefixes[base[:len(base)-1]]
	if !ok {
		return 0, fmt.Errorf("data rate %q: unknown prefix %q", s, base[:len(base)-1])
	}
	bps := value * mult * bitsPerUnit
	if bps > math.MaxUint64 {
		return 0, fmt.Errorf("data rate %q: out of range", s)
	}
	return DataRate(math.Round(bps)), nil
}

var ratePrefixes = map[string]float64{
	"":   1,
	"k":  1e3,
	"K":  1e3,
	"M":  1e6,
	"G":  1e9,
	"Ki": 1 << 10,
	"Mi": 1 << 20,
	"Gi": 1 << 30,
}

// BitsPerSecond returns the rate as a plain number.
func (r DataRate) BitsPerSecond() uint64 {
	return uint64(r)
}

// TxTicks returns the ticks needed to put n bytes on the wire at this rate,
// rounded up so a non-empty transmission never takes zero time. Durations
// beyond the tick range saturate at math.MaxInt64.
// The rate must be non-zero.
func (r DataRate) TxTicks(n uint64) int64 {
	if n == 0 {
		return 0
	}
	ticks := math.Ceil(float64(n) * 8 * float64(TicksPerSecond) / float64(r))
	if ticks >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(ticks)
}

// addTicks returns at+d for d >= 0, saturating at math.MaxInt64.
func addTicks(at, d int64) int64 {
	if d > math.MaxInt64-at {
		return math.MaxInt64
	}
	return at + d
}

// String renders the rate in the largest whole SI bit unit.
func (r DataRate) String() string {
	v := uint64(r)
	switch {
	case v >= 1e9 && v%1e9 == 0:
		return fmt.Sprintf("%dGbps", v/1e9)
	case v >= 1e6 && v%1e6 == 0:
		return fmt.Sprintf("%dMbps", v/1e6)
	case v >= 1e3 && v%1e3 == 0:
		return fmt.Sprintf("%dkbps", v/1e3)
	}
	return fmt.Sprintf("%dbps", v)
}

// Set implements pflag.Value.
func (r *DataRate) Set(s string) error {
	v, err := ParseDataRate(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Type implements pflag.Value.
func (r *DataRate) Type() string {
	return "rate"
}

// UnmarshalYAML accepts either a rate string or a plain bits-per-second number.
func (r *DataRate) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: data rate must be a scalar", value.Line)
	}
	v, err := ParseDataRate(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*r = v
	return nil
}
