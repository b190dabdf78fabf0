package qdisc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// QueueSizeUnit says whether a QueueSize counts packets or bytes.
type QueueSizeUnit string

const (
	Packets QueueSizeUnit = "p"
	Bytes   QueueSizeUnit = "B"
)

// QueueSize is a queue capacity, either in packets ("1000p") or in bytes
// ("64KB", "1MiB", "1500B").
type QueueSize struct {
	Unit  QueueSizeUnit
	Value uint64
}

// ParseQueueSize parses a capacity string. The unit suffix is mandatory and
// the count must be a whole number. Byte forms accept SI (KB, MB, GB) and
// binary (KiB, MiB, GiB) prefixes.
func ParseQueueSize(s string) (QueueSize, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return QueueSize{}, fmt.Errorf("queue size %q: missing number", s)
	}
	unit := s[i:]
	switch {
	case unit == "p":
		n, err := strconv.ParseUint(s[:i], 10, 64)
		if err != nil {
			return QueueSize{}, fmt.Errorf("queue size %q: %w", s, err)
		}
		return QueueSize{Unit: Packets, Value: n}, nil
	case strings.HasSuffix(unit, "B") && !strings.HasPrefix(unit, "."):
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return QueueSize{}, fmt.Errorf("queue size %q: %w", s, err)
		}
		return QueueSize{Unit: Bytes, Value: n}, nil
	}
	return QueueSize{}, fmt.Errorf("queue size %q: unit must be p or B", s)
}

// IsZero reports whether no usable capacity has been set.
func (q QueueSize) IsZero() bool {
	return q.Value == 0 || q.Unit == ""
}

func (q QueueSize) String() string {
	if q.Unit == "" {
		return "0p"
	}
	return fmt.Sprintf("%d%s", q.Value, q.Unit)
}

// Set implements pflag.Value.
func (q *QueueSize) Set(s string) error {
	v, err := ParseQueueSize(s)
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// Type implements pflag.Value.
func (q *QueueSize) Type() string {
	return "size"
}

func (q *QueueSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: queue size must be a scalar", value.Line)
	}
	v, err := ParseQueueSize(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*q = v
	return nil
}
