package qdisc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopFilter struct{}

func (nopFilter) Classify(*Packet) int { return 0 }

func TestValidate_PeakRateWithoutMTU_NoDevice_Fails(t *testing.T) {
	// GIVEN mtu=0, peakRate=500bps and no device to ask
	cfg := DefaultConfig()
	cfg.MTU = 0
	cfg.PeakRate = 500
	h := newTestHost()
	s := New(cfg, Env{Clock: h, Scheduler: h, Transmitter: h})

	// WHEN the shaper is initialized
	err := s.Initialize()

	// THEN it refuses to start with a configuration error
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, s.Enqueue(&Packet{ID: 1, Size: 1}), ErrNotInitialized)
}

func TestValidate_PeakRateWithoutMTU_DeviceWithoutMTU_Fails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeakRate = 500
	h := newTestHost()
	s := New(cfg, Env{Clock: h, Scheduler: h, Transmitter: h, Device: fixedDevice{}})

	assert.ErrorIs(t, s.Initialize(), ErrConfiguration)
}

func TestValidate_MTUFromDevice(t *testing.T) {
	// GIVEN an unset mtu and a device with a 1500 byte MTU
	cfg := DefaultConfig()
	cfg.PeakRate = 2_000_000
	h := newTestHost()
	s := New(cfg, Env{Clock: h, Scheduler: h, Transmitter: h, Device: fixedDevice{mtu: 1500}})

	// WHEN initialized
	require.NoError(t, s.Initialize())

	// THEN the mtu is taken from the device and no warnings are raised
	assert.Equal(t, uint32(1500), s.MTU())
	assert.Empty(t, s.Warnings())
}

func TestValidate_ConfiguredMTUWinsOverDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MTU = 9000
	h := newTestHost()
	s := New(cfg, Env{Clock: h, Scheduler: h, Transmitter: h, Device: fixedDevice{mtu: 1500}})

	require.NoError(t, s.Initialize())
	assert.Equal(t, uint32(9000), s.MTU())
}

func TestValidate_Warnings_NonFatal(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields []string
	}{
		{
			name:       "burst not above mtu",
			mutate:     func(c *Config) { c.MTU = 1500; c.Burst = 1500 },
			wantFields: []string{"burst"},
		},
		{
			name:       "peak rate not above rate",
			mutate:     func(c *Config) { c.MTU = 1500; c.PeakRate = c.Rate },
			wantFields: []string{"peak_rate"},
		},
		{
			name:       "both",
			mutate:     func(c *Config) { c.MTU = 200_000; c.PeakRate = 1 },
			wantFields: []string{"burst", "peak_rate"},
		},
		{
			name:       "clean",
			mutate:     func(c *Config) { c.MTU = 1500; c.PeakRate = 10 * c.Rate },
			wantFields: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			s, _ := newTestShaper(t, cfg)

			var fields []string
			for _, w := range s.Warnings() {
				fields = append(fields, w.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Config, *Shaper)
	}{
		{"zero rate", func(c *Config, _ *Shaper) { c.Rate = 0 }},
		{"unknown link mode", func(c *Config, _ *Shaper) { c.LinkMode = "ethernet" }},
		{"zero max size", func(c *Config, _ *Shaper) { c.MaxSize = QueueSize{} }},
		{"packet filter", func(_ *Config, s *Shaper) { s.AddPacketFilter(nopFilter{}) }},
		{"internal queue", func(_ *Config, s *Shaper) {
			s.AddInternalQueue(NewFifoQueue(QueueSize{Unit: Packets, Value: 1}))
		}},
		{"two children", func(_ *Config, s *Shaper) {
			s.AddChild(NewFifoQueue(QueueSize{Unit: Packets, Value: 1}))
			s.AddChild(NewFifoQueue(QueueSize{Unit: Packets, Value: 1}))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MTU = 1500
			h := newTestHost()
			s := New(cfg, Env{Clock: h, Scheduler: h, Transmitter: h})
			tt.setup(&s.cfg, s)

			assert.ErrorIs(t, s.Initialize(), ErrConfiguration)
		})
	}
}

func TestValidate_MissingCollaborators(t *testing.T) {
	h := newTestHost()
	assert.ErrorIs(t, New(DefaultConfig(), Env{Scheduler: h, Transmitter: h}).Initialize(), ErrConfiguration)
	assert.ErrorIs(t, New(DefaultConfig(), Env{Clock: h, Transmitter: h}).Initialize(), ErrConfiguration)
	assert.ErrorIs(t, New(DefaultConfig(), Env{Clock: h, Scheduler: h}).Initialize(), ErrConfiguration)
}

func TestValidate_DefaultChildSizedByMaxSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = QueueSize{Unit: Bytes, Value: 3000}
	s, _ := newTestShaper(t, cfg)

	fifo, ok := s.Child().(*FifoQueue)
	require.True(t, ok, "default child must be a FifoQueue")
	assert.Equal(t, cfg.MaxSize, fifo.Limit())
}

func TestValidate_UsesGivenChild(t *testing.T) {
	child := NewFifoQueue(QueueSize{Unit: Packets, Value: 3})
	h := newTestHost()
	s := New(DefaultConfig(), Env{Clock: h, Scheduler: h, Transmitter: h})
	s.AddChild(child)

	require.NoError(t, s.Initialize())
	assert.Same(t, child, s.Child())
}

func TestValidate_Twice_KeepsSingleChild(t *testing.T) {
	s, _ := newTestShaper(t, DefaultConfig())
	child := s.Child()

	require.NoError(t, s.Validate())
	assert.Same(t, child, s.Child())
}
