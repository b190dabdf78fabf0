package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/bwshaper/sim/qdisc"
	"github.com/inference-sim/bwshaper/sim/trace"
)

func TestRunOptions_Apply_OnlyChangedFlagsOverride(t *testing.T) {
	// GIVEN a scenario with a non-default burst and a command line setting rate and packets
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	o := &runOptions{}
	o.register(fs)
	require.NoError(t, fs.Parse([]string{"--rate=2Mbps", "--packets=5", "--link-mode=atm", "--max-size=3000B"}))

	sc := DefaultScenario()
	sc.Shaper.Burst = 9999

	// WHEN the flags are applied
	o.apply(fs, &sc)

	// THEN set flags win and untouched scenario values survive
	assert.Equal(t, qdisc.DataRate(2_000_000), sc.Shaper.Rate)
	assert.Equal(t, 5, sc.Workload.Count)
	assert.Equal(t, qdisc.LinkModeATM, sc.Shaper.LinkMode)
	assert.Equal(t, qdisc.QueueSize{Unit: qdisc.Bytes, Value: 3000}, sc.Shaper.MaxSize)
	assert.Equal(t, uint32(9999), sc.Shaper.Burst)
}

func TestRunOptions_Register_DefaultsMatchScenario(t *testing.T) {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	o := &runOptions{}
	o.register(fs)
	require.NoError(t, fs.Parse(nil))

	def := DefaultScenario()
	assert.Equal(t, def.Shaper.Rate.String(), fs.Lookup("rate").DefValue)
	assert.Equal(t, def.Shaper.MaxSize.String(), fs.Lookup("max-size").DefValue)
	assert.Equal(t, "rate", fs.Lookup("peak-rate").Value.Type())
}

func TestRunScenario_SameSeed_SameMetrics(t *testing.T) {
	// GIVEN a short overloaded run
	sc := DefaultScenario()
	sc.Shaper.Rate = 100_000
	sc.Shaper.MaxSize = qdisc.QueueSize{Unit: qdisc.Packets, Value: 10}
	sc.Workload.Count = 100

	// WHEN it runs twice
	s1, err := runScenario(sc)
	require.NoError(t, err)
	s2, err := runScenario(sc)
	require.NoError(t, err)
	m1, m2 := s1.Metrics, s2.Metrics

	// THEN the results are identical and every packet is accounted for
	assert.Equal(t, m1, m2)
	assert.Equal(t, 100, m1.DeliveredPackets+m1.DroppedPackets)
	assert.Positive(t, m1.DroppedPackets)
}

func TestRunScenario_InvalidShaper_ReturnsError(t *testing.T) {
	sc := DefaultScenario()
	sc.Shaper.Rate = 0

	_, err := runScenario(sc)
	assert.ErrorIs(t, err, qdisc.ErrConfiguration)
}

func TestRunScenario_Horizon_CutsRun(t *testing.T) {
	sc := DefaultScenario()
	sc.Workload.Pattern = "constant"
	sc.Workload.PacketsPerSecond = 10
	sc.Workload.Count = 100
	sc.Horizon = 2 * time.Second

	s, err := runScenario(sc)
	require.NoError(t, err)
	m := s.Metrics

	// arrivals at 0, 0.1s, ..., 2.0s
	assert.Equal(t, 21, m.OfferedPackets)
	assert.LessOrEqual(t, m.SimEndedTime, 2*qdisc.TicksPerSecond)
}

func TestWirelenCmd(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"wirelen", "--link-mode", "atm", "48", "49", "96"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "48\t53\n49\t106\n96\t106\n", out.String())
}

func TestRunScenario_TraceLevel(t *testing.T) {
	sc := DefaultScenario()
	sc.Workload.Count = 20
	sc.TraceLevel = trace.TraceLevelDecisions

	s, err := runScenario(sc)
	require.NoError(t, err)
	require.NotNil(t, s.Trace)
	assert.Len(t, s.Trace.Admissions, 20)

	var out bytes.Buffer
	printTraceSummary(&out, trace.Summarize(s.Trace))
	assert.Contains(t, out.String(), "Admission Decisions  : 20")

	sc.TraceLevel = "verbose"
	_, err = runScenario(sc)
	assert.Error(t, err)
}
