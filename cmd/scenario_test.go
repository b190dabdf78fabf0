package cmd

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/bwshaper/sim/qdisc"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_OverlaysDefaults(t *testing.T) {
	// GIVEN a file setting only some shaper and workload keys
	path := writeScenario(t, `
seed: 7
horizon: 30s
shaper:
  rate: 10Mbps
  link_mode: ptm
  overhead: 8
  max_size: 64000B
workload:
  pattern: constant
  count: 10
`)

	// WHEN it is loaded
	sc, err := LoadScenario(path)

	// THEN the given keys are set and the rest keep their defaults
	require.NoError(t, err)
	def := DefaultScenario()
	assert.Equal(t, int64(7), sc.Seed)
	assert.Equal(t, 30*time.Second, sc.Horizon)
	assert.Equal(t, qdisc.DataRate(10_000_000), sc.Shaper.Rate)
	assert.Equal(t, qdisc.LinkModePTM, sc.Shaper.LinkMode)
	assert.Equal(t, 8, sc.Shaper.Overhead)
	assert.Equal(t, qdisc.QueueSize{Unit: qdisc.Bytes, Value: 64000}, sc.Shaper.MaxSize)
	assert.Equal(t, def.Shaper.Burst, sc.Shaper.Burst)
	assert.Equal(t, "constant", sc.Workload.Pattern)
	assert.Equal(t, def.Workload.PacketsPerSecond, sc.Workload.PacketsPerSecond)
	assert.Equal(t, def.DeviceMTU, sc.DeviceMTU)
}

func TestLoadScenario_UnknownKey_Fails(t *testing.T) {
	path := writeScenario(t, "shaper:\n  rtae: 1Mbps\n")

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_BadRate_Fails(t *testing.T) {
	path := writeScenario(t, "shaper:\n  rate: quick\n")

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestScenario_HorizonTicks(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), Scenario{}.HorizonTicks())
	assert.Equal(t, 3*qdisc.TicksPerSecond/2, Scenario{Horizon: 1500 * time.Millisecond}.HorizonTicks())
}
