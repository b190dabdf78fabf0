package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inference-sim/bwshaper/sim"
	"github.com/inference-sim/bwshaper/sim/qdisc"
	"github.com/inference-sim/bwshaper/sim/trace"
)

// runOptions holds the flags of the run command. Flags left untouched keep
// the value from the scenario file.
type runOptions struct {
	scenarioPath string // YAML scenario file
	logLevel     string // Log verbosity level
	seed         int64
	horizon      time.Duration
	deviceMTU    uint32
	traceLevel   string

	// shaper
	rate          qdisc.DataRate
	peakRate      qdisc.DataRate
	mtu           uint32
	burst         uint32
	linkMode      string
	maxSize       qdisc.QueueSize
	networkOffset int
	overhead      int

	// workload
	pattern string
	pps     float64
	count   int
	sizeMin uint32
	sizeMax uint32
}

var runOpts = &runOptions{}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "bwshaper",
	Short: "Discrete-event simulator for a bandwidth-shaping queue discipline",
}

// runCmd shapes a generated workload and prints the resulting metrics
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a shaping simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(runOpts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", runOpts.logLevel)
		}
		logrus.SetLevel(level)

		sc := DefaultScenario()
		if runOpts.scenarioPath != "" {
			if sc, err = LoadScenario(runOpts.scenarioPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		runOpts.apply(cmd.Flags(), &sc)

		s, err := runScenario(sc)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		s.Metrics.Print()
		if s.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}
		logrus.Info("Simulation complete.")
	},
}

// wirelenOpts holds the flags of the wirelen command.
var wirelenOpts struct {
	linkMode      string
	networkOffset int
	overhead      int
}

// wirelenCmd prints the on-the-wire length of packet sizes
var wirelenCmd = &cobra.Command{
	Use:   "wirelen SIZE...",
	Short: "Compute link-layer wire lengths for packet sizes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !qdisc.IsValidLinkMode(wirelenOpts.linkMode) {
			return fmt.Errorf("unknown link mode %q", wirelenOpts.linkMode)
		}
		mode := qdisc.LinkMode(wirelenOpts.linkMode)
		for _, arg := range args {
			size, err := strconv.ParseUint(arg, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid packet size %q", arg)
			}
			wire, err := qdisc.ComputeWireLength(uint32(size), wirelenOpts.networkOffset, wirelenOpts.overhead, mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", size, wire)
		}
		return nil
	},
}

// runScenario generates the workload and runs it through the shaper. The
// returned simulator has finished and its shaper is disposed.
func runScenario(sc Scenario) (*sim.Simulator, error) {
	if !trace.IsValidTraceLevel(string(sc.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", sc.TraceLevel)
	}
	logrus.Infof("Starting simulation: rate=%s mtu=%d burst=%d link_mode=%s max_size=%s, %d packets (%s, %.1f/s)",
		sc.Shaper.Rate, sc.Shaper.MTU, sc.Shaper.Burst, sc.Shaper.LinkMode, sc.Shaper.MaxSize,
		sc.Workload.Count, sc.Workload.Pattern, sc.Workload.PacketsPerSecond)

	packets, err := sim.GeneratePackets(sc.Workload, sim.NewPartitionedRNG(sim.NewSimulationKey(sc.Seed)))
	if err != nil {
		return nil, fmt.Errorf("workload: %w", err)
	}
	s, err := sim.NewSimulator(sim.SimConfig{
		Horizon:    sc.HorizonTicks(),
		Shaper:     sc.Shaper,
		DeviceMTU:  sc.DeviceMTU,
		TraceLevel: sc.TraceLevel,
	})
	if err != nil {
		return nil, err
	}
	defer s.Dispose()

	for _, p := range packets {
		s.InjectArrival(p)
	}
	if err := s.Run(); err != nil {
		return nil, err
	}
	return s, nil
}

// printTraceSummary writes the decision-trace summary after the metrics.
func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	tps := float64(qdisc.TicksPerSecond)
	fmt.Fprintln(w, "=== Decision Trace Summary ===")
	fmt.Fprintf(w, "Admission Decisions  : %d (%d admitted, %d rejected)\n", ts.TotalDecisions, ts.AdmittedCount, ts.RejectedCount)
	fmt.Fprintf(w, "Releases             : %d\n", ts.ReleasedCount)
	fmt.Fprintf(w, "Mean Hold            : %.6f s\n", ts.MeanHold/tps)
	fmt.Fprintf(w, "Max Hold             : %.6f s\n", float64(ts.MaxHold)/tps)
	fmt.Fprintf(w, "Max Backlog          : %d packets\n", ts.MaxBacklog)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// register binds the run flags to fs with the defaults of DefaultScenario.
func (o *runOptions) register(fs *pflag.FlagSet) {
	def := DefaultScenario()
	o.rate, o.peakRate = def.Shaper.Rate, def.Shaper.PeakRate
	o.maxSize = def.Shaper.MaxSize

	fs.StringVar(&o.scenarioPath, "config", "", "Path to a YAML scenario file")
	fs.StringVar(&o.logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.Int64Var(&o.seed, "seed", def.Seed, "Seed for workload generation")
	fs.DurationVar(&o.horizon, "horizon", 0, "Simulated time after which the run stops (0 = until drained)")
	fs.Uint32Var(&o.deviceMTU, "device-mtu", def.DeviceMTU, "MTU reported by the link device (0 = none)")
	fs.StringVar(&o.traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")

	// Shaper configs
	fs.Var(&o.rate, "rate", "Sustained shaping rate (e.g. 1Mbps, 125KB/s)")
	fs.Var(&o.peakRate, "peak-rate", "Peak rate of the second bucket (0 disables it)")
	fs.Uint32Var(&o.mtu, "mtu", def.Shaper.MTU, "Second bucket size in bytes (0 = device MTU)")
	fs.Uint32Var(&o.burst, "burst", def.Shaper.Burst, "First bucket size in bytes")
	fs.StringVar(&o.linkMode, "link-mode", string(def.Shaper.LinkMode), "Link-layer cell mode (none, atm, ptm)")
	fs.Var(&o.maxSize, "max-size", "Capacity of the default child queue (e.g. 1000p, 64000B)")
	fs.IntVar(&o.networkOffset, "network-offset", def.Shaper.NetworkOffset, "Bytes stripped below the shaper (negative adds)")
	fs.IntVar(&o.overhead, "overhead", def.Shaper.Overhead, "Per-packet encapsulation bytes")

	// Workload configs
	fs.StringVar(&o.pattern, "arrival", def.Workload.Pattern, "Arrival pattern (constant, poisson)")
	fs.Float64Var(&o.pps, "pps", def.Workload.PacketsPerSecond, "Packet arrivals per second")
	fs.IntVar(&o.count, "packets", def.Workload.Count, "Number of packets")
	fs.Uint32Var(&o.sizeMin, "size-min", def.Workload.SizeMin, "Min packet size in bytes")
	fs.Uint32Var(&o.sizeMax, "size-max", def.Workload.SizeMax, "Max packet size in bytes")
}

// apply copies every flag the user set onto sc.
func (o *runOptions) apply(fs *pflag.FlagSet, sc *Scenario) {
	overrides := map[string]func(){
		"seed":           func() { sc.Seed = o.seed },
		"horizon":        func() { sc.Horizon = o.horizon },
		"device-mtu":     func() { sc.DeviceMTU = o.deviceMTU },
		"trace-level":    func() { sc.TraceLevel = trace.TraceLevel(o.traceLevel) },
		"rate":           func() { sc.Shaper.Rate = o.rate },
		"peak-rate":      func() { sc.Shaper.PeakRate = o.peakRate },
		"mtu":            func() { sc.Shaper.MTU = o.mtu },
		"burst":          func() { sc.Shaper.Burst = o.burst },
		"link-mode":      func() { sc.Shaper.LinkMode = qdisc.LinkMode(o.linkMode) },
		"max-size":       func() { sc.Shaper.MaxSize = o.maxSize },
		"network-offset": func() { sc.Shaper.NetworkOffset = o.networkOffset },
		"overhead":       func() { sc.Shaper.Overhead = o.overhead },
		"arrival":        func() { sc.Workload.Pattern = o.pattern },
		"pps":            func() { sc.Workload.PacketsPerSecond = o.pps },
		"packets":        func() { sc.Workload.Count = o.count },
		"size-min":       func() { sc.Workload.SizeMin = o.sizeMin },
		"size-max":       func() { sc.Workload.SizeMax = o.sizeMax },
	}
	fs.Visit(func(f *pflag.Flag) {
		if set, ok := overrides[f.Name]; ok {
			set()
			logrus.Debugf("flag --%s=%s overrides scenario", f.Name, f.Value)
		}
	})
}

// init sets up CLI flags and subcommands
func init() {
	runOpts.register(runCmd.Flags())

	wirelenCmd.Flags().StringVar(&wirelenOpts.linkMode, "link-mode", string(qdisc.LinkModeNone), "Link-layer cell mode (none, atm, ptm)")
	wirelenCmd.Flags().IntVar(&wirelenOpts.networkOffset, "network-offset", 0, "Bytes stripped below the shaper (negative adds)")
	wirelenCmd.Flags().IntVar(&wirelenOpts.overhead, "overhead", 0, "Per-packet encapsulation bytes")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(wirelenCmd)
}
