package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions int
	AdmittedCount  int
	RejectedCount  int
	ReleasedCount  int
	MeanHold       float64 // ticks
	MaxHold        int64   // ticks
	MaxBacklog     int
	RejectReasons  map[string]int // reason → count of dropped packets
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RejectReasons: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Admissions)
	for _, a := range st.Admissions {
		if a.Admitted {
			summary.AdmittedCount++
		} else {
			summary.RejectedCount++
			summary.RejectReasons[a.Reason]++
		}
		summary.MaxBacklog = max(summary.MaxBacklog, a.Backlog)
	}

	summary.ReleasedCount = len(st.Releases)
	if len(st.Releases) > 0 {
		var totalHold int64
		for _, r := range st.Releases {
			totalHold += r.Hold()
			if r.Hold() > summary.MaxHold {
				summary.MaxHold = r.Hold()
			}
		}
		summary.MeanHold = float64(totalHold) / float64(len(st.Releases))
	}

	return summary
}
