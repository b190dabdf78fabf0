package trace

import (
	"testing"
)

func TestSimulationTrace_RecordAdmission_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceLevelDecisions)

	// WHEN an admission record is recorded
	st.RecordAdmission(AdmissionRecord{
		PacketID: 1,
		Clock:    1000,
		Size:     500,
		Admitted: true,
		Backlog:  1,
	})

	// THEN the trace contains one admission record with correct data
	if len(st.Admissions) != 1 {
		t.Fatalf("expected 1 admission, got %d", len(st.Admissions))
	}
	if st.Admissions[0].PacketID != 1 {
		t.Errorf("expected packet ID 1, got %d", st.Admissions[0].PacketID)
	}
	if !st.Admissions[0].Admitted {
		t.Error("expected admitted=true")
	}
}

func TestSimulationTrace_RecordRelease_AppendsRecord(t *testing.T) {
	st := NewSimulationTrace(TraceLevelDecisions)

	st.RecordRelease(ReleaseRecord{PacketID: 2, Clock: 5000, Size: 40, ArrivalTime: 1000})

	if len(st.Releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(st.Releases))
	}
	if got := st.Releases[0].Hold(); got != 4000 {
		t.Errorf("expected hold 4000, got %d", got)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true},
		{"verbose", false},
		{"DECISIONS", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestTraceLevel_Enabled(t *testing.T) {
	if TraceLevelNone.Enabled() || TraceLevel("").Enabled() {
		t.Error("none and empty levels must not record")
	}
	if !TraceLevelDecisions.Enabled() {
		t.Error("decisions level must record")
	}
}
