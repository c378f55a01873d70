package amp_test

import (
	"testing"

	"github.com/kiln-ml/kiln/internal/amp"
)

// TestNewTrainStepInfo tests construction with and without a verdict.
func TestNewTrainStepInfo(t *testing.T) {
	finite := true

	info, err := amp.NewTrainStepInfo(&finite, 2, 17)
	if err != nil {
		t.Fatalf("NewTrainStepInfo failed: %v", err)
	}
	if info.Epoch != 2 || info.Step != 17 {
		t.Errorf("counters: got epoch=%d step=%d, want 2/17", info.Epoch, info.Step)
	}
	if !info.Finite() {
		t.Error("Finite should report true for a finite verdict")
	}

	info, err = amp.NewTrainStepInfo(nil, 0, 0)
	if err != nil {
		t.Fatalf("NewTrainStepInfo without verdict failed: %v", err)
	}
	if info.AllFinite != nil {
		t.Error("AllFinite should stay nil when no check ran")
	}
}

// TestNewTrainStepInfoRejectsNegative tests counter validation.
func TestNewTrainStepInfoRejectsNegative(t *testing.T) {
	if _, err := amp.NewTrainStepInfo(nil, -1, 0); err == nil {
		t.Error("negative epoch should fail")
	}
	if _, err := amp.NewTrainStepInfo(nil, 0, -3); err == nil {
		t.Error("negative step should fail")
	}
}

// TestTrainStepInfoVerdicts tests the nil-safe verdict helpers.
func TestTrainStepInfoVerdicts(t *testing.T) {
	finite := true
	overflow := false

	tests := []struct {
		name       string
		info       *amp.TrainStepInfo
		finite     bool
		overflowed bool
	}{
		{"nil record", nil, false, false},
		{"no verdict", &amp.TrainStepInfo{}, false, false},
		{"finite", &amp.TrainStepInfo{AllFinite: &finite}, true, false},
		{"overflowed", &amp.TrainStepInfo{AllFinite: &overflow}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Finite(); got != tt.finite {
				t.Errorf("Finite: got %v, want %v", got, tt.finite)
			}
			if got := tt.info.Overflowed(); got != tt.overflowed {
				t.Errorf("Overflowed: got %v, want %v", got, tt.overflowed)
			}
		})
	}
}
