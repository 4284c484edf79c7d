package conn

import (
	"testing"

	"pgnative/wire"
)

func TestPhaseFromTxStatus(t *testing.T) {
	tests := []struct {
		status byte
		want   Phase
	}{
		{wire.TxIdle, PhaseIdle},
		{wire.TxInTx, PhaseInTransaction},
		{wire.TxFailed, PhaseInFailedTransaction},
	}
	for _, tt := range tests {
		if got := phaseFromTxStatus(tt.status); got != tt.want {
			t.Fatalf("phaseFromTxStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseIdle.String() != "idle" {
		t.Fatalf("PhaseIdle.String() = %q, want idle", PhaseIdle.String())
	}
	if PhaseCopyIn.String() != "copy-in" {
		t.Fatalf("PhaseCopyIn.String() = %q, want copy-in", PhaseCopyIn.String())
	}
}
