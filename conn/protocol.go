package conn

import "pgnative/wire"

// Phase tags the protocol engine's current position in the connection
// lifecycle, mirroring the teacher's Connection.Handle loop (dial,
// startup, query loop) generalized to the client side and split out
// into named states so Execute/Fetch/Cursor/Copy/Transaction can each
// assert the phase they require before sending a message.
type Phase int

const (
	PhaseHandshake Phase = iota
	PhaseAuthenticating
	PhaseIdle
	PhaseInTransaction
	PhaseInFailedTransaction
	PhaseBusy
	PhaseCopyIn
	PhaseCopyOut
	PhaseCopyBoth
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseHandshake:
		return "handshake"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseIdle:
		return "idle"
	case PhaseInTransaction:
		return "in-transaction"
	case PhaseInFailedTransaction:
		return "in-failed-transaction"
	case PhaseBusy:
		return "busy"
	case PhaseCopyIn:
		return "copy-in"
	case PhaseCopyOut:
		return "copy-out"
	case PhaseCopyBoth:
		return "copy-both"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// phaseFromTxStatus maps a ReadyForQuery transaction-status byte to the
// idle/in-transaction/in-failed-transaction resting phases. Any other
// phase (busy, copy*) is transient and never settles from this alone.
func phaseFromTxStatus(status byte) Phase {
	switch status {
	case wire.TxIdle:
		return PhaseIdle
	case wire.TxInTx:
		return PhaseInTransaction
	case wire.TxFailed:
		return PhaseInFailedTransaction
	default:
		return PhaseIdle
	}
}
