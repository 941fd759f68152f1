package usecase

// Phase is the lifecycle tag of an asynchronous operation as surfaced to a
// frontend.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

// State is a tagged operation result. Exactly one of the success and error
// payloads is meaningful, selected by Phase.
type State struct {
	Phase   Phase
	Message string
	Err     error
}

// Idle is the initial state before any operation ran.
func Idle() State { return State{Phase: PhaseIdle} }

// Loading marks an operation in flight.
func Loading() State { return State{Phase: PhaseLoading} }

// Success carries a human-readable completion message.
func Success(message string) State {
	return State{Phase: PhaseSuccess, Message: message}
}

// Failure carries the operation error.
func Failure(err error) State {
	return State{Phase: PhaseError, Err: err}
}
