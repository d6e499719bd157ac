package engine

import "errors"

// Error kinds raised by the engine. Callers classify with errors.Is; the
// returned errors carry extra detail wrapped around these sentinels.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidState       = errors.New("invalid state")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotFound           = errors.New("not found")
)

// Precondition reasons surfaced to the transport layer.
const (
	ReasonAnswerRequired  = "answer required"
	ReasonNotLastQuestion = "submit is only allowed on the last question"
)
