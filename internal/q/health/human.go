package health

import "errors"

type HumanErr struct {
	HumanMessage string
	HealthErr
}

// NewHumanErr returns a HumanErr, which has both a message suitable for end-users and a message suitable for logging.
func NewHumanErr(humanMsg string, msg string, args ...any) error {
	return &HumanErr{HumanMessage: humanMsg, HealthErr: HealthErr{Message: msg, attrs: args}}
}

// Error satisfies the error interface.
//
// Only the human message will appear here (unless its empty). The logging-suitable message can be accessed via e.HealthErr.Error().
func (e *HumanErr) Error() string {
	return e.HumanMessage
}

// WrapHuman is like NewHumanErr, but wraps `wrapped`, so errors.Is and errors.As see through to it.
func WrapHuman(humanMsg string, msg string, wrapped error, args ...any) error {
	return &HumanErr{HumanMessage: humanMsg, HealthErr: HealthErr{Message: msg, wrapped: wrapped, attrs: args}}
}

// HumanMessage returns the human message of the first *HumanErr in err's chain, or err.Error() if there is none.
func HumanMessage(err error) string {
	if err == nil {
		return ""
	}
	var h *HumanErr
	if errors.As(err, &h) && h.HumanMessage != "" {
		return h.HumanMessage
	}
	return err.Error()
}
