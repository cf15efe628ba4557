package errors

import (
	"fmt"
)

var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrConversion      = fmt.Errorf("conversion failed")
	ErrRoiModelMissing = fmt.Errorf("roi model missing")
	ErrSessionClosed   = fmt.Errorf("session closed")
)

// OperationError is the structured failure published by the service layer.
// Op labels the failing operation, Details optionally carries the serialized input.
type OperationError struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// NewOperationError labels err with the operation that produced it.
func NewOperationError(op string, err error, details string) *OperationError {
	msg := op
	if err != nil {
		msg = fmt.Sprintf("%s | %s", op, err.Error())
	}
	return &OperationError{
		Op:      op,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

func (o *OperationError) Error() string {
	return o.Message
}

func (o *OperationError) Unwrap() error {
	return o.Err
}
