package kbproto

import "fmt"

// Status is the sum type every protocol operation reduces to. It implements
// error so callers can return it directly, but StatusSuccess is not an error
// and should be checked for explicitly before treating a Status as a failure.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotImplemented
	StatusUsageError
	StatusIoError
	StatusFlashError
	StatusCrcError
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotImplemented:
		return "not implemented"
	case StatusUsageError:
		return "usage error"
	case StatusIoError:
		return "io error"
	case StatusFlashError:
		return "flash error"
	case StatusCrcError:
		return "crc error"
	case StatusFail:
		return "fail"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Error satisfies the error interface. Callers that only care whether an
// operation succeeded should compare against StatusSuccess rather than
// treating every Status as an error.
func (s Status) Error() string {
	return s.String()
}

// OK reports whether the status represents success.
func (s Status) OK() bool {
	return s == StatusSuccess
}

// OperationError wraps a Status with the operation that produced it, giving
// callers a message with context without losing errors.Is compatibility
// against the underlying Status.
type OperationError struct {
	Operation string
	Status    Status
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Status)
}

func (e *OperationError) Unwrap() error {
	return e.Status
}
