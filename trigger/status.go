package trigger

import "fmt"

/* Status is the classification of a dispatch attempt
 * Success iff the remote answered with a 2xx status
 */
type Status int

const (
	Success Status = iota + 1
	Failed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "success":
		return Success
	default:
		return Failed
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s != Success && s != Failed {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}
