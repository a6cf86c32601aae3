package tasks

import "fmt"

// PanicError wraps a panic raised inside a job.
type PanicError struct {
	Job   string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("tasks: job %s panicked: %v", e.Job, e.Value)
}
