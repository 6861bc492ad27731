package scheduler

import "context"

// Job is a unit of work the worker pool executes.
type Job interface {
	// Execute runs the job. Context carries the job timeout and shutdown
	// cancellation.
	Execute(ctx context.Context) error

	// ItemID identifies the item the job operates on, for logging.
	ItemID() string

	// Description is a human-readable label for logging.
	Description() string
}
