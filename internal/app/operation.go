package app

import "time"

// Operation tracks one CLI command for the log. Status starts as "running"
// and is settled by Finish.
type Operation struct {
	Name      string
	Args      string
	Status    string // "running", "success" or "error"
	StartedAt time.Time
	Elapsed   time.Duration
}

// NewOperation starts tracking a command.
func NewOperation(name, args string, now time.Time) *Operation {
	return &Operation{
		Name:      name,
		Args:      args,
		Status:    "running",
		StartedAt: now,
	}
}

// Finish records the outcome of the command. A nil err means success.
func (op *Operation) Finish(err error, now time.Time) {
	op.Status = "success"
	if err != nil {
		op.Status = "error"
	}
	op.Elapsed = now.Sub(op.StartedAt)
}

// Done reports whether Finish has been called.
func (op *Operation) Done() bool {
	return op.Status != "running"
}
