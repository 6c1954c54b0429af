package audit

// OutcomeState tags one analyzer's terminal state.
type OutcomeState int

const (
	// Skipped means the orchestrator never ran the analyzer; its section
	// is absent from the result by design.
	Skipped OutcomeState = iota
	// Completed means the analyzer produced a result.
	Completed
	// Failed means the analyzer returned an error; the section is absent
	// and the reason is logged.
	Failed
)

func (s OutcomeState) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is one analyzer's tagged terminal state. Result is non-nil only
// when State is Completed; Err is non-nil only when State is Failed.
type Outcome[T any] struct {
	State  OutcomeState
	Result *T
	Err    error
}

// SkippedOutcome marks an analyzer the orchestrator never ran.
func SkippedOutcome[T any]() Outcome[T] { return Outcome[T]{State: Skipped} }

// CompletedOutcome wraps a produced result.
func CompletedOutcome[T any](result *T) Outcome[T] {
	return Outcome[T]{State: Completed, Result: result}
}

// FailedOutcome wraps an analyzer error.
func FailedOutcome[T any](err error) Outcome[T] { return Outcome[T]{State: Failed, Err: err} }

// value returns the result for merging: the section pointer when
// completed, nil otherwise.
func (o Outcome[T]) value() *T {
	if o.State == Completed {
		return o.Result
	}
	return nil
}
