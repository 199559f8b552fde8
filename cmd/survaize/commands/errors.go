package commands

// actionError carries the inline message an action produced while keeping
// the underlying error reachable through errors.As.
type actionError struct {
	msg string
	err error
}

func (e *actionError) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg
}

func (e *actionError) Unwrap() error { return e.err }
