package cmd

import "fmt"

// Process exit codes.
const (
	ExitSuccess = 0 // at least one server applied, or nothing needed doing
	ExitFailure = 1 // every target blocked, a precondition failed, or a write failed
	ExitUsage   = 2 // malformed flags or arguments
)

// exitCodeError carries a process exit code alongside the message shown
// to the user. A nil inner error means the run already reported itself
// and only the code matters.
type exitCodeError struct {
	code int
	err  error
}

func (e exitCodeError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitCodeError) ExitCode() int { return e.code }

func (e exitCodeError) Unwrap() error { return e.err }

// exitWithCode wraps err so Execute exits with the given code.
func exitWithCode(code int, err error) error {
	return exitCodeError{code: code, err: err}
}

// usageErrorf reports a malformed invocation.
func usageErrorf(format string, args ...any) error {
	return exitWithCode(ExitUsage, fmt.Errorf(format, args...))
}
