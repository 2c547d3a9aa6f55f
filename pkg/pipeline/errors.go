package pipeline

import (
	"errors"
	"fmt"
)

// Class fixes how a stage failure is treated and which exit code it maps to.
type Class int

const (
	ClassFatal Class = iota
	ClassFatalPrecondition
	ClassCriticalVerification
	ClassBestEffort
	ClassTransient
)

func (c Class) String() string {
	switch c {
	case ClassFatalPrecondition:
		return "fatal-precondition"
	case ClassCriticalVerification:
		return "critical-verification"
	case ClassBestEffort:
		return "best-effort"
	case ClassTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Status is the outcome tag of a single stage.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusFatal   Status = "fatal"
)

// StageError is returned by the driver for the stage that aborted the run.
type StageError struct {
	Stage string
	Class Class
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Exit codes of the deploy command.
const (
	ExitOK                   = 0
	ExitFailure              = 1
	ExitPrecondition         = 2
	ExitCriticalVerification = 3
)

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var se *StageError
	if !errors.As(err, &se) {
		return ExitFailure
	}
	switch se.Class {
	case ClassFatalPrecondition:
		return ExitPrecondition
	case ClassCriticalVerification:
		return ExitCriticalVerification
	default:
		return ExitFailure
	}
}
