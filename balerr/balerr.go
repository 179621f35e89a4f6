// Package balerr implements the error taxonomy used throughout the
// balancer: precondition violations and communication failures are fatal,
// while constraint infeasibility (a box that cannot be cut to fit a band)
// is absorbed by the caller and only reported in statistics.
package balerr

import "fmt"

// Flag characterizes an error so callers can decide whether to absorb it
// or propagate it as fatal, without string-matching error text.
type Flag uint

const (
	// FlagFatal marks precondition violations and transport failures.
	// The balancer never continues past a fatal error.
	FlagFatal Flag = 1 << iota

	// FlagInfeasible marks a constraint the breaker or redistributor
	// could not satisfy (e.g. no cut lands inside [low,high]); the
	// caller is expected to fall back to another strategy or accept
	// the residual imbalance.
	FlagInfeasible

	// FlagLogic marks an invariant violation that indicates a
	// programming bug (e.g. a duplicate box id on a range insert).
	// Always combined with FlagFatal.
	FlagLogic
)

// Location identifies where an error was raised.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is the error type returned by exported balancer functions that can
// fail for a reason worth categorizing.
type Error struct {
	Flags Flag
	Msg   string
	Loc   Location
	Err   error // wrapped cause, if any
}

func (e *Error) Error() string {
	loc := e.Loc.String()
	if loc != "" {
		loc += ": "
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s: %v", loc, e.Msg, e.Err)
	}
	return loc + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether flag is set on e.
func (e *Error) Is(flag Flag) bool { return e.Flags&flag != 0 }

// Fatal constructs a fatal error (precondition violation or transport
// failure).
func Fatal(msg string, args ...interface{}) *Error {
	return &Error{Flags: FlagFatal, Msg: fmt.Sprintf(msg, args...)}
}

// Infeasible constructs a non-fatal, absorbable constraint-infeasibility
// error.
func Infeasible(msg string, args ...interface{}) *Error {
	return &Error{Flags: FlagInfeasible, Msg: fmt.Sprintf(msg, args...)}
}

// LogicBug constructs a fatal, logic-bug error for invariant violations.
func LogicBug(msg string, args ...interface{}) *Error {
	return &Error{Flags: FlagFatal | FlagLogic, Msg: fmt.Sprintf(msg, args...)}
}

// Wrap attaches a cause to a new error carrying flags.
func Wrap(flags Flag, cause error, msg string, args ...interface{}) *Error {
	return &Error{Flags: flags, Msg: fmt.Sprintf(msg, args...), Err: cause}
}

// IsInfeasible reports whether err (or any error it wraps) is a
// non-fatal constraint-infeasibility error.
func IsInfeasible(err error) bool {
	var e *Error
	if as(err, &e) {
		return e.Is(FlagInfeasible) && !e.Is(FlagFatal)
	}
	return false
}

// as is a tiny local errors.As, kept dependency-free.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
