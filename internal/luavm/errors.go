package luavm

import "errors"

// Sentinel errors for the VM's closed fault taxonomy. Every abort the
// fetch-execute loop or the stack API can raise wraps one of these, so
// callers can classify failures with errors.Is without string matching.
var (
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrInvalidIndex    = errors.New("invalid stack index")
	ErrArithmetic      = errors.New("attempt to perform arithmetic on an invalid value")
	ErrComparison      = errors.New("attempt to compare incompatible values")
	ErrConcatenate     = errors.New("attempt to concatenate an invalid value")
	ErrLength          = errors.New("attempt to get length of an invalid value")
	ErrNotATable       = errors.New("attempt to index a non-table value")
	ErrNotAFunction    = errors.New("attempt to call a non-function value")
	ErrInvalidTableKey = errors.New("table index is nil or NaN")
)
