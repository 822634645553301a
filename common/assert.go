package common

import "fmt"

// Assert panics with msg (formatted with args) when cond is false. It is
// used to check invariants that would otherwise indicate a bug in a
// caller rather than an ordinary runtime error: popcount(bitmap) ==
// num_records, pin_count never negative, and so on.
func Assert(cond bool, msg string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(msg, args...))
	}
}
