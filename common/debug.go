// this code is adapted from the RuntimeStack helper in
// github.com/ryogrid/SamehadaDB's common/assert.go
//
// REFERENCES
//   - https://pkg.go.dev/runtime#Stack
//   - https://stackoverflow.com/questions/19094099/how-to-dump-goroutine-stacktraces
package common

import (
	"runtime"

	"github.com/devlights/gomy/output"
)

// DumpGoroutines writes every goroutine's stack trace to stdout. It is
// wired to the shell driver's SIGQUIT handler so a wedged pool latch or
// a leaked pin can be diagnosed without attaching a debugger.
func DumpGoroutines() {
	getStack := func(all bool) []byte {
		buf := make([]byte, 1024)
		for {
			n := runtime.Stack(buf, all)
			if n < len(buf) {
				return buf[:n]
			}
			buf = make([]byte, 2*len(buf))
		}
	}

	output.Stdoutl("=== goroutine dump ===", string(getStack(true)))
}
