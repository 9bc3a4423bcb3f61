//go:build heapdebug

package alloc

// debugChecks forces the consistency checker around every mutating call.
const debugChecks = true
