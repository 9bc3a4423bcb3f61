//go:build !heapdebug

package alloc

// debugChecks is false in regular builds, so the compiler drops the
// per-operation checker calls unless Options.CheckEveryOp asks for them.
const debugChecks = false
