// Package eventloop provides the single-threaded reactive executor the
// bridge runs its guest on.
//
// The guest has one logical thread. Everything that re-enters it - the
// initial entry call, timer fires, host callback trampolines - is expressed
// as a task posted to one Loop, whose Run goroutine executes tasks strictly
// one at a time. A timer fire is therefore just a message; no locking is
// needed around guest state because only the loop goroutine touches it.
package eventloop
