// Package clock provides a tiny time abstraction.
//
// Code generation and store timestamps depend on the Clocker interface
// instead of calling time.Now() directly, so tests can freeze time with
// FixedClocker and assert exact codes.
package clock
