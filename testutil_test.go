package main

import "testing"

// expectEqual reports a test error when actual differs from expect. The
// type parameter covers the comparable values this suite asserts on
// (strings, ints, method/status/level enums).
func expectEqual[T comparable](t *testing.T, expect, actual T) {
	t.Helper()
	if expect != actual {
		t.Errorf("got %v, want %v", actual, expect)
	}
}

// expectErr asserts that got is the specific error value want, the
// error-carrying counterpart to expectEqual for the classified ParseError
// values parser.go returns.
func expectErr(t *testing.T, want, got error) {
	t.Helper()
	if want != got {
		t.Errorf("got err %v, want %v", got, want)
	}
}
