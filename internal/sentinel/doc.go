// Package sentinel provides a string-backed error type that can be declared
// as a const. lockstep uses it for every exported sentinel so callers can
// match with errors.Is through wrapped chains without the value being
// reassignable at runtime.
package sentinel
