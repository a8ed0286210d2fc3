// Package testutil holds test doubles shared by lockstep's package tests:
// a recording Notifier and a scripted process.Runner.
package testutil
