// Package logging defines the leveled logging seam the core packages take
// instead of importing a concrete logging framework directly.
package logging

import "k8s.io/klog/v2"

// Logger is the leveled logging contract internal/executor and
// internal/remote depend on. The cmd package wires a concrete
// implementation; the core never imports klog itself.
type Logger interface {
	Info(msg string, kv ...any)
	Error(err error, msg string, kv ...any)
}

// noop discards every message. Used as the default when a caller doesn't
// wire a Logger, so core packages never need a nil check.
type noop struct{}

func (noop) Info(string, ...any)         {}
func (noop) Error(error, string, ...any) {}

// NoOp returns a Logger that discards everything it's given.
func NoOp() Logger { return noop{} }

// KlogLogger adapts k8s.io/klog/v2 to the Logger interface, passing kv
// pairs straight through to klog's structured InfoS/ErrorS calls.
type KlogLogger struct{}

// NewKlog returns a Logger backed by klog's global state. The cmd package
// does not register klog's flags (InitFlags), so klog's default verbosity
// and output apply.
func NewKlog() KlogLogger { return KlogLogger{} }

func (KlogLogger) Info(msg string, kv ...any) {
	if len(kv) == 0 {
		klog.Info(msg)
		return
	}
	klog.InfoS(msg, kv...)
}

func (KlogLogger) Error(err error, msg string, kv ...any) {
	klog.ErrorS(err, msg, kv...)
}
