// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tflog provides the minimal leveled-callback logging shape used by
// package tinyframe's observability hook (WithLogger). It intentionally does
// not depend on a structured-logging framework: nothing in the example pack
// this module is grounded on imports one for a leaf library, and the
// callback shape here is a direct generalization of
// runZeroInc-sockstats/pkg/exporter's errorLoggingCallback func(error)
// parameter to the handful of distinct events TinyFrame can report (wire
// errors, listener evictions, parser resyncs).
package tflog

import (
	"fmt"
	"io"
	"sync"
)

// Level orders log events by severity, matching the three event classes
// tinyframe actually emits.
type Level uint8

const (
	// Debug covers routine lifecycle events: id and type listener registration.
	Debug Level = iota
	// Info covers normal-but-notable events: a listener eviction by timeout.
	Info
	// Error covers wire errors: checksum mismatch, oversize drop, parser timeout.
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Func is the callback shape accepted by tinyframe.WithLogger. kv is an
// alternating key/value list, following the level-plus-fields shape common
// to structured loggers without pulling one in as a dependency.
type Func func(level Level, msg string, kv ...any)

// Discard is a Func that drops every event; it is the default when no
// logger is configured.
func Discard(Level, string, ...any) {}

// NewWriter returns a Func that formats each event as one line written to w,
// guarded by a mutex since tinyframe's own call sites make no concurrency
// guarantee about the logger (wire errors can be reported from Accept while
// an unrelated goroutine reads Stats).
func NewWriter(w io.Writer) Func {
	var mu sync.Mutex
	return func(level Level, msg string, kv ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s: %s", level, msg)
		for i := 0; i+1 < len(kv); i += 2 {
			fmt.Fprintf(w, " %v=%v", kv[i], kv[i+1])
		}
		fmt.Fprintln(w)
	}
}
