//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals lists the signals that trigger a graceful shutdown.
// SIGTERM is used by most process managers to request shutdown.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
