//go:build !windows
// +build !windows

package main

import (
	"syscall"
)

const (
	// BinaryExtension extension used on unix
	BinaryExtension = ""
	// StopSignal syscall used to stop server processes
	StopSignal = syscall.SIGTERM
)
