//go:build windows
// +build windows

package binutil

import (
	"github.com/irikarra/worldlink/engine/wlog"
)

type nopRelease struct{}

func (_ nopRelease) Release() error {
	return nil
}

// Daemonize is not supported on Windows
func Daemonize() nopRelease {
	wlog.Errorf("daemon mode is not supported on Windows")
	return nopRelease{}
}
