//go:build !windows
// +build !windows

package binutil

import (
	"os"

	"github.com/sevlyar/go-daemon"

	"github.com/irikarra/worldlink/engine/wlog"
)

// Daemonize forks the process into background
func Daemonize() *daemon.Context {
	context := new(daemon.Context)
	child, err := context.Reborn()

	if err != nil {
		// daemonize failed
		wlog.Panicf("daemonize failed: %v", err)
	}

	if child != nil {
		wlog.Infof("run in daemon mode")
		os.Exit(0)
		return nil
	}
	return context
}
