package netutil

import (
	"net"
	"os"
	"time"

	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/wlog"
)

const (
	restartTCPServerInterval = 3 * time.Second
)

// TCPServerDelegate is the implementations that a TCP server should provide
type TCPServerDelegate interface {
	ServeTCPConnection(net.Conn)
}

// ServeTCPForever serves on specified address as TCP server, for ever ...
func ServeTCPForever(listenAddr string, delegate TCPServerDelegate) {
	for {
		err := serveTCPForeverOnce(listenAddr, delegate)
		wlog.Errorf("server@%s failed with error: %v, will restart after %s", listenAddr, err, restartTCPServerInterval)
		if consts.DEBUG_MODE {
			os.Exit(2)
		}
		time.Sleep(restartTCPServerInterval)
	}
}

func serveTCPForeverOnce(listenAddr string, delegate TCPServerDelegate) error {
	defer func() {
		if err := recover(); err != nil {
			wlog.TraceError("serveTCPForeverOnce: paniced with error %s", err)
		}
	}()

	return ServeTCP(listenAddr, delegate)
}

// ServeTCP serves on specified address as TCP server
func ServeTCP(listenAddr string, delegate TCPServerDelegate) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	wlog.Infof("Listening on TCP: %s ...", listenAddr)
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if IsTemporaryNetError(err) {
				continue
			} else {
				return err
			}
		}

		wlog.Infof("Connection from: %s", conn.RemoteAddr())
		go delegate.ServeTCPConnection(conn)
	}
}
