package netutil

import (
	"os"
	"time"

	kcp "github.com/xtaci/kcp-go"

	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/wlog"
)

// KCPServerDelegate is the implementations that a KCP server should provide
type KCPServerDelegate interface {
	ServeKCPConnection(*kcp.UDPSession)
}

// ServeKCPForever serves on specified address as KCP server, for ever ...
func ServeKCPForever(listenAddr string, delegate KCPServerDelegate) {
	for {
		err := serveKCPForeverOnce(listenAddr, delegate)
		wlog.Errorf("server@%s failed with error: %v, will restart after %s", listenAddr, err, restartTCPServerInterval)
		if consts.DEBUG_MODE {
			os.Exit(2)
		}
		time.Sleep(restartTCPServerInterval)
	}
}

func serveKCPForeverOnce(listenAddr string, delegate KCPServerDelegate) error {
	defer func() {
		if err := recover(); err != nil {
			wlog.TraceError("serveKCPForeverOnce: paniced with error %s", err)
		}
	}()

	return serveKCP(listenAddr, delegate)
}

func serveKCP(listenAddr string, delegate KCPServerDelegate) error {
	kcpListener, err := kcp.ListenWithOptions(listenAddr, nil, 10, 3)
	if err != nil {
		return err
	}

	wlog.Infof("Listening on KCP: %s ...", listenAddr)
	defer kcpListener.Close()

	for {
		conn, err := kcpListener.AcceptKCP()
		if err != nil {
			if IsTemporaryNetError(err) {
				continue
			} else {
				return err
			}
		}

		go delegate.ServeKCPConnection(conn)
	}
}

// SetupKCPConn tunes the KCP session to turbo mode
func SetupKCPConn(conn *kcp.UDPSession) {
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 10, 2, 1)
}
