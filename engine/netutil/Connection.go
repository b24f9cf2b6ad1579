package netutil

import (
	"net"

	"github.com/xiaonanln/netconnutil"
)

// Connection is the connection abstraction, which connections of PacketConnection should implement
type Connection interface {
	netconnutil.FlushableConn
}

// NetConn converts a net.Conn to a Connection with noop Flush
type NetConn struct {
	net.Conn
}

// Flush flushes the connection, does nothing for NetConn
func (c NetConn) Flush() error {
	return nil
}
