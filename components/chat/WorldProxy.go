package main

import (
	"fmt"
	"net"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

// worldProxy is the chat-side proxy of a connected world process
type worldProxy struct {
	*proto.WorldlinkConnection
	owner      *ChatService
	connID     common.ConnectionID
	characters common.CharacterIDSet // characters announced over this connection
}

func newWorldProxy(owner *ChatService, connID common.ConnectionID, conn net.Conn) *worldProxy {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetReadBuffer(consts.PEER_PROXY_READ_BUFFER_SIZE)
		tcpConn.SetWriteBuffer(consts.PEER_PROXY_WRITE_BUFFER_SIZE)
	}
	return &worldProxy{
		WorldlinkConnection: proto.NewWorldlinkConnection(conn),
		owner:               owner,
		connID:              connID,
		characters:          common.CharacterIDSet{},
	}
}

func (wp *worldProxy) String() string {
	return fmt.Sprintf("worldProxy<%d|%s>", wp.connID, wp.RemoteAddr())
}

// serve runs on the accept goroutine, pushing received packets to the
// service routine until the connection breaks
func (wp *worldProxy) serve() {
	defer func() {
		wp.Close()
		wp.owner.enqueuePacket(wp, proto.MT_INVALID, nil) // nil packet means disconnect
		if err := recover(); err != nil {
			wlog.TraceError("%s: serve paniced: %v", wp, err)
		}
	}()

	for {
		packet, err := wp.RecvPacket()
		if err != nil {
			wlog.Debugf("%s: recv error: %s", wp, err)
			break
		}
		msgtype := proto.MsgType(packet.ReadUint16())
		wp.owner.enqueuePacket(wp, msgtype, packet)
	}
}
