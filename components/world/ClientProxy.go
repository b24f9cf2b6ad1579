package world

import (
	"fmt"
	"net"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

// ClientProxy is the world-side proxy of one game client session, connected
// over TCP or KCP
type ClientProxy struct {
	*proto.WorldlinkConnection
	owner  *WorldService
	connID common.ConnectionID
}

func newClientProxy(owner *WorldService, connID common.ConnectionID, conn net.Conn) *ClientProxy {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetReadBuffer(consts.CLIENT_PROXY_READ_BUFFER_SIZE)
		tcpConn.SetWriteBuffer(consts.CLIENT_PROXY_WRITE_BUFFER_SIZE)
		tcpConn.SetNoDelay(consts.CLIENT_PROXY_SET_TCP_NO_DELAY)
	}
	return &ClientProxy{
		WorldlinkConnection: proto.NewWorldlinkConnection(conn),
		owner:               owner,
		connID:              connID,
	}
}

func (cp *ClientProxy) String() string {
	return fmt.Sprintf("ClientProxy<%d|%s>", cp.connID, cp.RemoteAddr())
}

// serve runs on the accept goroutine, pushing received packets to the
// service routine until the connection breaks
func (cp *ClientProxy) serve() {
	defer func() {
		cp.Close()
		cp.owner.enqueueClientPacket(cp, proto.MT_INVALID, nil) // nil packet means disconnect
		if err := recover(); err != nil {
			wlog.TraceError("%s: serve paniced: %v", cp, err)
		}
	}()

	for {
		packet, err := cp.RecvPacket()
		if err != nil {
			if consts.DEBUG_CLIENTS {
				wlog.Debugf("%s: recv error: %s", cp, err)
			}
			break
		}
		msgtype := proto.MsgType(packet.ReadUint16())
		cp.owner.enqueueClientPacket(cp, msgtype, packet)
	}
}
