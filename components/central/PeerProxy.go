package main

import (
	"fmt"
	"net"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

// peerProxy is the central-side proxy of a connected peer process
type peerProxy struct {
	*proto.WorldlinkConnection
	owner      *CentralService
	connID     common.ConnectionID
	peer       *proto.PeerInfo // nil until registered, owned by the service routine
	characters common.CharacterIDSet
}

func newPeerProxy(owner *CentralService, connID common.ConnectionID, conn net.Conn) *peerProxy {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetReadBuffer(consts.PEER_PROXY_READ_BUFFER_SIZE)
		tcpConn.SetWriteBuffer(consts.PEER_PROXY_WRITE_BUFFER_SIZE)
	}
	return &peerProxy{
		WorldlinkConnection: proto.NewWorldlinkConnection(conn),
		owner:               owner,
		connID:              connID,
		characters:          common.CharacterIDSet{},
	}
}

func (pp *peerProxy) String() string {
	if pp.peer != nil {
		return fmt.Sprintf("peerProxy<%d|%s>", pp.connID, pp.peer)
	}
	return fmt.Sprintf("peerProxy<%d|%s>", pp.connID, pp.RemoteAddr())
}

// serve runs on the accept goroutine, pushing received packets to the
// service routine until the connection breaks
func (pp *peerProxy) serve() {
	defer func() {
		pp.Close()
		pp.owner.enqueuePacket(pp, proto.MT_INVALID, nil) // nil packet means disconnect
		if err := recover(); err != nil {
			wlog.TraceError("%s: serve paniced: %v", pp, err)
		}
	}()

	for {
		packet, err := pp.RecvPacket()
		if err != nil {
			wlog.Debugf("%s: recv error: %s", pp, err)
			break
		}
		msgtype := proto.MsgType(packet.ReadUint16())
		pp.owner.enqueuePacket(pp, msgtype, packet)
	}
}
