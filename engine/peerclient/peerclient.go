package peerclient

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/netutil"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
	"github.com/irikarra/worldlink/engine/wutils"
)

const _LOOP_DELAY_ON_CLIENT_ERROR = time.Second

// Delegate is implemented by services using a ConnMgr. Handle* calls run on
// the recv goroutine and must only enqueue work to the service loop.
type Delegate interface {
	OnClientConnect(isReconnect bool)
	HandleClientPacket(msgtype proto.MsgType, packet *netutil.Packet)
	HandleClientDisconnect()
}

// AddrProvider resolves the current target address, ok=false when unknown yet
type AddrProvider func() (host string, port int, ok bool)

// ConnMgr keeps one outgoing connection to a peer process alive, reconnecting
// forever on failure
type ConnMgr struct {
	name     string
	getAddr  AddrProvider
	delegate Delegate

	// conn is written by the recv goroutine and read by the service goroutine
	mutex       sync.Mutex
	conn        *proto.WorldlinkConnection
	isReconnect bool
}

// NewConnMgr creates a connection manager towards the named peer
func NewConnMgr(name string, getAddr AddrProvider, delegate Delegate) *ConnMgr {
	return &ConnMgr{
		name:     name,
		getAddr:  getAddr,
		delegate: delegate,
	}
}

func (cm *ConnMgr) String() string {
	return fmt.Sprintf("ConnMgr<%s>", cm.name)
}

// GetConn returns the current connection, nil while disconnected
func (cm *ConnMgr) GetConn() *proto.WorldlinkConnection {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	return cm.conn
}

func (cm *ConnMgr) setConn(conn *proto.WorldlinkConnection) {
	cm.mutex.Lock()
	cm.conn = conn
	cm.mutex.Unlock()
}

// Connect establishes the connection and starts the recv routine
func (cm *ConnMgr) Connect() {
	cm.assureConnected()
	go wutils.RepeatUntilPanicless(cm.serve)
}

func (cm *ConnMgr) assureConnected() {
	for cm.GetConn() == nil {
		err := cm.connect()
		if err != nil {
			wlog.Errorf("%s: connect failed: %s", cm, err)
			time.Sleep(_LOOP_DELAY_ON_CLIENT_ERROR)
			continue
		}
		cm.delegate.OnClientConnect(cm.isReconnect)
		cm.isReconnect = true
		wlog.Infof("%s: connected: %s", cm, cm.GetConn())
	}
}

func (cm *ConnMgr) connect() error {
	host, port, ok := cm.getAddr()
	if !ok {
		return fmt.Errorf("%s: target address unknown", cm)
	}

	conn, err := netutil.ConnectTCP(host, port)
	if err != nil {
		return err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetReadBuffer(consts.CENTRAL_CLIENT_READ_BUFFER_SIZE)
		tcpConn.SetWriteBuffer(consts.CENTRAL_CLIENT_WRITE_BUFFER_SIZE)
	}
	cm.setConn(proto.NewWorldlinkConnection(conn))
	return nil
}

// serve receives packets from the peer and hands them to the delegate
func (cm *ConnMgr) serve() {
	for {
		cm.assureConnected()

		conn := cm.GetConn()
		packet, err := conn.RecvPacket()
		if err != nil {
			wlog.Errorf("%s: recv error: %s", cm, err)
			conn.Close()
			cm.setConn(nil)
			cm.delegate.HandleClientDisconnect()
			time.Sleep(_LOOP_DELAY_ON_CLIENT_ERROR)
			continue
		}

		msgtype := proto.MsgType(packet.ReadUint16())
		if consts.DEBUG_PACKETS {
			wlog.Debugf("%s: recv packet: msgtype=%v payload=%v", cm, msgtype, packet.Payload())
		}
		cm.delegate.HandleClientPacket(msgtype, packet)
	}
}
