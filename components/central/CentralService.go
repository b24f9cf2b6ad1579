package main

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	timer "github.com/xiaonanln/goTimer"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/config"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/entity"
	"github.com/irikarra/worldlink/engine/netutil"
	"github.com/irikarra/worldlink/engine/peerreg"
	"github.com/irikarra/worldlink/engine/post"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

type centralPacketItem struct {
	proxy   *peerProxy
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// CentralService is the central directory: it tracks registered worlds,
// instance worlds and the chat relay, and provisions instance worlds on demand
type CentralService struct {
	cfg         *config.CentralConfig
	registry    *peerreg.Registry
	roster      *entity.SummaryTable
	proxies     map[common.ConnectionID]*peerProxy
	provisioner *instanceProvisioner
	packetQueue chan centralPacketItem
	nextConnID  int64
}

func newCentralService(cfg *config.CentralConfig) *CentralService {
	return &CentralService{
		cfg:         cfg,
		registry:    peerreg.NewRegistry(),
		roster:      entity.NewSummaryTable(),
		proxies:     map[common.ConnectionID]*peerProxy{},
		provisioner: newInstanceProvisioner(cfg.WorldExecutable),
		packetQueue: make(chan centralPacketItem, consts.SERVICE_PACKET_QUEUE_SIZE),
	}
}

func (cs *CentralService) String() string {
	return fmt.Sprintf("CentralService<%s:%d>", cs.cfg.BindIp, cs.cfg.BindPort)
}

func (cs *CentralService) run() {
	listenAddr := fmt.Sprintf("%s:%d", cs.cfg.BindIp, cs.cfg.BindPort)
	go netutil.ServeTCPForever(listenAddr, cs)
	cs.serveRoutine()
}

// ServeTCPConnection handles one accepted peer connection, runs on its own goroutine
func (cs *CentralService) ServeTCPConnection(conn net.Conn) {
	connID := common.ConnectionID(atomic.AddInt64(&cs.nextConnID, 1))
	proxy := newPeerProxy(cs, connID, conn)
	proxy.serve()
}

// enqueuePacket hands the recv goroutine's packet reference to the service
// routine, which releases it after handling
func (cs *CentralService) enqueuePacket(proxy *peerProxy, msgtype proto.MsgType, packet *netutil.Packet) {
	cs.packetQueue <- centralPacketItem{proxy: proxy, msgtype: msgtype, packet: packet}
}

func (cs *CentralService) serveRoutine() {
	ticker := time.Tick(consts.SERVICE_TICK_INTERVAL)
	timer.AddTimer(time.Second, func() {
		cs.provisioner.checkTimeouts(cs, time.Now())
	})

	for {
		select {
		case item := <-cs.packetQueue:
			if item.packet == nil {
				cs.handlePeerDisconnect(item.proxy)
			} else {
				cs.handlePeerPacket(item.proxy, item.msgtype, item.packet)
				item.packet.Release()
			}
		case <-ticker:
			timer.Tick()
		}

		post.Tick()
	}
}

func (cs *CentralService) handlePeerPacket(proxy *peerProxy, msgtype proto.MsgType, packet *netutil.Packet) {
	if cs.proxies[proxy.connID] == nil {
		cs.proxies[proxy.connID] = proxy
	}

	switch msgtype {
	case proto.MT_REGISTER_PEER:
		var info proto.PeerInfo
		packet.ReadData(&info)
		cs.handleRegisterPeer(proxy, &info)
	case proto.MT_STATUS_PING:
		load := float64(packet.ReadUint64()) / 10000
		onlineCount := int(packet.ReadUint32())
		cs.handleStatusPing(proxy, load, onlineCount)
	case proto.MT_USER_ADD, proto.MT_USER_ONLINE:
		var summary proto.SocialCharacterSummary
		packet.ReadData(&summary)
		cs.roster.Put(&summary)
		proxy.characters.Add(summary.ID)
	case proto.MT_USER_REMOVE:
		characterID := common.CharacterID(packet.ReadVarStr())
		cs.roster.Remove(characterID)
		proxy.characters.Del(characterID)
	case proto.MT_REQUEST_SPAWN_INSTANCE:
		requestID := packet.ReadUint32()
		mapName := packet.ReadVarStr()
		instanceID := common.InstanceID(packet.ReadVarStr())
		var target proto.WarpTarget
		packet.ReadData(&target)
		cs.provisioner.spawn(cs, proxy, requestID, mapName, instanceID, &target)
	default:
		wlog.Errorf("%s: unknown message type from %s: %v", cs, proxy, msgtype)
	}
}

// handleRegisterPeer registers the peer, acks it, pushes the known registry to
// the newcomer and announces the newcomer to everyone else
func (cs *CentralService) handleRegisterPeer(proxy *peerProxy, info *proto.PeerInfo) {
	wlog.Infof("%s: peer registered: %s", cs, info)
	cs.registry.Register(proxy.connID, info)
	proxy.peer = info
	proxy.SendRegisterPeerAck()

	cs.registry.ForEach(func(other *proto.PeerInfo) {
		if other != info {
			proxy.SendPeerUpdate(other)
		}
	})
	cs.broadcastPeerUpdate(proxy, info)

	if info.PeerType == proto.PEER_INSTANCE_WORLD {
		cs.provisioner.resolveInstance(cs, info)
	}
}

func (cs *CentralService) handleStatusPing(proxy *peerProxy, load float64, onlineCount int) {
	if proxy.peer == nil {
		wlog.Warnf("%s: status ping from unregistered peer %s", cs, proxy)
		return
	}
	proxy.peer.Load = load
	if consts.DEBUG_PACKETS {
		wlog.Debugf("%s: %s load=%f online=%d cluster-online=%d", cs, proxy.peer, load, onlineCount, cs.roster.Count())
	}
	cs.broadcastPeerUpdate(proxy, proxy.peer)
}

func (cs *CentralService) handlePeerDisconnect(proxy *peerProxy) {
	delete(cs.proxies, proxy.connID)
	cs.provisioner.dropRequester(proxy.connID)
	for characterID := range proxy.characters {
		cs.roster.Remove(characterID)
	}

	evicted := cs.registry.EvictConnection(proxy.connID)
	for _, info := range evicted {
		wlog.Infof("%s: peer disconnected: %s", cs, info)
		for _, other := range cs.proxies {
			other.SendPeerRemove(info.PeerType, info.Extra())
		}
	}
}

func (cs *CentralService) broadcastPeerUpdate(from *peerProxy, info *proto.PeerInfo) {
	for _, other := range cs.proxies {
		if other != from {
			other.SendPeerUpdate(info)
		}
	}
}
