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
	"github.com/irikarra/worldlink/engine/peerclient"
	"github.com/irikarra/worldlink/engine/post"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

type chatPacketItem struct {
	proxy   *worldProxy // nil for packets from the central link
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// ChatService relays chat messages, presence and party/guild replica updates
// between world processes. Per-connection arrival order is preserved because
// everything funnels through the single service routine.
type ChatService struct {
	cfg         *config.ChatConfig
	centralConn *peerclient.ConnMgr
	roster      *entity.SummaryTable
	proxies     map[common.ConnectionID]*worldProxy
	packetQueue chan chatPacketItem
	nextConnID  int64
	registered  bool
}

func newChatService(cfg *config.ChatConfig) *ChatService {
	cs := &ChatService{
		cfg:         cfg,
		roster:      entity.NewSummaryTable(),
		proxies:     map[common.ConnectionID]*worldProxy{},
		packetQueue: make(chan chatPacketItem, consts.SERVICE_PACKET_QUEUE_SIZE),
	}
	centralConfig := config.GetCentral()
	cs.centralConn = peerclient.NewConnMgr("central", func() (string, int, bool) {
		return centralConfig.Ip, centralConfig.Port, true
	}, cs)
	return cs
}

func (cs *ChatService) String() string {
	return fmt.Sprintf("ChatService<%s:%d>", cs.cfg.BindIp, cs.cfg.BindPort)
}

func (cs *ChatService) run() {
	listenAddr := fmt.Sprintf("%s:%d", cs.cfg.BindIp, cs.cfg.BindPort)
	go netutil.ServeTCPForever(listenAddr, cs)
	cs.centralConn.Connect()
	cs.serveRoutine()
}

// ServeTCPConnection handles one accepted world connection, runs on its own goroutine
func (cs *ChatService) ServeTCPConnection(conn net.Conn) {
	connID := common.ConnectionID(atomic.AddInt64(&cs.nextConnID, 1))
	proxy := newWorldProxy(cs, connID, conn)
	proxy.serve()
}

// enqueuePacket hands the recv goroutine's packet reference to the service
// routine, which releases it after handling
func (cs *ChatService) enqueuePacket(proxy *worldProxy, msgtype proto.MsgType, packet *netutil.Packet) {
	cs.packetQueue <- chatPacketItem{proxy: proxy, msgtype: msgtype, packet: packet}
}

// OnClientConnect runs on the central link goroutine
func (cs *ChatService) OnClientConnect(isReconnect bool) {
	post.Post(func() {
		cs.registered = false
		cs.registerToCentral()
	})
}

// HandleClientPacket runs on the central link goroutine
func (cs *ChatService) HandleClientPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	cs.enqueuePacket(nil, msgtype, packet)
}

// HandleClientDisconnect runs on the central link goroutine
func (cs *ChatService) HandleClientDisconnect() {
	post.Post(func() {
		cs.registered = false
	})
}

func (cs *ChatService) registerToCentral() {
	if conn := cs.centralConn.GetConn(); conn != nil {
		conn.SendRegisterPeer(&proto.PeerInfo{
			PeerType: proto.PEER_CHAT,
			Address:  cs.cfg.Ip,
			Port:     cs.cfg.Port,
		})
	}
}

func (cs *ChatService) serveRoutine() {
	ticker := time.Tick(consts.SERVICE_TICK_INTERVAL)
	timer.AddTimer(consts.REGISTER_PEER_INTERVAL, func() {
		if !cs.registered {
			cs.registerToCentral()
		}
	})

	for {
		select {
		case item := <-cs.packetQueue:
			if item.packet == nil {
				cs.handleWorldDisconnect(item.proxy)
			} else {
				if item.proxy == nil {
					cs.handleCentralPacket(item.msgtype, item.packet)
				} else {
					cs.handleWorldPacket(item.proxy, item.msgtype, item.packet)
				}
				item.packet.Release()
			}
		case <-ticker:
			timer.Tick()
		}

		post.Tick()
	}
}

func (cs *ChatService) handleCentralPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	switch msgtype {
	case proto.MT_REGISTER_PEER_ACK:
		wlog.Infof("%s: registered to central", cs)
		cs.registered = true
	case proto.MT_PEER_UPDATE, proto.MT_PEER_REMOVE:
		// chat does not route by peer, nothing to do
	default:
		wlog.Errorf("%s: unknown message type from central: %v", cs, msgtype)
	}
}

func (cs *ChatService) handleWorldPacket(proxy *worldProxy, msgtype proto.MsgType, packet *netutil.Packet) {
	if cs.proxies[proxy.connID] == nil {
		cs.proxies[proxy.connID] = proxy
		wlog.Infof("%s: world connected: %s", cs, proxy)
	}

	switch msgtype {
	case proto.MT_CHAT_MESSAGE:
		var msg proto.ChatMessage
		packet.ReadData(&msg)
		cs.handleChatMessage(proxy, &msg)
	case proto.MT_USER_ADD, proto.MT_USER_ONLINE:
		var summary proto.SocialCharacterSummary
		packet.ReadData(&summary)
		cs.roster.Put(&summary)
		proxy.characters.Add(summary.ID)
		cs.relayToOthers(proxy, packet)
	case proto.MT_USER_REMOVE:
		characterID := common.CharacterID(packet.ReadVarStr())
		cs.roster.Remove(characterID)
		proxy.characters.Del(characterID)
		cs.relayToOthers(proxy, packet)
	case proto.MT_UPDATE_PARTY, proto.MT_UPDATE_PARTY_MEMBER, proto.MT_UPDATE_GUILD, proto.MT_UPDATE_GUILD_MEMBER:
		cs.relayToOthers(proxy, packet)
	default:
		wlog.Errorf("%s: unknown message type from %s: %v", cs, proxy, msgtype)
	}
}

func (cs *ChatService) handleChatMessage(proxy *worldProxy, msg *proto.ChatMessage) {
	switch msg.Channel {
	case proto.CHANNEL_WHISPER:
		if cs.roster.GetByName(msg.ReceiverName) == nil {
			wlog.Debugf("%s: whisper receiver %s is offline", cs, msg.ReceiverName)
			return
		}
		cs.broadcastChatMessage(proxy, msg)
	case proto.CHANNEL_GLOBAL, proto.CHANNEL_PARTY, proto.CHANNEL_GUILD:
		cs.broadcastChatMessage(proxy, msg)
	default:
		// local chat never leaves its world
		wlog.Warnf("%s: unexpected chat channel %d from %s", cs, msg.Channel, proxy)
	}
}

func (cs *ChatService) broadcastChatMessage(from *worldProxy, msg *proto.ChatMessage) {
	for _, other := range cs.proxies {
		if other != from {
			other.SendChatMessage(msg)
		}
	}
}

// relayToOthers forwards the packet as-is to every world except the sender
func (cs *ChatService) relayToOthers(from *worldProxy, packet *netutil.Packet) {
	for _, other := range cs.proxies {
		if other != from {
			other.SendPacket(packet)
			other.Flush()
		}
	}
}

// handleWorldDisconnect drops the world's characters from the roster and
// announces their removal to the remaining worlds
func (cs *ChatService) handleWorldDisconnect(proxy *worldProxy) {
	delete(cs.proxies, proxy.connID)
	wlog.Infof("%s: world disconnected: %s, dropping %d characters", cs, proxy, len(proxy.characters))

	proxy.characters.ForEach(func(characterID common.CharacterID) bool {
		cs.roster.Remove(characterID)
		for _, other := range cs.proxies {
			other.SendUserRemove(characterID)
		}
		return true
	})
}
