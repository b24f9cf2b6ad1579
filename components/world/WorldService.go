package world

import (
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/load"
	aoi "github.com/xiaonanln/go-aoi"
	timer "github.com/xiaonanln/goTimer"
	kcp "github.com/xtaci/kcp-go"

	"github.com/irikarra/worldlink/engine/centralclient"
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/config"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/entity"
	"github.com/irikarra/worldlink/engine/gamedb"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/netutil"
	"github.com/irikarra/worldlink/engine/peerclient"
	"github.com/irikarra/worldlink/engine/post"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
	"github.com/irikarra/worldlink/engine/storage"
	"github.com/irikarra/worldlink/engine/wlog"
)

type linkKind int

const (
	linkClient linkKind = iota
	linkCentral
	linkChat
)

type worldPacketItem struct {
	link    linkKind
	proxy   *ClientProxy // nil for central/chat packets
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// WorldService is one world (map) process: it owns the resident characters of
// its map, arbitrates the storages they open, keeps party/guild replicas in
// sync through the chat relay and handles warping between worlds
type WorldService struct {
	cfg        *config.WorldConfig
	mapName    string
	isInstance bool
	instanceID common.InstanceID
	entryPoint proto.WarpTarget // where warped-in characters appear on instance worlds
	listenPort int

	entities  *entity.Manager
	storages  *storage.Handlers
	social    *social.Manager
	roster    *entity.SummaryTable
	peers     *centralclient.PeerCache
	spawns    *centralclient.SpawnTracker
	buildings map[common.BuildingID]*gamedbcommon.BuildingData

	centralConn *peerclient.ConnMgr
	chatConn    *peerclient.ConnMgr
	registered  bool

	clientProxies map[common.ConnectionID]*ClientProxy
	packetQueue   chan worldPacketItem
	nextConnID    int64

	emptySince  time.Time
	terminating bool
}

func newWorldService(cfg *config.WorldConfig, mapName string, instanceID common.InstanceID, entryPoint proto.WarpTarget) *WorldService {
	ws := &WorldService{
		cfg:           cfg,
		mapName:       mapName,
		isInstance:    !instanceID.IsNil(),
		instanceID:    instanceID,
		entryPoint:    entryPoint,
		listenPort:    cfg.Port,
		roster:        entity.NewSummaryTable(),
		social:        social.NewManager(),
		peers:         centralclient.NewPeerCache(),
		spawns:        centralclient.NewSpawnTracker(),
		buildings:     map[common.BuildingID]*gamedbcommon.BuildingData{},
		clientProxies: map[common.ConnectionID]*ClientProxy{},
		packetQueue:   make(chan worldPacketItem, consts.SERVICE_PACKET_QUEUE_SIZE),
	}

	ws.entities = entity.NewManager(gamedbCharacterDB{}, ws.isInstance, cfg.JoinInstanceDistance, entity.Hooks{
		OnCharacterAdded:   ws.onCharacterAdded,
		OnCharacterRemoved: ws.onCharacterRemoved,
		OnCharacterOnline:  ws.onCharacterOnline,
	})
	ws.entities.UseAOI(aoi.NewXZListAOIManager(aoi.Coord(cfg.JoinInstanceDistance)))

	ws.storages = storage.NewHandlers(gamedbStorageDB{}, storage.Options{
		PlayerSlots:   cfg.PlayerStorageSlots,
		GuildSlots:    cfg.GuildStorageSlots,
		BuildingSlots: cfg.PlayerStorageSlots,
		WeightLimit:   int32(cfg.StorageWeightLimit),
	}, ws.resolveBuilding, ws.notifyStorageItems)

	centralConfig := config.GetCentral()
	ws.centralConn = peerclient.NewConnMgr("central", func() (string, int, bool) {
		return centralConfig.Ip, centralConfig.Port, true
	}, centralLink{ws})
	ws.chatConn = peerclient.NewConnMgr("chat", func() (string, int, bool) {
		chat := ws.peers.ResolveChat()
		if chat == nil {
			return "", 0, false
		}
		return chat.Address, chat.Port, true
	}, chatLink{ws})

	return ws
}

// gamedbCharacterDB adapts the gamedb package to the entity manager
type gamedbCharacterDB struct{}

func (gamedbCharacterDB) SaveCharacter(data *gamedbcommon.CharacterData, callback func()) {
	gamedb.SaveCharacter(data, callback)
}

// gamedbStorageDB adapts the gamedb package to the storage handlers
type gamedbStorageDB struct{}

func (gamedbStorageDB) ReadStorageItems(storageType proto.StorageType, ownerKey string, callback func(items []proto.StorageItem, err error)) {
	gamedb.ReadStorageItems(storageType, ownerKey, callback)
}

func (gamedbStorageDB) SaveStorageItems(storageType proto.StorageType, ownerKey string, items []proto.StorageItem, callback func()) {
	gamedb.SaveStorageItems(storageType, ownerKey, items, callback)
}

func (ws *WorldService) String() string {
	if ws.isInstance {
		return fmt.Sprintf("WorldService<%s/%s>", ws.mapName, ws.instanceID)
	}
	return fmt.Sprintf("WorldService<%s>", ws.mapName)
}

func (ws *WorldService) peerInfo() *proto.PeerInfo {
	peerType := proto.PEER_WORLD
	if ws.isInstance {
		peerType = proto.PEER_INSTANCE_WORLD
	}
	return &proto.PeerInfo{
		PeerType:   peerType,
		MapName:    ws.mapName,
		InstanceID: ws.instanceID,
		Address:    ws.cfg.Ip,
		Port:       ws.listenPort,
	}
}

func (ws *WorldService) run() {
	if ws.listenPort == 0 {
		ws.listenPort = pickFreePort()
	}
	listenAddr := fmt.Sprintf("%s:%d", ws.cfg.Ip, ws.listenPort)
	go netutil.ServeTCPForever(listenAddr, ws)
	go netutil.ServeKCPForever(listenAddr, ws)

	ws.centralConn.Connect()
	ws.chatConn.Connect()
	ws.loadWorldData()
	ws.serveRoutine()
}

// pickFreePort grabs an ephemeral port for instance worlds, which have no
// configured port of their own
func pickFreePort() int {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		wlog.Panicf("world: no free port: %s", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// loadWorldData loads the buildings of the map and preloads their storages,
// then releases the spawns queued while loading
func (ws *WorldService) loadWorldData() {
	if ws.isInstance {
		// disposable maps own no persistent buildings
		ws.entities.SetReady()
		return
	}

	gamedb.ReadBuildings(ws.mapName, func(buildings []*gamedbcommon.BuildingData, err error) {
		if err != nil {
			wlog.Errorf("%s: load buildings failed: %s", ws, err)
			ws.entities.SetReady()
			return
		}

		remaining := len(buildings)
		wlog.Infof("%s: loaded %d buildings", ws, remaining)
		if remaining == 0 {
			ws.entities.SetReady()
			return
		}

		for _, building := range buildings {
			building := building
			ws.buildings[building.ID] = building
			gamedb.ReadStorageItems(proto.STORAGE_BUILDING, string(building.ID), func(items []proto.StorageItem, err error) {
				if err == nil {
					ws.storages.Preload(storage.BuildingStorageID(building.ID), items)
				}
				remaining--
				if remaining == 0 {
					ws.entities.SetReady()
				}
			})
		}
	})
}

// ServeTCPConnection handles one accepted client connection, runs on its own goroutine
func (ws *WorldService) ServeTCPConnection(conn net.Conn) {
	ws.serveClientConnection(conn)
}

// ServeKCPConnection handles one accepted KCP client session, runs on its own goroutine
func (ws *WorldService) ServeKCPConnection(conn *kcp.UDPSession) {
	netutil.SetupKCPConn(conn)
	ws.serveClientConnection(conn)
}

func (ws *WorldService) serveClientConnection(conn net.Conn) {
	connID := common.ConnectionID(atomic.AddInt64(&ws.nextConnID, 1))
	proxy := newClientProxy(ws, connID, conn)
	proxy.serve()
}

// enqueue hands the recv goroutine's packet reference to the service routine,
// which releases it after handling
func (ws *WorldService) enqueueClientPacket(proxy *ClientProxy, msgtype proto.MsgType, packet *netutil.Packet) {
	ws.packetQueue <- worldPacketItem{link: linkClient, proxy: proxy, msgtype: msgtype, packet: packet}
}

func (ws *WorldService) enqueueLinkPacket(link linkKind, msgtype proto.MsgType, packet *netutil.Packet) {
	ws.packetQueue <- worldPacketItem{link: link, msgtype: msgtype, packet: packet}
}

// centralLink adapts the central connection events to the service routine
type centralLink struct{ ws *WorldService }

func (l centralLink) OnClientConnect(isReconnect bool) {
	ws := l.ws
	post.Post(func() {
		ws.registered = false
		ws.registerToCentral()
	})
}

func (l centralLink) HandleClientPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	l.ws.enqueueLinkPacket(linkCentral, msgtype, packet)
}

func (l centralLink) HandleClientDisconnect() {
	ws := l.ws
	post.Post(func() {
		ws.registered = false
	})
}

// chatLink adapts the chat connection events to the service routine
type chatLink struct{ ws *WorldService }

func (l chatLink) OnClientConnect(isReconnect bool) {
	ws := l.ws
	post.Post(func() {
		ws.pushSummaries(ws.chatConn.GetConn())
	})
}

func (l chatLink) HandleClientPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	l.ws.enqueueLinkPacket(linkChat, msgtype, packet)
}

func (l chatLink) HandleClientDisconnect() {
}

func (ws *WorldService) registerToCentral() {
	if conn := ws.centralConn.GetConn(); conn != nil {
		conn.SendRegisterPeer(ws.peerInfo())
	}
}

// pushSummaries re-announces every resident character after a central or chat
// link (re)connects so the remote roster converges
func (ws *WorldService) pushSummaries(conn *proto.WorldlinkConnection) {
	if conn == nil {
		return
	}
	ws.entities.ForEach(func(c *entity.Character) {
		if c.State != entity.StateDestroyed {
			conn.SendUserAdd(c.Data.Summary())
		}
	})
}

func (ws *WorldService) serveRoutine() {
	ticker := time.Tick(consts.SERVICE_TICK_INTERVAL)

	timer.AddTimer(consts.REGISTER_PEER_INTERVAL, func() {
		if !ws.registered {
			ws.registerToCentral()
		}
	})
	timer.AddTimer(consts.STATUS_PING_INTERVAL, ws.sendStatusPing)
	timer.AddTimer(ws.cfg.SaveInterval, ws.autosave)
	timer.AddTimer(time.Second, func() {
		ws.spawns.CheckTimeouts(time.Now())
		ws.checkInstanceIdle()
	})

	for {
		select {
		case item := <-ws.packetQueue:
			if item.packet == nil {
				if item.link == linkClient {
					ws.handleClientDisconnect(item.proxy)
				}
			} else {
				switch item.link {
				case linkClient:
					ws.handleClientPacket(item.proxy, item.msgtype, item.packet)
				case linkCentral:
					ws.handleCentralPacket(item.msgtype, item.packet)
				case linkChat:
					ws.handleChatPacket(item.msgtype, item.packet)
				}
				item.packet.Release()
			}
		case <-ticker:
			timer.Tick()
		}

		post.Tick()
	}
}

func (ws *WorldService) sendStatusPing() {
	conn := ws.centralConn.GetConn()
	if conn == nil {
		return
	}
	loadavg := 0.0
	if avg, err := load.Avg(); err == nil {
		loadavg = avg.Load1
	}
	conn.SendStatusPing(loadavg, ws.entities.Count())
}

func (ws *WorldService) autosave() {
	ws.entities.SaveAll()
	if !ws.isInstance {
		for _, building := range ws.buildings {
			gamedb.SaveBuilding(building, nil)
		}
	}
}

// checkInstanceIdle terminates an instance world that stayed empty for the
// grace period
func (ws *WorldService) checkInstanceIdle() {
	if !ws.isInstance || ws.terminating {
		return
	}
	if ws.entities.Count() > 0 {
		ws.emptySince = time.Time{}
		return
	}
	if ws.emptySince.IsZero() {
		ws.emptySince = time.Now()
		return
	}
	if time.Since(ws.emptySince) >= consts.TERMINATE_INSTANCE_DELAY {
		wlog.Infof("%s: no residents for %s, terminating", ws, consts.TERMINATE_INSTANCE_DELAY)
		ws.beginTerminate()
	}
}

// beginTerminate saves every resident and exits once all saves have landed
func (ws *WorldService) beginTerminate() {
	if ws.terminating {
		return
	}
	ws.terminating = true
	ws.entities.SaveAllThen(func() {
		wlog.Infof("%s: all characters saved, exiting", ws)
		gamedb.Shutdown()
		os.Exit(0)
	})
}

func (ws *WorldService) handleCentralPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	switch msgtype {
	case proto.MT_REGISTER_PEER_ACK:
		wlog.Infof("%s: registered to central", ws)
		ws.registered = true
		ws.pushSummaries(ws.centralConn.GetConn())
	case proto.MT_PEER_UPDATE:
		var info proto.PeerInfo
		packet.ReadData(&info)
		ws.peers.Put(&info)
	case proto.MT_PEER_REMOVE:
		peerType := proto.PeerType(packet.ReadByte())
		extra := packet.ReadVarStr()
		ws.peers.Remove(peerType, extra)
	case proto.MT_SPAWN_INSTANCE_RESULT:
		requestID := packet.ReadUint32()
		code := proto.ResultCode(packet.ReadUint16())
		var info *proto.PeerInfo
		if code == proto.RC_OK {
			info = &proto.PeerInfo{}
			packet.ReadData(info)
		}
		ws.spawns.Resolve(requestID, info, code)
	default:
		wlog.Errorf("%s: unknown message type from central: %v", ws, msgtype)
	}
}

func (ws *WorldService) handleChatPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	switch msgtype {
	case proto.MT_CHAT_MESSAGE:
		var msg proto.ChatMessage
		packet.ReadData(&msg)
		ws.deliverChatMessage(&msg)
	case proto.MT_USER_ADD, proto.MT_USER_ONLINE:
		var summary proto.SocialCharacterSummary
		packet.ReadData(&summary)
		ws.roster.Put(&summary)
	case proto.MT_USER_REMOVE:
		ws.roster.Remove(common.CharacterID(packet.ReadVarStr()))
	case proto.MT_UPDATE_PARTY:
		var update proto.PartyUpdate
		packet.ReadData(&update)
		ws.applyPartyUpdate(&update)
	case proto.MT_UPDATE_PARTY_MEMBER:
		var update proto.SocialMemberUpdate
		packet.ReadData(&update)
		ws.applyPartyMemberUpdate(&update)
	case proto.MT_UPDATE_GUILD:
		var update proto.GuildUpdate
		packet.ReadData(&update)
		ws.applyGuildUpdate(&update)
	case proto.MT_UPDATE_GUILD_MEMBER:
		var update proto.SocialMemberUpdate
		packet.ReadData(&update)
		ws.applyGuildMemberUpdate(&update)
	default:
		wlog.Errorf("%s: unknown message type from chat: %v", ws, msgtype)
	}
}

// deliverChatMessage pushes a relayed chat message to the resident clients it
// addresses
func (ws *WorldService) deliverChatMessage(msg *proto.ChatMessage) {
	switch msg.Channel {
	case proto.CHANNEL_WHISPER:
		ws.entities.ForEach(func(c *entity.Character) {
			if c.Data.Name == msg.ReceiverName || c.Data.Name == msg.SenderName {
				ws.sendToCharacter(c, msg)
			}
		})
	case proto.CHANNEL_PARTY:
		ws.entities.ForEach(func(c *entity.Character) {
			if c.Data.PartyID == msg.PartyID {
				ws.sendToCharacter(c, msg)
			}
		})
	case proto.CHANNEL_GUILD:
		ws.entities.ForEach(func(c *entity.Character) {
			if c.Data.GuildID == msg.GuildID {
				ws.sendToCharacter(c, msg)
			}
		})
	default: // global
		ws.entities.ForEach(func(c *entity.Character) {
			ws.sendToCharacter(c, msg)
		})
	}
}

func (ws *WorldService) sendToCharacter(c *entity.Character, msg *proto.ChatMessage) {
	if proxy := ws.clientProxies[c.ConnectionID]; proxy != nil {
		proxy.SendChatMessage(msg)
	}
}

func (ws *WorldService) applyPartyUpdate(update *proto.PartyUpdate) {
	ws.social.HandlePartyUpdate(update)
	if update.Type == proto.PARTY_UPDATE_TERMINATE {
		ws.entities.ForEach(func(c *entity.Character) {
			if c.Data.PartyID == update.PartyID {
				c.Data.PartyID = 0
			}
		})
	}
}

func (ws *WorldService) applyPartyMemberUpdate(update *proto.SocialMemberUpdate) {
	ws.social.HandlePartyMemberUpdate(update)
	if c := ws.entities.Get(update.Character.ID); c != nil {
		if update.Type == proto.SOCIAL_MEMBER_ADD {
			c.Data.PartyID = common.PartyID(update.SocialID)
		} else {
			c.Data.PartyID = 0
		}
	}
}

func (ws *WorldService) applyGuildUpdate(update *proto.GuildUpdate) {
	ws.social.HandleGuildUpdate(update)
	if update.Type == proto.GUILD_UPDATE_TERMINATE {
		ws.entities.ForEach(func(c *entity.Character) {
			if c.Data.GuildID == update.GuildID {
				c.Data.GuildID = 0
				c.Data.GuildRole = 0
			}
		})
	}
}

func (ws *WorldService) applyGuildMemberUpdate(update *proto.SocialMemberUpdate) {
	ws.social.HandleGuildMemberUpdate(update)
	if c := ws.entities.Get(update.Character.ID); c != nil {
		if update.Type == proto.SOCIAL_MEMBER_ADD {
			c.Data.GuildID = common.GuildID(update.SocialID)
			c.Data.GuildRole = update.Character.GuildRole
		} else {
			c.Data.GuildID = 0
			c.Data.GuildRole = 0
		}
	}
}

// presence hooks fired by the entity manager

func (ws *WorldService) onCharacterAdded(summary *proto.SocialCharacterSummary) {
	ws.roster.Put(summary)
	for _, conn := range ws.presenceConns() {
		conn.SendUserAdd(summary)
	}
}

func (ws *WorldService) onCharacterRemoved(id common.CharacterID) {
	ws.roster.Remove(id)
	for _, conn := range ws.presenceConns() {
		conn.SendUserRemove(id)
	}
}

func (ws *WorldService) onCharacterOnline(summary *proto.SocialCharacterSummary) {
	ws.roster.Put(summary)
	for _, conn := range ws.presenceConns() {
		conn.SendUserOnline(summary)
	}
}

// presenceConns are the links presence changes are replicated to
func (ws *WorldService) presenceConns() []*proto.WorldlinkConnection {
	conns := make([]*proto.WorldlinkConnection, 0, 2)
	if conn := ws.chatConn.GetConn(); conn != nil {
		conns = append(conns, conn)
	}
	if conn := ws.centralConn.GetConn(); conn != nil {
		conns = append(conns, conn)
	}
	return conns
}

func (ws *WorldService) resolveBuilding(id common.BuildingID) *gamedbcommon.BuildingData {
	return ws.buildings[id]
}

func (ws *WorldService) notifyStorageItems(connID common.ConnectionID, id storage.StorageID, items []proto.StorageItem) {
	if proxy := ws.clientProxies[connID]; proxy != nil {
		proxy.SendStorageItems(items)
	}
}
