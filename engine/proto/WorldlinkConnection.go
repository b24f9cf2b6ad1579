package proto

import (
	"net"

	"github.com/xiaonanln/netconnutil"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/netutil"
)

// WorldlinkConnection is the wrapper of communication between worldlink processes
type WorldlinkConnection struct {
	packetConn *netutil.PacketConnection
}

// NewWorldlinkConnection creates a worldlink connection on a raw network connection
func NewWorldlinkConnection(conn net.Conn) *WorldlinkConnection {
	conn = netconnutil.NewNoTempErrorConn(conn)
	bufConn := netconnutil.NewBufferedConn(netutil.NetConn{Conn: conn}, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE)
	return &WorldlinkConnection{
		packetConn: netutil.NewPacketConnection(bufConn),
	}
}

// NewPacket allocates a new packet
func (wc *WorldlinkConnection) NewPacket() *netutil.Packet {
	return wc.packetConn.NewPacket()
}

// SendPacket sends a packet to the connection
func (wc *WorldlinkConnection) SendPacket(packet *netutil.Packet) error {
	return wc.packetConn.SendPacket(packet)
}

// SendPacketRelease sends a packet, flushes and releases it
func (wc *WorldlinkConnection) SendPacketRelease(packet *netutil.Packet) error {
	return wc.packetConn.SendPacketRelease(packet)
}

// Flush flushes the connection buffers
func (wc *WorldlinkConnection) Flush() error {
	return wc.packetConn.Flush()
}

// RecvPacket receives the next packet
func (wc *WorldlinkConnection) RecvPacket() (*netutil.Packet, error) {
	return wc.packetConn.RecvPacket()
}

// Close closes the connection
func (wc *WorldlinkConnection) Close() error {
	return wc.packetConn.Close()
}

// RemoteAddr returns the remote address
func (wc *WorldlinkConnection) RemoteAddr() net.Addr {
	return wc.packetConn.RemoteAddr()
}

// LocalAddr returns the local address
func (wc *WorldlinkConnection) LocalAddr() net.Addr {
	return wc.packetConn.LocalAddr()
}

func (wc *WorldlinkConnection) String() string {
	return wc.packetConn.String()
}

// SendRegisterPeer sends peer registration to central
func (wc *WorldlinkConnection) SendRegisterPeer(info *PeerInfo) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_REGISTER_PEER)
	packet.AppendData(info)
	return wc.SendPacketRelease(packet)
}

// SendRegisterPeerAck acks peer registration
func (wc *WorldlinkConnection) SendRegisterPeerAck() error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_REGISTER_PEER_ACK)
	return wc.SendPacketRelease(packet)
}

// SendPeerUpdate pushes a peer info to the connection
func (wc *WorldlinkConnection) SendPeerUpdate(info *PeerInfo) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_PEER_UPDATE)
	packet.AppendData(info)
	return wc.SendPacketRelease(packet)
}

// SendPeerRemove pushes a peer removal to the connection
func (wc *WorldlinkConnection) SendPeerRemove(peerType PeerType, extra string) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_PEER_REMOVE)
	packet.AppendByte(byte(peerType))
	packet.AppendVarStr(extra)
	return wc.SendPacketRelease(packet)
}

// SendStatusPing reports current load to central
func (wc *WorldlinkConnection) SendStatusPing(load float64, onlineCount int) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_STATUS_PING)
	packet.AppendUint64(uint64(load * 10000))
	packet.AppendUint32(uint32(onlineCount))
	return wc.SendPacketRelease(packet)
}

// SendRequestSpawnInstance requests central to spawn an instance world
func (wc *WorldlinkConnection) SendRequestSpawnInstance(requestID uint32, mapName string, instanceID common.InstanceID, target *WarpTarget) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_REQUEST_SPAWN_INSTANCE)
	packet.AppendUint32(requestID)
	packet.AppendVarStr(mapName)
	packet.AppendVarStr(string(instanceID))
	packet.AppendData(target)
	return wc.SendPacketRelease(packet)
}

// SendSpawnInstanceResult answers a spawn request
func (wc *WorldlinkConnection) SendSpawnInstanceResult(requestID uint32, code ResultCode, info *PeerInfo) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_SPAWN_INSTANCE_RESULT)
	packet.AppendUint32(requestID)
	packet.AppendUint16(uint16(code))
	packet.AppendData(info)
	return wc.SendPacketRelease(packet)
}

// SendChatMessage relays a chat message
func (wc *WorldlinkConnection) SendChatMessage(msg *ChatMessage) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_CHAT_MESSAGE)
	packet.AppendData(msg)
	return wc.SendPacketRelease(packet)
}

// SendUserAdd announces a character entering a world
func (wc *WorldlinkConnection) SendUserAdd(summary *SocialCharacterSummary) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_USER_ADD)
	packet.AppendData(summary)
	return wc.SendPacketRelease(packet)
}

// SendUserRemove announces a character leaving a world
func (wc *WorldlinkConnection) SendUserRemove(characterID common.CharacterID) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_USER_REMOVE)
	packet.AppendVarStr(string(characterID))
	return wc.SendPacketRelease(packet)
}

// SendUserOnline refreshes a character summary
func (wc *WorldlinkConnection) SendUserOnline(summary *SocialCharacterSummary) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_USER_ONLINE)
	packet.AppendData(summary)
	return wc.SendPacketRelease(packet)
}

// SendUpdateParty relays a party replica update
func (wc *WorldlinkConnection) SendUpdateParty(update *PartyUpdate) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_UPDATE_PARTY)
	packet.AppendData(update)
	return wc.SendPacketRelease(packet)
}

// SendUpdatePartyMember relays a party roster update
func (wc *WorldlinkConnection) SendUpdatePartyMember(update *SocialMemberUpdate) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_UPDATE_PARTY_MEMBER)
	packet.AppendData(update)
	return wc.SendPacketRelease(packet)
}

// SendUpdateGuild relays a guild replica update
func (wc *WorldlinkConnection) SendUpdateGuild(update *GuildUpdate) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_UPDATE_GUILD)
	packet.AppendData(update)
	return wc.SendPacketRelease(packet)
}

// SendUpdateGuildMember relays a guild roster update
func (wc *WorldlinkConnection) SendUpdateGuildMember(update *SocialMemberUpdate) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_UPDATE_GUILD_MEMBER)
	packet.AppendData(update)
	return wc.SendPacketRelease(packet)
}

// SendGameMessage notifies a gameplay result to a client
func (wc *WorldlinkConnection) SendGameMessage(code ResultCode) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_GAME_MESSAGE)
	packet.AppendUint16(uint16(code))
	return wc.SendPacketRelease(packet)
}

// SendWarpRedirect redirects a client to another world process
func (wc *WorldlinkConnection) SendWarpRedirect(address string, port int) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_WARP_REDIRECT)
	packet.AppendVarStr(address)
	packet.AppendUint32(uint32(port))
	return wc.SendPacketRelease(packet)
}

// SendStorageOpened notifies the client its storage is opened
func (wc *WorldlinkConnection) SendStorageOpened(storageType StorageType, ownerKey string, weightLimit int32, slotLimit int32) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_STORAGE_OPENED)
	packet.AppendByte(byte(storageType))
	packet.AppendVarStr(ownerKey)
	packet.AppendUint32(uint32(weightLimit))
	packet.AppendUint32(uint32(slotLimit))
	return wc.SendPacketRelease(packet)
}

// SendStorageClosed notifies the client its storage is closed
func (wc *WorldlinkConnection) SendStorageClosed() error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_STORAGE_CLOSED)
	return wc.SendPacketRelease(packet)
}

// SendStorageItems sends the full slot list of a storage to the client
func (wc *WorldlinkConnection) SendStorageItems(items []StorageItem) error {
	packet := wc.NewPacket()
	packet.AppendUint16(MT_STORAGE_ITEMS)
	packet.AppendData(items)
	return wc.SendPacketRelease(packet)
}
