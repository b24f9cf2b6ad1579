package proto

import (
	"fmt"

	"github.com/irikarra/worldlink/engine/common"
)

// PeerType is the type of processes registering to central
type PeerType uint8

// Peer types
const (
	// PEER_WORLD is a static map world process
	PEER_WORLD PeerType = 1
	// PEER_INSTANCE_WORLD is a disposable instance world process
	PEER_INSTANCE_WORLD PeerType = 2
	// PEER_CHAT is the chat relay process
	PEER_CHAT PeerType = 3
)

func (pt PeerType) String() string {
	switch pt {
	case PEER_WORLD:
		return "world"
	case PEER_INSTANCE_WORLD:
		return "instance"
	case PEER_CHAT:
		return "chat"
	default:
		return fmt.Sprintf("peer<%d>", uint8(pt))
	}
}

// PeerInfo describes a registered peer process
type PeerInfo struct {
	PeerType   PeerType
	MapName    string
	InstanceID common.InstanceID
	Address    string
	Port       int
	Load       float64
}

// Extra returns the registry key extra of the peer: map name for worlds,
// instance id for instance worlds, empty for chat
func (pi *PeerInfo) Extra() string {
	switch pi.PeerType {
	case PEER_WORLD:
		return pi.MapName
	case PEER_INSTANCE_WORLD:
		return string(pi.InstanceID)
	default:
		return ""
	}
}

func (pi *PeerInfo) String() string {
	return fmt.Sprintf("%s<%s@%s:%d>", pi.PeerType, pi.Extra(), pi.Address, pi.Port)
}

// ResultCode is the type of gameplay/protocol result codes carried in responses
type ResultCode uint16

// Result codes
const (
	RC_OK ResultCode = iota
	RC_SERVICE_UNAVAILABLE
	RC_UNKNOWN_MAP
	RC_CHARACTER_NOT_FOUND
	RC_NOT_PARTY_LEADER
	RC_NOT_GUILD_LEADER
	RC_NOT_IN_PARTY
	RC_NOT_IN_GUILD
	RC_CANNOT_ACCESS_STORAGE
	RC_STORAGE_NOT_OPENED
	RC_INVALID_STORAGE_SLOT
	RC_STORAGE_FULL
	RC_INVALID_ITEM_AMOUNT
	RC_GUILD_NAME_EXISTS
	RC_ALREADY_IN_PARTY
	RC_ALREADY_IN_GUILD
	RC_INVALID_GUILD_ROLE
	RC_NO_GUILD_SKILL_POINT
	RC_NOT_ENOUGH_GOLD
	RC_INVALID_AMOUNT
)

func (rc ResultCode) String() string {
	switch rc {
	case RC_OK:
		return "ok"
	case RC_SERVICE_UNAVAILABLE:
		return "service unavailable"
	case RC_UNKNOWN_MAP:
		return "unknown map"
	case RC_CHARACTER_NOT_FOUND:
		return "character not found"
	case RC_NOT_PARTY_LEADER:
		return "not party leader"
	case RC_NOT_GUILD_LEADER:
		return "not guild leader"
	case RC_NOT_IN_PARTY:
		return "not in party"
	case RC_NOT_IN_GUILD:
		return "not in guild"
	case RC_CANNOT_ACCESS_STORAGE:
		return "cannot access storage"
	case RC_STORAGE_NOT_OPENED:
		return "storage not opened"
	case RC_INVALID_STORAGE_SLOT:
		return "invalid storage slot"
	case RC_STORAGE_FULL:
		return "storage full"
	case RC_INVALID_ITEM_AMOUNT:
		return "invalid item amount"
	case RC_GUILD_NAME_EXISTS:
		return "guild name exists"
	case RC_ALREADY_IN_PARTY:
		return "already in party"
	case RC_ALREADY_IN_GUILD:
		return "already in guild"
	case RC_INVALID_GUILD_ROLE:
		return "invalid guild role"
	case RC_NO_GUILD_SKILL_POINT:
		return "no guild skill point"
	case RC_NOT_ENOUGH_GOLD:
		return "not enough gold"
	case RC_INVALID_AMOUNT:
		return "invalid amount"
	default:
		return fmt.Sprintf("result<%d>", uint16(rc))
	}
}

// SocialCharacterSummary is the cross-process summary of an online character
type SocialCharacterSummary struct {
	ID        common.CharacterID
	UserID    common.UserID
	Name      string
	DataID    int32
	Level     int32
	FactionID int32
	PartyID   common.PartyID
	GuildID   common.GuildID
	GuildRole byte
	CurHp     int32
	MaxHp     int32
	CurMp     int32
	MaxMp     int32
	MapName   string
}

// WarpTarget describes a warp destination
type WarpTarget struct {
	MapName    string
	InstanceID common.InstanceID
	X          float64
	Y          float64
	Z          float64
}

// ChatChannel is the channel of a chat message
type ChatChannel byte

// Chat channels
const (
	CHANNEL_LOCAL ChatChannel = iota
	CHANNEL_GLOBAL
	CHANNEL_WHISPER
	CHANNEL_PARTY
	CHANNEL_GUILD
)

// ChatMessage is a chat message relayed between worlds
type ChatMessage struct {
	Channel      ChatChannel
	SenderID     common.CharacterID
	SenderName   string
	ReceiverName string
	Message      string
	PartyID      common.PartyID
	GuildID      common.GuildID
}

// PartyUpdateType enumerates party replica update kinds
type PartyUpdateType byte

// Party update types
const (
	PARTY_UPDATE_CREATE PartyUpdateType = iota
	PARTY_UPDATE_CHANGE_LEADER
	PARTY_UPDATE_SETTING
	PARTY_UPDATE_TERMINATE
)

// PartyUpdate is a party replica update relayed between worlds
type PartyUpdate struct {
	Type      PartyUpdateType
	PartyID   common.PartyID
	LeaderID  common.CharacterID
	ShareExp  bool
	ShareItem bool
}

// GuildUpdateType enumerates guild replica update kinds
type GuildUpdateType byte

// Guild update types
const (
	GUILD_UPDATE_CREATE GuildUpdateType = iota
	GUILD_UPDATE_CHANGE_LEADER
	GUILD_UPDATE_MESSAGE
	GUILD_UPDATE_ROLE
	GUILD_UPDATE_MEMBER_ROLE
	GUILD_UPDATE_SKILL_LEVEL
	GUILD_UPDATE_GOLD
	GUILD_UPDATE_LEVEL_EXP_SKILL_POINT
	GUILD_UPDATE_TERMINATE
)

// GuildRole describes one configurable role of a guild
type GuildRole struct {
	Name            string
	CanInvite       bool
	CanKick         bool
	ShareExpPercent int32
}

// GuildUpdate is a guild replica update relayed between worlds
type GuildUpdate struct {
	Type       GuildUpdateType
	GuildID    common.GuildID
	GuildName  string
	LeaderID   common.CharacterID
	Message    string
	RoleID     byte
	Role       GuildRole
	MemberID   common.CharacterID
	MemberRole byte
	SkillID    int32
	SkillLevel int32
	Gold       int32
	Level      int32
	Exp        int32
	SkillPoint int32
}

// SocialMemberUpdateType enumerates roster update kinds
type SocialMemberUpdateType byte

// Social member update types
const (
	SOCIAL_MEMBER_ADD SocialMemberUpdateType = iota
	SOCIAL_MEMBER_REMOVE
)

// SocialMemberUpdate is a party/guild roster update relayed between worlds
type SocialMemberUpdate struct {
	Type      SocialMemberUpdateType
	SocialID  int32 // party id or guild id depending on message type
	Character SocialCharacterSummary
}

// StorageType is the type of shared storages
type StorageType byte

// Storage types
const (
	STORAGE_NONE StorageType = iota
	STORAGE_PLAYER
	STORAGE_GUILD
	STORAGE_BUILDING
)

// StorageItem is one slot of a storage or inventory
type StorageItem struct {
	DataID int32
	Amount int32
	Level  int32
}

// IsEmpty returns if the slot holds no item
func (it StorageItem) IsEmpty() bool {
	return it.DataID == 0 || it.Amount <= 0
}
