package gamedbcommon

import (
	"time"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

// CharacterData is the persisted state of a player character.
// Gameplay state the sync layer does not interpret lives in Payload and is
// round-tripped as-is.
type CharacterData struct {
	ID        common.CharacterID
	UserID    common.UserID
	Name      string
	DataID    int32
	FactionID int32
	Level     int32
	Exp       int32
	CurrentHp int32
	MaxHp     int32
	CurrentMp int32
	MaxMp     int32

	CurrentMapName string
	CurrentX       float64
	CurrentY       float64
	CurrentZ       float64
	RespawnMapName string
	RespawnX       float64
	RespawnY       float64
	RespawnZ       float64

	PartyID   common.PartyID
	GuildID   common.GuildID
	GuildRole byte

	LastUpdate int64
	Payload    map[string]interface{}
}

// Summary builds the cross-process summary of the character
func (cd *CharacterData) Summary() *proto.SocialCharacterSummary {
	return &proto.SocialCharacterSummary{
		ID:        cd.ID,
		UserID:    cd.UserID,
		Name:      cd.Name,
		DataID:    cd.DataID,
		Level:     cd.Level,
		FactionID: cd.FactionID,
		PartyID:   cd.PartyID,
		GuildID:   cd.GuildID,
		GuildRole: cd.GuildRole,
		CurHp:     cd.CurrentHp,
		MaxHp:     cd.MaxHp,
		CurMp:     cd.CurrentMp,
		MaxMp:     cd.MaxMp,
		MapName:   cd.CurrentMapName,
	}
}

// Touch refreshes the last update timestamp
func (cd *CharacterData) Touch() {
	cd.LastUpdate = time.Now().Unix()
}

// BuildingData is the persisted state of a constructed building
type BuildingData struct {
	ID               common.BuildingID
	ParentID         common.BuildingID
	DataID           int32
	CurrentHp        int32
	MapName          string
	X                float64
	Y                float64
	Z                float64
	RotY             float64
	IsLocked         bool
	LockPassword     string
	CanUseByEveryone bool
	CreatorID        common.CharacterID
	CreatorName      string
}

// MailData is one persisted mail
type MailData struct {
	ID         common.MailID
	SenderID   common.UserID
	SenderName string
	ReceiverID common.UserID
	Title      string
	Content    string
	Gold       int32
	Items      []proto.StorageItem
	IsRead     bool
	IsClaimed  bool
	SentAt     int64
}
