package gamedbcommon

import (
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
)

// Engine is the synchronous document engine under the async operation queue.
// All methods are called from the gamedb routine only.
type Engine interface {
	ReadCharacter(id common.CharacterID) (*CharacterData, error)
	WriteCharacter(data *CharacterData) error
	DeleteCharacter(id common.CharacterID) error
	SetCharacterParty(id common.CharacterID, partyID common.PartyID) error
	SetCharacterGuild(id common.CharacterID, guildID common.GuildID, role byte) error

	NextPartyID() (common.PartyID, error)
	ReadParty(id common.PartyID) (*social.PartyRecord, error)
	WriteParty(rec *social.PartyRecord) error
	DeleteParty(id common.PartyID) error

	NextGuildID() (common.GuildID, error)
	FindGuildName(name string) (int, error)
	ReadGuild(id common.GuildID) (*social.GuildRecord, error)
	WriteGuild(rec *social.GuildRecord) error
	DeleteGuild(id common.GuildID) error

	ReadStorageItems(storageType proto.StorageType, ownerKey string) ([]proto.StorageItem, error)
	WriteStorageItems(storageType proto.StorageType, ownerKey string, items []proto.StorageItem) error

	ReadBuildings(mapName string) ([]*BuildingData, error)
	WriteBuilding(data *BuildingData) error
	DeleteBuilding(id common.BuildingID) error

	WriteMail(data *MailData) error
	ListMails(receiverID common.UserID) ([]*MailData, error)
	UpdateMail(data *MailData) error
	DeleteMail(id common.MailID) error

	ReadFriends(id common.CharacterID) ([]common.CharacterID, error)
	AddFriend(id common.CharacterID, friendID common.CharacterID) error
	RemoveFriend(id common.CharacterID, friendID common.CharacterID) error

	IsEOF(err error) bool
	Close()
}

// CurrencyEngine keeps gold and cash counters per account
type CurrencyEngine interface {
	GetGold(userID common.UserID) (int64, error)
	ChangeGold(userID common.UserID, delta int64) (int64, error)
	GetCash(userID common.UserID) (int64, error)
	ChangeCash(userID common.UserID, delta int64) (int64, error)
	Close()
}
