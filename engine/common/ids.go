package common

import (
	"github.com/irikarra/worldlink/engine/uuid"
	"github.com/irikarra/worldlink/engine/wlog"
)

// CHARACTERID_LENGTH is the length of character IDs
const CHARACTERID_LENGTH = uuid.UUID_LENGTH

// CharacterID identifies a player character in the database
type CharacterID string

// IsNil returns if CharacterID is nil
func (id CharacterID) IsNil() bool {
	return id == ""
}

// GenCharacterID generates a new CharacterID
func GenCharacterID() CharacterID {
	return CharacterID(uuid.GenUUID())
}

// MustCharacterID assures a string to be CharacterID
func MustCharacterID(id string) CharacterID {
	if len(id) != CHARACTERID_LENGTH {
		wlog.Panicf("%s of len %d is not a valid character ID (len=%d)", id, len(id), CHARACTERID_LENGTH)
	}
	return CharacterID(id)
}

// UserID identifies an account
type UserID string

// IsNil returns if UserID is nil
func (id UserID) IsNil() bool {
	return id == ""
}

// PartyID identifies a party, 0 means no party
type PartyID int32

// GuildID identifies a guild, 0 means no guild
type GuildID int32

// ConnectionID identifies a client session on a world process
type ConnectionID int64

// InstanceID identifies a disposable instance world
type InstanceID string

// IsNil returns if InstanceID is nil
func (id InstanceID) IsNil() bool {
	return id == ""
}

// GenInstanceID generates a new InstanceID
func GenInstanceID() InstanceID {
	return InstanceID(uuid.GenUUID())
}

// BuildingID identifies a constructed building
type BuildingID string

// MailID identifies a mail in the database
type MailID string
