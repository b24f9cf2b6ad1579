package gamedbmemdb

import (
	"fmt"
	"sync"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
	"github.com/irikarra/worldlink/engine/uuid"
)

// MemDBEngine keeps all documents in memory, used by tests
type MemDBEngine struct {
	sync.Mutex
	characters  map[common.CharacterID]gamedbcommon.CharacterData
	parties     map[common.PartyID]social.PartyRecord
	guilds      map[common.GuildID]social.GuildRecord
	storages    map[string][]proto.StorageItem
	buildings   map[common.BuildingID]gamedbcommon.BuildingData
	mails       map[common.MailID]gamedbcommon.MailData
	friends     map[common.CharacterID]common.CharacterIDSet
	nextPartyID common.PartyID
	nextGuildID common.GuildID
}

// OpenMemDB opens an empty in-memory engine
func OpenMemDB() *MemDBEngine {
	return &MemDBEngine{
		characters: map[common.CharacterID]gamedbcommon.CharacterData{},
		parties:    map[common.PartyID]social.PartyRecord{},
		guilds:     map[common.GuildID]social.GuildRecord{},
		storages:   map[string][]proto.StorageItem{},
		buildings:  map[common.BuildingID]gamedbcommon.BuildingData{},
		mails:      map[common.MailID]gamedbcommon.MailData{},
		friends:    map[common.CharacterID]common.CharacterIDSet{},
	}
}

func (e *MemDBEngine) ReadCharacter(id common.CharacterID) (*gamedbcommon.CharacterData, error) {
	e.Lock()
	defer e.Unlock()
	data, ok := e.characters[id]
	if !ok {
		return nil, gamedbcommon.ErrNotFound
	}
	return &data, nil
}

func (e *MemDBEngine) WriteCharacter(data *gamedbcommon.CharacterData) error {
	e.Lock()
	defer e.Unlock()
	e.characters[data.ID] = *data
	return nil
}

func (e *MemDBEngine) DeleteCharacter(id common.CharacterID) error {
	e.Lock()
	defer e.Unlock()
	delete(e.characters, id)
	return nil
}

func (e *MemDBEngine) SetCharacterParty(id common.CharacterID, partyID common.PartyID) error {
	e.Lock()
	defer e.Unlock()
	data, ok := e.characters[id]
	if !ok {
		return nil
	}
	data.PartyID = partyID
	e.characters[id] = data
	return nil
}

func (e *MemDBEngine) SetCharacterGuild(id common.CharacterID, guildID common.GuildID, role byte) error {
	e.Lock()
	defer e.Unlock()
	data, ok := e.characters[id]
	if !ok {
		return nil
	}
	data.GuildID = guildID
	data.GuildRole = role
	e.characters[id] = data
	return nil
}

func (e *MemDBEngine) NextPartyID() (common.PartyID, error) {
	e.Lock()
	defer e.Unlock()
	e.nextPartyID++
	return e.nextPartyID, nil
}

func (e *MemDBEngine) ReadParty(id common.PartyID) (*social.PartyRecord, error) {
	e.Lock()
	defer e.Unlock()
	rec, ok := e.parties[id]
	if !ok {
		return nil, gamedbcommon.ErrNotFound
	}
	return &rec, nil
}

func (e *MemDBEngine) WriteParty(rec *social.PartyRecord) error {
	e.Lock()
	defer e.Unlock()
	e.parties[rec.ID] = *rec
	return nil
}

func (e *MemDBEngine) DeleteParty(id common.PartyID) error {
	e.Lock()
	defer e.Unlock()
	delete(e.parties, id)
	return nil
}

func (e *MemDBEngine) NextGuildID() (common.GuildID, error) {
	e.Lock()
	defer e.Unlock()
	e.nextGuildID++
	return e.nextGuildID, nil
}

func (e *MemDBEngine) FindGuildName(name string) (int, error) {
	e.Lock()
	defer e.Unlock()
	count := 0
	for _, rec := range e.guilds {
		if rec.Name == name {
			count++
		}
	}
	return count, nil
}

func (e *MemDBEngine) ReadGuild(id common.GuildID) (*social.GuildRecord, error) {
	e.Lock()
	defer e.Unlock()
	rec, ok := e.guilds[id]
	if !ok {
		return nil, gamedbcommon.ErrNotFound
	}
	return &rec, nil
}

func (e *MemDBEngine) WriteGuild(rec *social.GuildRecord) error {
	e.Lock()
	defer e.Unlock()
	e.guilds[rec.ID] = *rec
	return nil
}

func (e *MemDBEngine) DeleteGuild(id common.GuildID) error {
	e.Lock()
	defer e.Unlock()
	delete(e.guilds, id)
	return nil
}

func storageKey(storageType proto.StorageType, ownerKey string) string {
	return fmt.Sprintf("%d/%s", storageType, ownerKey)
}

func (e *MemDBEngine) ReadStorageItems(storageType proto.StorageType, ownerKey string) ([]proto.StorageItem, error) {
	e.Lock()
	defer e.Unlock()
	items := e.storages[storageKey(storageType, ownerKey)]
	res := make([]proto.StorageItem, len(items))
	copy(res, items)
	return res, nil
}

func (e *MemDBEngine) WriteStorageItems(storageType proto.StorageType, ownerKey string, items []proto.StorageItem) error {
	e.Lock()
	defer e.Unlock()
	saved := make([]proto.StorageItem, len(items))
	copy(saved, items)
	e.storages[storageKey(storageType, ownerKey)] = saved
	return nil
}

func (e *MemDBEngine) ReadBuildings(mapName string) ([]*gamedbcommon.BuildingData, error) {
	e.Lock()
	defer e.Unlock()
	var buildings []*gamedbcommon.BuildingData
	for _, data := range e.buildings {
		if data.MapName == mapName {
			d := data
			buildings = append(buildings, &d)
		}
	}
	return buildings, nil
}

func (e *MemDBEngine) WriteBuilding(data *gamedbcommon.BuildingData) error {
	e.Lock()
	defer e.Unlock()
	e.buildings[data.ID] = *data
	return nil
}

func (e *MemDBEngine) DeleteBuilding(id common.BuildingID) error {
	e.Lock()
	defer e.Unlock()
	delete(e.buildings, id)
	return nil
}

func (e *MemDBEngine) WriteMail(data *gamedbcommon.MailData) error {
	e.Lock()
	defer e.Unlock()
	if data.ID == "" {
		data.ID = common.MailID(uuid.GenUUID())
	}
	e.mails[data.ID] = *data
	return nil
}

func (e *MemDBEngine) ListMails(receiverID common.UserID) ([]*gamedbcommon.MailData, error) {
	e.Lock()
	defer e.Unlock()
	var mails []*gamedbcommon.MailData
	for _, data := range e.mails {
		if data.ReceiverID == receiverID {
			d := data
			mails = append(mails, &d)
		}
	}
	return mails, nil
}

func (e *MemDBEngine) UpdateMail(data *gamedbcommon.MailData) error {
	return e.WriteMail(data)
}

func (e *MemDBEngine) DeleteMail(id common.MailID) error {
	e.Lock()
	defer e.Unlock()
	delete(e.mails, id)
	return nil
}

func (e *MemDBEngine) ReadFriends(id common.CharacterID) ([]common.CharacterID, error) {
	e.Lock()
	defer e.Unlock()
	var friends []common.CharacterID
	for friendID := range e.friends[id] {
		friends = append(friends, friendID)
	}
	return friends, nil
}

func (e *MemDBEngine) AddFriend(id common.CharacterID, friendID common.CharacterID) error {
	e.Lock()
	defer e.Unlock()
	set := e.friends[id]
	if set == nil {
		set = common.CharacterIDSet{}
		e.friends[id] = set
	}
	set.Add(friendID)
	return nil
}

func (e *MemDBEngine) RemoveFriend(id common.CharacterID, friendID common.CharacterID) error {
	e.Lock()
	defer e.Unlock()
	if set := e.friends[id]; set != nil {
		set.Del(friendID)
	}
	return nil
}

func (e *MemDBEngine) IsEOF(err error) bool {
	return false
}

func (e *MemDBEngine) Close() {
}

// MemCurrencyEngine keeps account balances in memory, used by tests
type MemCurrencyEngine struct {
	sync.Mutex
	gold map[common.UserID]int64
	cash map[common.UserID]int64
}

// OpenMemCurrency opens an empty in-memory currency engine
func OpenMemCurrency() *MemCurrencyEngine {
	return &MemCurrencyEngine{
		gold: map[common.UserID]int64{},
		cash: map[common.UserID]int64{},
	}
}

func (e *MemCurrencyEngine) GetGold(userID common.UserID) (int64, error) {
	e.Lock()
	defer e.Unlock()
	return e.gold[userID], nil
}

func (e *MemCurrencyEngine) ChangeGold(userID common.UserID, delta int64) (int64, error) {
	e.Lock()
	defer e.Unlock()
	e.gold[userID] += delta
	return e.gold[userID], nil
}

func (e *MemCurrencyEngine) GetCash(userID common.UserID) (int64, error) {
	e.Lock()
	defer e.Unlock()
	return e.cash[userID], nil
}

func (e *MemCurrencyEngine) ChangeCash(userID common.UserID, delta int64) (int64, error) {
	e.Lock()
	defer e.Unlock()
	e.cash[userID] += delta
	return e.cash[userID], nil
}

func (e *MemCurrencyEngine) Close() {
}
