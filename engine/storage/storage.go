package storage

import (
	"fmt"
	"strconv"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

// StorageID identifies one shared item container
type StorageID struct {
	Type     proto.StorageType
	OwnerKey string
}

func (id StorageID) String() string {
	return fmt.Sprintf("storage<%d/%s>", id.Type, id.OwnerKey)
}

// PlayerStorageID is the container of one account
func PlayerStorageID(userID common.UserID) StorageID {
	return StorageID{Type: proto.STORAGE_PLAYER, OwnerKey: string(userID)}
}

// GuildStorageID is the shared container of one guild
func GuildStorageID(guildID common.GuildID) StorageID {
	return StorageID{Type: proto.STORAGE_GUILD, OwnerKey: strconv.Itoa(int(guildID))}
}

// BuildingStorageID is the container of one constructed building
func BuildingStorageID(buildingID common.BuildingID) StorageID {
	return StorageID{Type: proto.STORAGE_BUILDING, OwnerKey: string(buildingID)}
}

// Actor identifies the character asking for storage access
type Actor struct {
	ConnectionID common.ConnectionID
	CharacterID  common.CharacterID
	UserID       common.UserID
	GuildID      common.GuildID
}

// DB is the persistence surface the handlers need, satisfied by gamedb
type DB interface {
	ReadStorageItems(storageType proto.StorageType, ownerKey string, callback func(items []proto.StorageItem, err error))
	SaveStorageItems(storageType proto.StorageType, ownerKey string, items []proto.StorageItem, callback func())
}

// Options carries the per-world storage limits
type Options struct {
	PlayerSlots   int
	GuildSlots    int
	BuildingSlots int
	// WeightLimit caps the summed item weight per container, 0 disables the check
	WeightLimit int32
	ItemWeight  func(dataID int32) int32
}

// BuildingResolver looks up a resident building, nil if unknown
type BuildingResolver func(id common.BuildingID) *gamedbcommon.BuildingData

// Notifier pushes the current slot list to one viewing session
type Notifier func(connID common.ConnectionID, id StorageID, items []proto.StorageItem)

// Handlers arbitrates shared storage access for one world process.
// All methods must be called from the service goroutine.
type Handlers struct {
	db              DB
	opts            Options
	resolveBuilding BuildingResolver
	notify          Notifier

	items          map[StorageID][]proto.StorageItem
	usingSessions  map[StorageID]common.ConnectionIDSet
	sessionStorage map[common.ConnectionID]StorageID
}

// NewHandlers creates the storage handlers of a world process
func NewHandlers(db DB, opts Options, resolveBuilding BuildingResolver, notify Notifier) *Handlers {
	return &Handlers{
		db:              db,
		opts:            opts,
		resolveBuilding: resolveBuilding,
		notify:          notify,
		items:           map[StorageID][]proto.StorageItem{},
		usingSessions:   map[StorageID]common.ConnectionIDSet{},
		sessionStorage:  map[common.ConnectionID]StorageID{},
	}
}

func (h *Handlers) slotLimit(storageType proto.StorageType) int {
	switch storageType {
	case proto.STORAGE_PLAYER:
		return h.opts.PlayerSlots
	case proto.STORAGE_GUILD:
		return h.opts.GuildSlots
	case proto.STORAGE_BUILDING:
		return h.opts.BuildingSlots
	default:
		return 0
	}
}

// normalizeItems pads/truncates the slot list to the limit and zeroes empty slots
func normalizeItems(items []proto.StorageItem, limit int) []proto.StorageItem {
	normalized := make([]proto.StorageItem, limit)
	for i := 0; i < limit && i < len(items); i++ {
		if !items[i].IsEmpty() {
			normalized[i] = items[i]
		}
	}
	return normalized
}

func (h *Handlers) totalWeight(items []proto.StorageItem) int32 {
	if h.opts.ItemWeight == nil {
		return 0
	}
	var total int32
	for _, it := range items {
		if !it.IsEmpty() {
			total += h.opts.ItemWeight(it.DataID) * it.Amount
		}
	}
	return total
}

func (h *Handlers) checkWeight(items []proto.StorageItem, add proto.StorageItem) bool {
	if h.opts.WeightLimit <= 0 || h.opts.ItemWeight == nil {
		return true
	}
	return h.totalWeight(items)+h.opts.ItemWeight(add.DataID)*add.Amount <= h.opts.WeightLimit
}

// CanAccess permission-checks the actor against the storage owner
func (h *Handlers) CanAccess(actor Actor, id StorageID) proto.ResultCode {
	switch id.Type {
	case proto.STORAGE_PLAYER:
		if id.OwnerKey != string(actor.UserID) {
			return proto.RC_CANNOT_ACCESS_STORAGE
		}
	case proto.STORAGE_GUILD:
		if actor.GuildID == 0 || id.OwnerKey != strconv.Itoa(int(actor.GuildID)) {
			return proto.RC_CANNOT_ACCESS_STORAGE
		}
	case proto.STORAGE_BUILDING:
		if h.resolveBuilding == nil {
			return proto.RC_CANNOT_ACCESS_STORAGE
		}
		building := h.resolveBuilding(common.BuildingID(id.OwnerKey))
		if building == nil {
			return proto.RC_CANNOT_ACCESS_STORAGE
		}
		if building.CreatorID != actor.CharacterID && !building.CanUseByEveryone {
			return proto.RC_CANNOT_ACCESS_STORAGE
		}
	default:
		return proto.RC_CANNOT_ACCESS_STORAGE
	}
	return proto.RC_OK
}

// withRecord runs fn with the current slot list of the storage, loading from
// the database when the record is absent or reload is forced. A failed load
// still invokes fn, with the error, so callers can answer the client.
func (h *Handlers) withRecord(id StorageID, reload bool, fn func(items []proto.StorageItem, err error)) {
	if !reload {
		if items, ok := h.items[id]; ok {
			fn(items, nil)
			return
		}
	}

	h.db.ReadStorageItems(id.Type, id.OwnerKey, func(items []proto.StorageItem, err error) {
		if err != nil {
			wlog.Errorf("storage: load %s failed: %s", id, err)
			fn(nil, err)
			return
		}
		items = normalizeItems(items, h.slotLimit(id.Type))
		h.items[id] = items
		fn(items, nil)
	})
}

// Open permission-checks and registers the session as a viewer of the storage.
// Guild records always reload from the database because sibling worlds may
// have written them since this world last cached them.
func (h *Handlers) Open(actor Actor, id StorageID, callback func(items []proto.StorageItem, code proto.ResultCode)) {
	if code := h.CanAccess(actor, id); code != proto.RC_OK {
		callback(nil, code)
		return
	}

	h.withRecord(id, id.Type == proto.STORAGE_GUILD, func(items []proto.StorageItem, err error) {
		if err != nil {
			callback(nil, proto.RC_SERVICE_UNAVAILABLE)
			return
		}

		// a session views at most one storage at a time
		h.Close(actor.ConnectionID)

		sessions := h.usingSessions[id]
		if sessions == nil {
			sessions = common.ConnectionIDSet{}
			h.usingSessions[id] = sessions
		}
		sessions.Add(actor.ConnectionID)
		h.sessionStorage[actor.ConnectionID] = id
		callback(items, proto.RC_OK)
	})
}

// Close removes the session from whatever storage it is viewing, idempotent
func (h *Handlers) Close(connID common.ConnectionID) {
	id, ok := h.sessionStorage[connID]
	if !ok {
		return
	}
	delete(h.sessionStorage, connID)
	if sessions := h.usingSessions[id]; sessions != nil {
		sessions.Del(connID)
		if len(sessions) == 0 {
			delete(h.usingSessions, id)
		}
	}
}

// Viewing returns the storage the session has open, if any
func (h *Handlers) Viewing(connID common.ConnectionID) (StorageID, bool) {
	id, ok := h.sessionStorage[connID]
	return id, ok
}

// CountSessions returns how many sessions have the storage open
func (h *Handlers) CountSessions(id StorageID) int {
	return len(h.usingSessions[id])
}

// Preload caches a slot list without any session, used for building storages
// loaded at world boot
func (h *Handlers) Preload(id StorageID, items []proto.StorageItem) {
	h.items[id] = normalizeItems(items, h.slotLimit(id.Type))
}

// mutateRecord reloads the record when needed, applies the mutation, persists
// the result and fans the new slot list out to every viewing session. The
// mutation runs on a copy so a rejected mutation leaves the record untouched.
func (h *Handlers) mutateRecord(id StorageID, mutate func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode), callback func(code proto.ResultCode)) {
	h.withRecord(id, id.Type == proto.STORAGE_GUILD, func(items []proto.StorageItem, err error) {
		if err != nil {
			callback(proto.RC_SERVICE_UNAVAILABLE)
			return
		}

		work := make([]proto.StorageItem, len(items))
		copy(work, items)

		work, code := mutate(work)
		if code != proto.RC_OK {
			callback(code)
			return
		}

		work = normalizeItems(work, h.slotLimit(id.Type))
		h.items[id] = work
		h.db.SaveStorageItems(id.Type, id.OwnerKey, work, func() {
			if h.notify != nil {
				for connID := range h.usingSessions[id] {
					h.notify(connID, id, work)
				}
			}
			callback(proto.RC_OK)
		})
	})
}

// mutateOpened is mutateRecord gated on the actor actually viewing the storage
func (h *Handlers) mutateOpened(actor Actor, id StorageID, mutate func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode), callback func(code proto.ResultCode)) {
	if viewing, ok := h.sessionStorage[actor.ConnectionID]; !ok || viewing != id {
		callback(proto.RC_STORAGE_NOT_OPENED)
		return
	}
	h.mutateRecord(id, mutate, callback)
}

// addToSlots merges the item into a matching stack or the first empty slot,
// returning false when no slot can take it
func addToSlots(items []proto.StorageItem, item proto.StorageItem) bool {
	for i := range items {
		if !items[i].IsEmpty() && items[i].DataID == item.DataID && items[i].Level == item.Level {
			items[i].Amount += item.Amount
			return true
		}
	}
	for i := range items {
		if items[i].IsEmpty() {
			items[i] = item
			return true
		}
	}
	return false
}

// MoveItemToStorage deposits one item stack into the storage
func (h *Handlers) MoveItemToStorage(actor Actor, id StorageID, item proto.StorageItem, callback func(code proto.ResultCode)) {
	h.mutateOpened(actor, id, func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode) {
		if item.IsEmpty() {
			return nil, proto.RC_INVALID_ITEM_AMOUNT
		}
		if !h.checkWeight(items, item) {
			return nil, proto.RC_STORAGE_FULL
		}
		if !addToSlots(items, item) {
			return nil, proto.RC_STORAGE_FULL
		}
		return items, proto.RC_OK
	}, callback)
}

// MoveItemFromStorage withdraws an amount from one slot, handing the withdrawn
// stack to the callback after the new record is persisted
func (h *Handlers) MoveItemFromStorage(actor Actor, id StorageID, slot int, amount int32, callback func(item proto.StorageItem, code proto.ResultCode)) {
	var withdrawn proto.StorageItem
	h.mutateOpened(actor, id, func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode) {
		if slot < 0 || slot >= len(items) {
			return nil, proto.RC_INVALID_STORAGE_SLOT
		}
		if items[slot].IsEmpty() || amount <= 0 || amount > items[slot].Amount {
			return nil, proto.RC_INVALID_ITEM_AMOUNT
		}

		withdrawn = items[slot]
		withdrawn.Amount = amount
		items[slot].Amount -= amount
		return items, proto.RC_OK
	}, func(code proto.ResultCode) {
		if code != proto.RC_OK {
			callback(proto.StorageItem{}, code)
			return
		}
		callback(withdrawn, proto.RC_OK)
	})
}

// SwapOrMergeStorageItem merges matching stacks or swaps two slots in place
func (h *Handlers) SwapOrMergeStorageItem(actor Actor, id StorageID, fromSlot int, toSlot int, callback func(code proto.ResultCode)) {
	h.mutateOpened(actor, id, func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode) {
		if fromSlot < 0 || fromSlot >= len(items) || toSlot < 0 || toSlot >= len(items) {
			return nil, proto.RC_INVALID_STORAGE_SLOT
		}
		if fromSlot == toSlot || items[fromSlot].IsEmpty() {
			return nil, proto.RC_INVALID_ITEM_AMOUNT
		}

		from, to := items[fromSlot], items[toSlot]
		if !to.IsEmpty() && to.DataID == from.DataID && to.Level == from.Level {
			items[toSlot].Amount += from.Amount
			items[fromSlot] = proto.StorageItem{}
		} else {
			items[fromSlot], items[toSlot] = to, from
		}
		return items, proto.RC_OK
	}, callback)
}

// IncreaseStorageItems adds item stacks without a viewing session, rejecting
// the whole batch when the slots cannot take all of it
func (h *Handlers) IncreaseStorageItems(id StorageID, add []proto.StorageItem, callback func(code proto.ResultCode)) {
	h.mutateRecord(id, func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode) {
		for _, item := range add {
			if item.IsEmpty() {
				return nil, proto.RC_INVALID_ITEM_AMOUNT
			}
			if !h.checkWeight(items, item) {
				return nil, proto.RC_STORAGE_FULL
			}
			if !addToSlots(items, item) {
				return nil, proto.RC_STORAGE_FULL
			}
		}
		return items, proto.RC_OK
	}, callback)
}

// DecreaseStorageItems removes an amount of one item kind across slots,
// rejecting when the storage holds less than requested
func (h *Handlers) DecreaseStorageItems(id StorageID, dataID int32, amount int32, callback func(code proto.ResultCode)) {
	h.mutateRecord(id, func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode) {
		if amount <= 0 {
			return nil, proto.RC_INVALID_ITEM_AMOUNT
		}

		var total int32
		for _, it := range items {
			if !it.IsEmpty() && it.DataID == dataID {
				total += it.Amount
			}
		}
		if total < amount {
			return nil, proto.RC_INVALID_ITEM_AMOUNT
		}

		remain := amount
		for i := range items {
			if remain == 0 {
				break
			}
			if items[i].IsEmpty() || items[i].DataID != dataID {
				continue
			}
			take := items[i].Amount
			if take > remain {
				take = remain
			}
			items[i].Amount -= take
			remain -= take
		}
		return items, proto.RC_OK
	}, callback)
}

// ConvertStorageItems turns fromAmount of one item kind into toAmount of
// another; converted stacks that do not fit are handed back to the caller
// instead of failing the conversion
func (h *Handlers) ConvertStorageItems(actor Actor, id StorageID, fromDataID int32, fromAmount int32, toDataID int32, toAmount int32, callback func(overflow []proto.StorageItem, code proto.ResultCode)) {
	var overflow []proto.StorageItem
	h.mutateOpened(actor, id, func(items []proto.StorageItem) ([]proto.StorageItem, proto.ResultCode) {
		if fromAmount <= 0 || toAmount <= 0 {
			return nil, proto.RC_INVALID_ITEM_AMOUNT
		}

		var total int32
		for _, it := range items {
			if !it.IsEmpty() && it.DataID == fromDataID {
				total += it.Amount
			}
		}
		if total < fromAmount {
			return nil, proto.RC_INVALID_ITEM_AMOUNT
		}

		remain := fromAmount
		for i := range items {
			if remain == 0 {
				break
			}
			if items[i].IsEmpty() || items[i].DataID != fromDataID {
				continue
			}
			take := items[i].Amount
			if take > remain {
				take = remain
			}
			items[i].Amount -= take
			remain -= take
		}

		converted := proto.StorageItem{DataID: toDataID, Amount: toAmount}
		if !h.checkWeight(items, converted) || !addToSlots(items, converted) {
			overflow = append(overflow, converted)
		}
		return items, proto.RC_OK
	}, func(code proto.ResultCode) {
		if code != proto.RC_OK {
			callback(nil, code)
			return
		}
		callback(overflow, proto.RC_OK)
	})
}
