package storage

import (
	"fmt"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

// fakeDB runs callbacks inline so tests stay deterministic
type fakeDB struct {
	records map[string][]proto.StorageItem
	writes  int
	readErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{records: map[string][]proto.StorageItem{}}
}

func (db *fakeDB) key(storageType proto.StorageType, ownerKey string) string {
	return fmt.Sprintf("%d/%s", storageType, ownerKey)
}

func (db *fakeDB) ReadStorageItems(storageType proto.StorageType, ownerKey string, callback func(items []proto.StorageItem, err error)) {
	if db.readErr != nil {
		callback(nil, db.readErr)
		return
	}
	items := db.records[db.key(storageType, ownerKey)]
	res := make([]proto.StorageItem, len(items))
	copy(res, items)
	callback(res, nil)
}

func (db *fakeDB) SaveStorageItems(storageType proto.StorageType, ownerKey string, items []proto.StorageItem, callback func()) {
	saved := make([]proto.StorageItem, len(items))
	copy(saved, items)
	db.records[db.key(storageType, ownerKey)] = saved
	db.writes++
	callback()
}

var testOpts = Options{
	PlayerSlots:   5,
	GuildSlots:    5,
	BuildingSlots: 5,
}

func newTestHandlers(db *fakeDB, notify Notifier) *Handlers {
	return NewHandlers(db, testOpts, nil, notify)
}

func guildActor(connID common.ConnectionID, guildID common.GuildID) Actor {
	return Actor{
		ConnectionID: connID,
		CharacterID:  common.CharacterID(fmt.Sprintf("char%012d", connID)),
		UserID:       common.UserID(fmt.Sprintf("user%012d", connID)),
		GuildID:      guildID,
	}
}

func mustOpen(t *testing.T, h *Handlers, actor Actor, id StorageID) []proto.StorageItem {
	var opened []proto.StorageItem
	called := false
	h.Open(actor, id, func(items []proto.StorageItem, code proto.ResultCode) {
		called = true
		assert.Equal(t, proto.RC_OK, code)
		opened = items
	})
	assert.T(t, called, "open callback should run")
	return opened
}

func TestOpenPermissions(t *testing.T) {
	h := newTestHandlers(newFakeDB(), nil)

	actor := guildActor(1, 7)
	h.Open(actor, GuildStorageID(9), func(items []proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_CANNOT_ACCESS_STORAGE, code)
	})
	h.Open(actor, PlayerStorageID("someone else"), func(items []proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_CANNOT_ACCESS_STORAGE, code)
	})

	items := mustOpen(t, h, actor, GuildStorageID(7))
	assert.Equal(t, testOpts.GuildSlots, len(items))
}

func TestGuildReloadRoundTrip(t *testing.T) {
	db := newFakeDB()
	id := GuildStorageID(7)

	// world X deposits an item
	hx := newTestHandlers(db, nil)
	ax := guildActor(1, 7)
	mustOpen(t, hx, ax, id)
	hx.MoveItemToStorage(ax, id, proto.StorageItem{DataID: 100, Amount: 3}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})

	// world Y opens the same guild storage and sees it
	hy := newTestHandlers(db, nil)
	ay := guildActor(2, 7)
	items := mustOpen(t, hy, ay, id)
	assert.Equal(t, proto.StorageItem{DataID: 100, Amount: 3}, items[0])
}

func TestOpenReportsLoadFailure(t *testing.T) {
	db := newFakeDB()
	db.readErr = errors.New("db down")
	h := newTestHandlers(db, nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	called := false
	h.Open(actor, id, func(items []proto.StorageItem, code proto.ResultCode) {
		called = true
		assert.Equal(t, proto.RC_SERVICE_UNAVAILABLE, code)
	})
	assert.T(t, called, "open callback should run when the load fails")
	assert.Equal(t, 0, h.CountSessions(id))

	h.IncreaseStorageItems(id, []proto.StorageItem{{DataID: 100, Amount: 1}}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_SERVICE_UNAVAILABLE, code)
	})

	// the record works again once the database recovers
	db.readErr = nil
	mustOpen(t, h, actor, id)
}

func TestCloseIdempotent(t *testing.T) {
	h := newTestHandlers(newFakeDB(), nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	mustOpen(t, h, actor, id)
	assert.Equal(t, 1, h.CountSessions(id))

	h.Close(actor.ConnectionID)
	assert.Equal(t, 0, h.CountSessions(id))
	h.Close(actor.ConnectionID)
	assert.Equal(t, 0, h.CountSessions(id))

	// closed sessions cannot mutate
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 100, Amount: 1}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_STORAGE_NOT_OPENED, code)
	})
}

func TestInvalidSlotIsNoop(t *testing.T) {
	db := newFakeDB()
	h := newTestHandlers(db, nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	mustOpen(t, h, actor, id)
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 100, Amount: 3}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	writes := db.writes

	h.MoveItemFromStorage(actor, id, testOpts.GuildSlots, 1, func(item proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_INVALID_STORAGE_SLOT, code)
	})
	h.MoveItemFromStorage(actor, id, -1, 1, func(item proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_INVALID_STORAGE_SLOT, code)
	})
	// withdrawing more than stored is rejected too
	h.MoveItemFromStorage(actor, id, 0, 10, func(item proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_INVALID_ITEM_AMOUNT, code)
	})

	assert.Equal(t, writes, db.writes)
	items := mustOpen(t, h, actor, id)
	assert.Equal(t, proto.StorageItem{DataID: 100, Amount: 3}, items[0])
}

func TestWithdrawAndMerge(t *testing.T) {
	h := newTestHandlers(newFakeDB(), nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	mustOpen(t, h, actor, id)
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 100, Amount: 3}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	// same kind merges into the existing stack
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 100, Amount: 2}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})

	h.MoveItemFromStorage(actor, id, 0, 4, func(item proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
		assert.Equal(t, proto.StorageItem{DataID: 100, Amount: 4}, item)
	})

	items := mustOpen(t, h, actor, id)
	assert.Equal(t, proto.StorageItem{DataID: 100, Amount: 1}, items[0])
}

func TestStorageFull(t *testing.T) {
	h := newTestHandlers(newFakeDB(), nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	mustOpen(t, h, actor, id)
	for i := 0; i < testOpts.GuildSlots; i++ {
		h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: int32(100 + i), Amount: 1}, func(code proto.ResultCode) {
			assert.Equal(t, proto.RC_OK, code)
		})
	}
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 999, Amount: 1}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_STORAGE_FULL, code)
	})
}

func TestWeightLimit(t *testing.T) {
	opts := testOpts
	opts.WeightLimit = 10
	opts.ItemWeight = func(dataID int32) int32 { return 2 }
	h := NewHandlers(newFakeDB(), opts, nil, nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	mustOpen(t, h, actor, id)
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 100, Amount: 5}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 101, Amount: 1}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_STORAGE_FULL, code)
	})
}

func TestMutationFansOutToViewers(t *testing.T) {
	notified := map[common.ConnectionID]int{}
	db := newFakeDB()
	h := NewHandlers(db, testOpts, nil, func(connID common.ConnectionID, id StorageID, items []proto.StorageItem) {
		notified[connID]++
	})
	id := GuildStorageID(7)

	a1 := guildActor(1, 7)
	a2 := guildActor(2, 7)
	mustOpen(t, h, a1, id)
	mustOpen(t, h, a2, id)

	h.MoveItemToStorage(a1, id, proto.StorageItem{DataID: 100, Amount: 1}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	assert.Equal(t, 1, notified[1])
	assert.Equal(t, 1, notified[2])
}

func TestSwapOrMerge(t *testing.T) {
	h := newTestHandlers(newFakeDB(), nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	mustOpen(t, h, actor, id)
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 100, Amount: 3}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 200, Amount: 1}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})

	// different kinds swap
	h.SwapOrMergeStorageItem(actor, id, 0, 1, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	items := mustOpen(t, h, actor, id)
	assert.Equal(t, int32(200), items[0].DataID)
	assert.Equal(t, int32(100), items[1].DataID)

	// moving onto an empty slot relocates the stack
	h.SwapOrMergeStorageItem(actor, id, 1, 2, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	items = mustOpen(t, h, actor, id)
	assert.T(t, items[1].IsEmpty(), "source slot should be empty after move")
	assert.Equal(t, int32(100), items[2].DataID)
}

func TestConvertStorageItems(t *testing.T) {
	h := newTestHandlers(newFakeDB(), nil)
	actor := guildActor(1, 7)
	id := GuildStorageID(7)

	mustOpen(t, h, actor, id)
	h.MoveItemToStorage(actor, id, proto.StorageItem{DataID: 100, Amount: 10}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})

	h.ConvertStorageItems(actor, id, 100, 4, 200, 2, func(overflow []proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
		assert.Equal(t, 0, len(overflow))
	})
	items := mustOpen(t, h, actor, id)
	assert.Equal(t, proto.StorageItem{DataID: 100, Amount: 6}, items[0])
	assert.Equal(t, proto.StorageItem{DataID: 200, Amount: 2}, items[1])

	// converting more than stored is rejected without mutation
	h.ConvertStorageItems(actor, id, 100, 100, 200, 1, func(overflow []proto.StorageItem, code proto.ResultCode) {
		assert.Equal(t, proto.RC_INVALID_ITEM_AMOUNT, code)
	})
	items = mustOpen(t, h, actor, id)
	assert.Equal(t, proto.StorageItem{DataID: 100, Amount: 6}, items[0])
}

func TestIncreaseDecrease(t *testing.T) {
	h := newTestHandlers(newFakeDB(), nil)
	id := GuildStorageID(7)

	h.IncreaseStorageItems(id, []proto.StorageItem{
		{DataID: 100, Amount: 5},
		{DataID: 200, Amount: 1},
	}, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})

	h.DecreaseStorageItems(id, 100, 3, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_OK, code)
	})
	h.DecreaseStorageItems(id, 100, 10, func(code proto.ResultCode) {
		assert.Equal(t, proto.RC_INVALID_ITEM_AMOUNT, code)
	})

	actor := guildActor(1, 7)
	items := mustOpen(t, h, actor, id)
	assert.Equal(t, proto.StorageItem{DataID: 100, Amount: 2}, items[0])
}
