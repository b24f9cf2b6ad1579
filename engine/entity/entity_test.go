package entity

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/proto"
)

type pendingSave struct {
	data     *gamedbcommon.CharacterData
	callback func()
}

// fakeDB holds saves until the test pumps them, mimicking the async gamedb
type fakeDB struct {
	pending []pendingSave
	saved   []*gamedbcommon.CharacterData
}

func (db *fakeDB) SaveCharacter(data *gamedbcommon.CharacterData, callback func()) {
	db.pending = append(db.pending, pendingSave{data: data, callback: callback})
}

func (db *fakeDB) completeOne(t *testing.T) *gamedbcommon.CharacterData {
	if len(db.pending) == 0 {
		t.Fatal("no pending save to complete")
	}
	save := db.pending[0]
	db.pending = db.pending[1:]
	db.saved = append(db.saved, save.data)
	if save.callback != nil {
		save.callback()
	}
	return save.data
}

func testData(id common.CharacterID, name string) *gamedbcommon.CharacterData {
	return &gamedbcommon.CharacterData{
		ID:             id,
		UserID:         common.UserID("user" + string(id)),
		Name:           name,
		CurrentHp:      100,
		MaxHp:          100,
		CurrentMapName: "town",
	}
}

func TestSavesAreSerializedPerCharacter(t *testing.T) {
	db := &fakeDB{}
	m := NewManager(db, false, 30, Hooks{})
	c := m.Add(1, testData("char000000000001", "alice"))
	m.Activate(c)

	c.Data.Level = 1
	m.RequestSave(c, nil)
	c.Data.Level = 2
	m.RequestSave(c, nil)

	// the second save must not start while the first is in flight
	assert.Equal(t, 1, len(db.pending))
	first := db.completeOne(t)
	assert.Equal(t, int32(1), first.Level)

	assert.Equal(t, 1, len(db.pending))
	second := db.completeOne(t)
	assert.Equal(t, int32(2), second.Level)
	assert.Equal(t, 0, len(db.pending))

	// queue drained, a later save starts immediately
	m.RequestSave(c, nil)
	assert.Equal(t, 1, len(db.pending))
}

func TestDestroySavesBeforeRemoval(t *testing.T) {
	db := &fakeDB{}
	var removed []common.CharacterID
	m := NewManager(db, false, 30, Hooks{
		OnCharacterRemoved: func(id common.CharacterID) {
			removed = append(removed, id)
		},
	})
	c := m.Add(1, testData("char000000000001", "alice"))
	m.Activate(c)

	done := false
	m.Destroy(c, func() { done = true })
	assert.Equal(t, StateDestroyed, c.State)

	// still registered until the save lands
	assert.T(t, m.Get("char000000000001") != nil, "character should stay until saved")
	assert.T(t, !done, "destroy must wait for the save")

	db.completeOne(t)
	assert.T(t, done, "destroy callback should run after save")
	assert.T(t, m.Get("char000000000001") == nil, "character should be removed")
	assert.Equal(t, []common.CharacterID{"char000000000001"}, removed)

	// destroying twice is a no-op
	m.Destroy(c, func() { t.Fatal("second destroy must not run") })
	assert.Equal(t, 0, len(db.pending))
}

func TestWarpStateMachine(t *testing.T) {
	db := &fakeDB{}
	m := NewManager(db, false, 30, Hooks{})
	c := m.Add(1, testData("char000000000001", "alice"))

	// loading characters cannot warp
	assert.T(t, !m.BeginWarp(c), "loading character must not warp")

	m.Activate(c)
	assert.T(t, c.CanAct(), "active character can act")
	assert.T(t, m.BeginWarp(c), "active character can warp")
	assert.Equal(t, StateWarping, c.State)
	assert.T(t, !c.CanAct(), "warping character must not act")
	assert.T(t, !m.BeginWarp(c), "warping character must not warp again")

	m.CancelWarp(c)
	assert.Equal(t, StateActive, c.State)
	assert.T(t, c.CanAct(), "rollback restores the character")
}

func TestInstanceSavesPreWarpLocation(t *testing.T) {
	db := &fakeDB{}
	m := NewManager(db, true, 30, Hooks{})
	data := testData("char000000000001", "alice")
	data.CurrentMapName = "dungeon-copy"
	data.CurrentX, data.CurrentY, data.CurrentZ = 5, 0, 5
	c := m.Add(1, data)
	m.Activate(c)
	c.MarkPreWarpLocation("town", 1, 2, 3)

	m.RequestSave(c, nil)
	saved := db.completeOne(t)
	assert.Equal(t, "town", saved.CurrentMapName)
	assert.Equal(t, float64(1), saved.CurrentX)
	assert.Equal(t, float64(3), saved.CurrentZ)
	// the live record keeps the instance position
	assert.Equal(t, "dungeon-copy", c.Data.CurrentMapName)
}

func TestPendingSpawnReplay(t *testing.T) {
	m := NewManager(&fakeDB{}, false, 30, Hooks{})

	var order []int
	m.WhenReady(func() { order = append(order, 1) })
	m.WhenReady(func() { order = append(order, 2) })
	assert.Equal(t, 0, len(order))

	m.SetReady()
	assert.Equal(t, []int{1, 2}, order)

	m.WhenReady(func() { order = append(order, 3) })
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestGatherPartyMembers(t *testing.T) {
	db := &fakeDB{}
	m := NewManager(db, false, 30, Hooks{})

	leader := m.Add(1, testData("leader0000000001", "lena"))
	leader.Data.PartyID = 7
	m.Activate(leader)

	near := m.Add(2, testData("member0000000002", "mia"))
	near.Data.PartyID = 7
	near.Data.CurrentX = 10
	m.Activate(near)

	far := m.Add(3, testData("member0000000003", "finn"))
	far.Data.PartyID = 7
	far.Data.CurrentX = 100
	m.Activate(far)

	dead := m.Add(4, testData("member0000000004", "dora"))
	dead.Data.PartyID = 7
	dead.Data.CurrentHp = 0
	m.Activate(dead)

	other := m.Add(5, testData("member0000000005", "omar"))
	other.Data.PartyID = 8
	m.Activate(other)

	gathered := m.GatherPartyMembers(leader)
	assert.Equal(t, 2, len(gathered))
	assert.Equal(t, leader, gathered[0])
	assert.Equal(t, near, gathered[1])

	// a character without a party goes alone
	solo := m.Add(6, testData("solo000000000006", "sol"))
	m.Activate(solo)
	assert.Equal(t, []*Character{solo}, m.GatherPartyMembers(solo))
}

func TestSummaryTable(t *testing.T) {
	table := NewSummaryTable()
	table.Put(&proto.SocialCharacterSummary{ID: "char000000000001", Name: "alice"})
	table.Put(&proto.SocialCharacterSummary{ID: "char000000000002", Name: "bob"})

	assert.Equal(t, 2, table.Count())
	assert.Equal(t, common.CharacterID("char000000000001"), table.GetByName("alice").ID)

	// rename keeps the name index consistent
	table.Put(&proto.SocialCharacterSummary{ID: "char000000000001", Name: "alicia"})
	assert.T(t, table.GetByName("alice") == nil, "old name should resolve to nothing")
	assert.Equal(t, common.CharacterID("char000000000001"), table.GetByName("alicia").ID)

	table.Remove("char000000000001")
	assert.T(t, table.Get("char000000000001") == nil, "removed character should be gone")
	assert.T(t, table.GetByName("alicia") == nil, "removed name should be gone")
	assert.Equal(t, 1, table.Count())
}
