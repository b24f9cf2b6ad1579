package entity

import (
	"github.com/xiaonanln/go-aoi"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

// DB is the persistence surface the manager needs, satisfied by gamedb
type DB interface {
	SaveCharacter(data *gamedbcommon.CharacterData, callback func())
}

// Hooks are fired by the manager so the world service can broadcast presence
type Hooks struct {
	OnCharacterAdded   func(summary *proto.SocialCharacterSummary)
	OnCharacterRemoved func(id common.CharacterID)
	OnCharacterOnline  func(summary *proto.SocialCharacterSummary)
}

// Manager tracks the resident characters of one world process.
// All methods must be called from the service goroutine.
type Manager struct {
	db           DB
	hooks        Hooks
	isInstance   bool
	joinDistance float64
	aoiMgr       aoi.AOIManager

	characters   map[common.CharacterID]*Character
	byConnection map[common.ConnectionID]*Character

	ready         bool
	pendingSpawns []func()
}

// NewManager creates the character manager of a world process
func NewManager(db DB, isInstance bool, joinDistance float64, hooks Hooks) *Manager {
	return &Manager{
		db:           db,
		hooks:        hooks,
		isInstance:   isInstance,
		joinDistance: joinDistance,
		characters:   map[common.CharacterID]*Character{},
		byConnection: map[common.ConnectionID]*Character{},
	}
}

// UseAOI enables proximity tracking through the aoi manager
func (m *Manager) UseAOI(mgr aoi.AOIManager) {
	m.aoiMgr = mgr
}

// SetReady marks static data as loaded and replays queued spawns in order
func (m *Manager) SetReady() {
	if m.ready {
		return
	}
	m.ready = true
	pending := m.pendingSpawns
	m.pendingSpawns = nil
	for _, fn := range pending {
		fn()
	}
}

// WhenReady runs fn now, or queues it until SetReady for clients that arrive
// before the world finished loading static data
func (m *Manager) WhenReady(fn func()) {
	if m.ready {
		fn()
		return
	}
	m.pendingSpawns = append(m.pendingSpawns, fn)
}

// Add registers a character in Loading state
func (m *Manager) Add(connID common.ConnectionID, data *gamedbcommon.CharacterData) *Character {
	c := &Character{
		ConnectionID: connID,
		Data:         data,
		State:        StateLoading,
		neighbors:    map[*Character]struct{}{},
	}
	m.characters[data.ID] = c
	m.byConnection[connID] = c
	return c
}

// Activate transitions a loaded character to Active and announces it
func (m *Manager) Activate(c *Character) {
	if c.State != StateLoading {
		wlog.Warnf("entity: activating %s", c)
	}
	c.State = StateActive

	if m.aoiMgr != nil {
		aoi.InitAOI(&c.aoi, aoi.Coord(m.joinDistance), c, c)
		m.aoiMgr.Enter(&c.aoi, aoi.Coord(c.Data.CurrentX), aoi.Coord(c.Data.CurrentZ))
		c.inAOI = true
	}

	if m.hooks.OnCharacterAdded != nil {
		m.hooks.OnCharacterAdded(c.Data.Summary())
	}
}

// Move updates the character position
func (m *Manager) Move(c *Character, x float64, y float64, z float64) {
	c.Data.CurrentX, c.Data.CurrentY, c.Data.CurrentZ = x, y, z
	if c.inAOI {
		m.aoiMgr.Moved(&c.aoi, aoi.Coord(x), aoi.Coord(z))
	}
}

// NotifyOnline re-announces the character summary after stat changes
func (m *Manager) NotifyOnline(c *Character) {
	if m.hooks.OnCharacterOnline != nil {
		m.hooks.OnCharacterOnline(c.Data.Summary())
	}
}

// BeginWarp transitions Active -> Warping, refusing characters that are
// loading, already warping or destroyed
func (m *Manager) BeginWarp(c *Character) bool {
	if c.State != StateActive {
		return false
	}
	c.State = StateWarping
	return true
}

// CancelWarp rolls a warping character back to Active
func (m *Manager) CancelWarp(c *Character) {
	if c.State == StateWarping {
		c.State = StateActive
	}
}

// MarkPreWarpLocation records the character's durable location before it
// entered this instance
func (c *Character) MarkPreWarpLocation(mapName string, x float64, y float64, z float64) {
	c.PreWarpMapName = mapName
	c.PreWarpX, c.PreWarpY, c.PreWarpZ = x, y, z
}

// effectiveSaveData snapshots the character record; on instance worlds the
// pre-warp location is the durable one
func (m *Manager) effectiveSaveData(c *Character) *gamedbcommon.CharacterData {
	data := *c.Data
	if m.isInstance && c.PreWarpMapName != "" {
		data.CurrentMapName = c.PreWarpMapName
		data.CurrentX, data.CurrentY, data.CurrentZ = c.PreWarpX, c.PreWarpY, c.PreWarpZ
	}
	return &data
}

// RequestSave persists the character. Saves for the same character never run
// concurrently: a save requested while one is in flight is queued and started
// when the running one completes.
func (m *Manager) RequestSave(c *Character, callback func()) {
	req := &saveRequest{data: m.effectiveSaveData(c), callback: callback}
	if c.saving {
		c.pendingSaves = append(c.pendingSaves, req)
		return
	}
	c.saving = true
	m.startSave(c, req)
}

func (m *Manager) startSave(c *Character, req *saveRequest) {
	m.db.SaveCharacter(req.data, func() {
		if req.callback != nil {
			req.callback()
		}
		if len(c.pendingSaves) > 0 {
			next := c.pendingSaves[0]
			c.pendingSaves = c.pendingSaves[1:]
			m.startSave(c, next)
		} else {
			c.saving = false
		}
	})
}

// SaveAll requests a best-effort save of every resident character
func (m *Manager) SaveAll() {
	for _, c := range m.characters {
		if c.State != StateDestroyed {
			m.RequestSave(c, nil)
		}
	}
}

// SaveAllThen saves every resident character and runs callback once every
// save has landed, used on shutdown
func (m *Manager) SaveAllThen(callback func()) {
	remaining := 0
	for _, c := range m.characters {
		if c.State == StateDestroyed {
			continue
		}
		remaining++
		m.RequestSave(c, func() {
			remaining--
			if remaining == 0 {
				callback()
			}
		})
	}
	if remaining == 0 {
		callback()
	}
}

// Destroy saves the character and removes it from the world once the save
// has landed. The record is always durable before the entity disappears.
func (m *Manager) Destroy(c *Character, callback func()) {
	if c.State == StateDestroyed {
		return
	}
	c.State = StateDestroyed

	if c.inAOI {
		m.aoiMgr.Leave(&c.aoi)
		c.inAOI = false
	}

	m.RequestSave(c, func() {
		delete(m.characters, c.Data.ID)
		delete(m.byConnection, c.ConnectionID)
		if m.hooks.OnCharacterRemoved != nil {
			m.hooks.OnCharacterRemoved(c.Data.ID)
		}
		if callback != nil {
			callback()
		}
	})
}

// Get returns a resident character by id
func (m *Manager) Get(id common.CharacterID) *Character {
	return m.characters[id]
}

// GetByConnection returns the character of a client connection
func (m *Manager) GetByConnection(connID common.ConnectionID) *Character {
	return m.byConnection[connID]
}

// Count returns the number of resident characters
func (m *Manager) Count() int {
	return len(m.characters)
}

// ForEach visits every resident character
func (m *Manager) ForEach(fn func(c *Character)) {
	for _, c := range m.characters {
		fn(c)
	}
}

// GatherPartyMembers collects the leader plus every alive, active member of
// the leader's party within the join distance
func (m *Manager) GatherPartyMembers(leader *Character) []*Character {
	gathered := []*Character{leader}
	partyID := leader.Data.PartyID
	if partyID == 0 {
		return gathered
	}

	consider := func(other *Character) {
		if other == leader || other.Data.PartyID != partyID {
			return
		}
		if other.State != StateActive || !other.IsAlive() {
			return
		}
		dx := other.Data.CurrentX - leader.Data.CurrentX
		dz := other.Data.CurrentZ - leader.Data.CurrentZ
		if dx*dx+dz*dz <= m.joinDistance*m.joinDistance {
			gathered = append(gathered, other)
		}
	}

	if leader.inAOI {
		for other := range leader.neighbors {
			consider(other)
		}
	} else {
		for _, other := range m.characters {
			consider(other)
		}
	}
	return gathered
}
