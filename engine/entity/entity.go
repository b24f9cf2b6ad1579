package entity

import (
	"fmt"

	"github.com/xiaonanln/go-aoi"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
)

// State is the lifecycle state of a resident character
type State int

// Character lifecycle states
const (
	StateLoading State = iota
	StateActive
	StateWarping
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateWarping:
		return "warping"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state<%d>", int(s))
	}
}

type saveRequest struct {
	data     *gamedbcommon.CharacterData
	callback func()
}

// Character is one resident character of a world process
type Character struct {
	ConnectionID common.ConnectionID
	Data         *gamedbcommon.CharacterData
	State        State

	aoi       aoi.AOI
	inAOI     bool
	neighbors map[*Character]struct{}

	saving       bool
	pendingSaves []*saveRequest

	// instance worlds remember where the character came from so the
	// disposable map never becomes the durable location
	PreWarpMapName string
	PreWarpX       float64
	PreWarpY       float64
	PreWarpZ       float64
}

func (c *Character) String() string {
	return fmt.Sprintf("character<%s/%s>", c.Data.ID, c.State)
}

// CanAct reports whether the character accepts storage/party/trade operations
func (c *Character) CanAct() bool {
	return c.State == StateActive
}

// IsAlive reports whether the character is alive
func (c *Character) IsAlive() bool {
	return c.Data.CurrentHp > 0
}

// OnEnterAOI implements the aoi callback
func (c *Character) OnEnterAOI(otherAOI *aoi.AOI) {
	other := otherAOI.Data.(*Character)
	c.neighbors[other] = struct{}{}
}

// OnLeaveAOI implements the aoi callback
func (c *Character) OnLeaveAOI(otherAOI *aoi.AOI) {
	other := otherAOI.Data.(*Character)
	delete(c.neighbors, other)
}
