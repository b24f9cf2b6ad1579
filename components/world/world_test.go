package world

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/config"
	"github.com/irikarra/worldlink/engine/entity"
	"github.com/irikarra/worldlink/engine/gamedb"
	"github.com/irikarra/worldlink/engine/gamedb/backend/memdb"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/post"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
)

func TestMain(m *testing.M) {
	config.SetConfigFile("../../worldlink.ini.sample")
	gamedb.SetEngine(gamedbmemdb.OpenMemDB())
	gamedb.SetCurrencyEngine(gamedbmemdb.OpenMemCurrency())
	m.Run()
	gamedb.Shutdown()
}

// newTestWorld builds a world service without listening or connecting anywhere.
// With no central/chat links the broadcasts degrade to no-ops, which is what
// the handler tests want: they assert on replica and database state.
func newTestWorld() *WorldService {
	cfg := config.GetWorld(1)
	ws := newWorldService(cfg, cfg.MapName, "", proto.WarpTarget{})
	ws.entities.SetReady()
	return ws
}

var nextTestConnID int64

func addResident(ws *WorldService, id common.CharacterID, userID common.UserID, name string) *entity.Character {
	connID := common.ConnectionID(atomic.AddInt64(&nextTestConnID, 1))
	data := &gamedbcommon.CharacterData{
		ID:             id,
		UserID:         userID,
		Name:           name,
		CurrentMapName: ws.mapName,
		CurrentHp:      100,
		MaxHp:          100,
	}
	c := ws.entities.Add(connID, data)
	ws.entities.Activate(c)
	return c
}

func putTestGuild(ws *WorldService, guildID common.GuildID, leader *entity.Character, members ...*entity.Character) *social.Guild {
	g := social.NewGuild(guildID, "TestGuild", leader.Data.ID)
	g.AddMember(*leader.Data.Summary(), social.GUILD_LEADER_ROLE)
	leader.Data.GuildID = guildID
	leader.Data.GuildRole = social.GUILD_LEADER_ROLE
	for _, m := range members {
		g.AddMember(*m.Data.Summary(), social.GUILD_DEFAULT_MEMBER_ROLE)
		m.Data.GuildID = guildID
		m.Data.GuildRole = social.GUILD_DEFAULT_MEMBER_ROLE
	}
	ws.social.PutGuild(g)
	return g
}

func putTestParty(ws *WorldService, partyID common.PartyID, leader *entity.Character, members ...*entity.Character) *social.Party {
	p := social.NewParty(partyID, leader.Data.ID, false, false)
	p.AddMember(*leader.Data.Summary())
	leader.Data.PartyID = partyID
	for _, m := range members {
		p.AddMember(*m.Data.Summary())
		m.Data.PartyID = partyID
	}
	ws.social.PutParty(p)
	return p
}

// pump runs posted callbacks until cond holds
func pump(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(time.Second * 5)
	for !cond() {
		post.Tick()
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for world callback")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSetGuildRole(t *testing.T) {
	ws := newTestWorld()
	leader := addResident(ws, "role-lead", "user-role-lead", "Lead")
	member := addResident(ws, "role-mem", "user-role-mem", "Mem")
	g := putTestGuild(ws, 31, leader, member)

	officer := proto.GuildRole{Name: "Officer", CanInvite: true}

	// only the leader edits role definitions
	ws.setGuildRole(member, 2, officer)
	assert.Equal(t, 2, len(g.Roles))

	// the leader slot is fixed
	ws.setGuildRole(leader, social.GUILD_LEADER_ROLE, officer)
	assert.Equal(t, "Leader", g.Roles[social.GUILD_LEADER_ROLE].Name)

	// a role needs a name
	ws.setGuildRole(leader, 2, proto.GuildRole{})
	assert.Equal(t, 2, len(g.Roles))

	ws.setGuildRole(leader, 2, officer)
	assert.Equal(t, 3, len(g.Roles))
	assert.Equal(t, "Officer", g.Roles[2].Name)

	done := false
	gamedb.ReadGuild(31, func(rec *social.GuildRecord, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, 3, len(rec.Roles))
		assert.Equal(t, "Officer", rec.Roles[2].Name)
		done = true
	})
	pump(t, func() bool { return done })
}

func TestSetGuildMemberRole(t *testing.T) {
	ws := newTestWorld()
	leader := addResident(ws, "mrole-lead", "user-mrole-lead", "Lead")
	member := addResident(ws, "mrole-mem", "user-mrole-mem", "Mem")
	g := putTestGuild(ws, 32, leader, member)
	ws.setGuildRole(leader, 2, proto.GuildRole{Name: "Officer", CanKick: true})

	// undefined role index
	ws.setGuildMemberRole(leader, member.Data.ID, 9)
	role, _ := g.GetMemberRole(member.Data.ID)
	assert.Equal(t, social.GUILD_DEFAULT_MEMBER_ROLE, role)

	// the leader slot cannot be handed out
	ws.setGuildMemberRole(leader, member.Data.ID, social.GUILD_LEADER_ROLE)
	role, _ = g.GetMemberRole(member.Data.ID)
	assert.Equal(t, social.GUILD_DEFAULT_MEMBER_ROLE, role)

	// strangers get no role
	ws.setGuildMemberRole(leader, "nosuch", 2)

	ws.setGuildMemberRole(leader, member.Data.ID, 2)
	pump(t, func() bool { return member.Data.GuildRole == 2 })
	role, ok := g.GetMemberRole(member.Data.ID)
	assert.T(t, ok, "member should keep a role")
	assert.Equal(t, byte(2), role)
}

func TestGuildSkillAndExp(t *testing.T) {
	ws := newTestWorld()
	leader := addResident(ws, "skill-lead", "user-skill-lead", "Lead")
	g := putTestGuild(ws, 33, leader)

	// no point to spend yet
	ws.increaseGuildSkillLevel(leader, 7)
	assert.Equal(t, int32(0), g.GetSkillLevel(7))

	ws.contributeGuildExp(leader, -5)
	assert.Equal(t, int32(0), g.Exp)

	// one full level grants one skill point
	ws.contributeGuildExp(leader, social.GUILD_EXP_PER_LEVEL)
	assert.Equal(t, int32(2), g.Level)
	assert.Equal(t, int32(0), g.Exp)
	assert.Equal(t, int32(1), g.SkillPoint)

	ws.increaseGuildSkillLevel(leader, 7)
	assert.Equal(t, int32(1), g.GetSkillLevel(7))
	assert.Equal(t, int32(0), g.SkillPoint)

	done := false
	gamedb.ReadGuild(33, func(rec *social.GuildRecord, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int32(2), rec.Level)
		assert.Equal(t, int32(1), rec.SkillLevels[7])
		assert.Equal(t, int32(0), rec.SkillPoint)
		done = true
	})
	pump(t, func() bool { return done })
}

func TestDonateGuildGold(t *testing.T) {
	ws := newTestWorld()
	leader := addResident(ws, "gold-lead", "user-gold-lead", "Goldie")
	g := putTestGuild(ws, 34, leader)

	done := false
	gamedb.ChangeGold(leader.Data.UserID, 300, func(balance int64, err error) {
		assert.Equal(t, nil, err)
		done = true
	})
	pump(t, func() bool { return done })

	// non-positive amounts are refused
	ws.donateGuildGold(leader, 0)
	assert.Equal(t, int32(0), g.Gold)

	// more than the account holds
	ws.donateGuildGold(leader, 500)
	done = false
	gamedb.GetGold(leader.Data.UserID, func(balance int64, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int64(300), balance)
		done = true
	})
	pump(t, func() bool { return done })
	assert.Equal(t, int32(0), g.Gold)

	ws.donateGuildGold(leader, 200)
	pump(t, func() bool { return g.Gold == 200 })

	done = false
	gamedb.GetGold(leader.Data.UserID, func(balance int64, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int64(100), balance)
		done = true
	})
	pump(t, func() bool { return done })

	done = false
	gamedb.ReadGuild(34, func(rec *social.GuildRecord, err error) {
		assert.Equal(t, nil, err)
		assert.Equal(t, int32(200), rec.Gold)
		done = true
	})
	pump(t, func() bool { return done })
}

func TestInstanceWarpRollback(t *testing.T) {
	ws := newTestWorld()
	leader := addResident(ws, "warp-lead", "user-warp-lead", "Lead")
	buddy := addResident(ws, "warp-buddy", "user-warp-buddy", "Buddy")
	putTestParty(ws, 77, leader, buddy)

	// only the party leader starts an instance warp
	ws.beginInstanceWarp(buddy, &proto.WarpTarget{MapName: ws.mapName})
	assert.Equal(t, entity.StateActive, buddy.State)
	assert.Equal(t, entity.StateActive, leader.State)

	// central is unreachable: every gathered member rolls back to active
	ws.beginInstanceWarp(leader, &proto.WarpTarget{MapName: ws.mapName})
	assert.Equal(t, entity.StateActive, leader.State)
	assert.Equal(t, entity.StateActive, buddy.State)
	assert.Equal(t, 0, ws.spawns.PendingCount())
	assert.Equal(t, 2, ws.entities.Count())
}

func TestInstanceWarpRedirect(t *testing.T) {
	ws := newTestWorld()
	leader := addResident(ws, "red-lead", "user-red-lead", "Lead")
	buddy := addResident(ws, "red-buddy", "user-red-buddy", "Buddy")
	putTestParty(ws, 78, leader, buddy)

	var warping []common.CharacterID
	for _, member := range ws.entities.GatherPartyMembers(leader) {
		if ws.entities.BeginWarp(member) {
			warping = append(warping, member.Data.ID)
		}
	}
	assert.Equal(t, 2, len(warping))
	// a member gone mid-warp is skipped
	warping = append(warping, "red-ghost")

	info := &proto.PeerInfo{
		PeerType:   proto.PEER_INSTANCE_WORLD,
		MapName:    ws.mapName,
		InstanceID: "inst-test",
		Address:    "127.0.0.1",
		Port:       40999,
	}
	ws.finishInstanceWarp(warping, info, proto.RC_OK)
	pump(t, func() bool { return ws.entities.Count() == 0 })
}
