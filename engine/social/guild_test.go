package social

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/proto"
)

func newTestGuild() *Guild {
	g := NewGuild(11, "NightWatch", "leader0000000000")
	g.AddMember(summaryOf("leader0000000000", "lena"), GUILD_LEADER_ROLE)
	g.AddMember(summaryOf("membaaaaaaaaaaaa", "mia"), GUILD_DEFAULT_MEMBER_ROLE)
	return g
}

func TestGuildRoles(t *testing.T) {
	g := newTestGuild()
	assert.T(t, g.CanInvite("leader0000000000"), "leader should invite")
	assert.T(t, g.CanKick("leader0000000000"), "leader should kick")
	assert.T(t, !g.CanInvite("membaaaaaaaaaaaa"), "member should not invite")
	assert.T(t, !g.CanInvite("stranger00000000"), "stranger should not invite")
}

func TestGuildSetLeader(t *testing.T) {
	g := newTestGuild()
	g.SetLeader("membaaaaaaaaaaaa")

	assert.T(t, g.IsLeader("membaaaaaaaaaaaa"), "leader should change")
	role, ok := g.GetMemberRole("membaaaaaaaaaaaa")
	assert.T(t, ok, "member role should exist")
	assert.Equal(t, GUILD_LEADER_ROLE, role)
	role, _ = g.GetMemberRole("leader0000000000")
	assert.Equal(t, GUILD_DEFAULT_MEMBER_ROLE, role)
}

func TestGuildRecordRoundTrip(t *testing.T) {
	g := newTestGuild()
	g.Message = "welcome"
	g.Gold = 500
	g.SetSkillLevel(9, 3)

	restored := NewGuildFromRecord(g.Record())
	assert.Equal(t, g.ID, restored.ID)
	assert.Equal(t, g.Name, restored.Name)
	assert.Equal(t, g.Message, restored.Message)
	assert.Equal(t, g.Gold, restored.Gold)
	assert.Equal(t, int32(3), restored.GetSkillLevel(9))
	assert.Equal(t, g.Members(), restored.Members())
	role, ok := restored.GetMemberRole("membaaaaaaaaaaaa")
	assert.T(t, ok, "member role should survive")
	assert.Equal(t, GUILD_DEFAULT_MEMBER_ROLE, role)
}

// two replicas receiving the same update log must converge
func TestGuildReplicaConvergence(t *testing.T) {
	updates := []*proto.GuildUpdate{
		{Type: proto.GUILD_UPDATE_MESSAGE, GuildID: 11, Message: "first"},
		{Type: proto.GUILD_UPDATE_GOLD, GuildID: 11, Gold: 100},
		{Type: proto.GUILD_UPDATE_MESSAGE, GuildID: 11, Message: "second"},
		{Type: proto.GUILD_UPDATE_LEVEL_EXP_SKILL_POINT, GuildID: 11, Level: 2, Exp: 50, SkillPoint: 1},
		{Type: proto.GUILD_UPDATE_SKILL_LEVEL, GuildID: 11, SkillID: 4, SkillLevel: 2},
		{Type: proto.GUILD_UPDATE_MEMBER_ROLE, GuildID: 11, MemberID: "membaaaaaaaaaaaa", MemberRole: 1},
	}

	g1 := newTestGuild()
	g2 := newTestGuild()
	for _, u := range updates {
		g1.Apply(u)
	}
	for _, u := range updates {
		g2.Apply(u)
	}

	assert.Equal(t, g1.Record(), g2.Record())
	assert.Equal(t, "second", g1.Message)
	assert.Equal(t, int32(100), g1.Gold)
	assert.Equal(t, int32(2), g1.Level)
}
