package social

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/proto"
)

func TestManagerPartyTerminateEvicts(t *testing.T) {
	m := NewManager()
	m.PutParty(NewParty(1, "leader0000000000", false, false))
	assert.Equal(t, 1, m.CountParties())

	m.HandlePartyUpdate(&proto.PartyUpdate{Type: proto.PARTY_UPDATE_TERMINATE, PartyID: 1})
	assert.Equal(t, 0, m.CountParties())

	// terminating an unknown party is a no-op
	m.HandlePartyUpdate(&proto.PartyUpdate{Type: proto.PARTY_UPDATE_TERMINATE, PartyID: 42})
	assert.Equal(t, 0, m.CountParties())
}

func TestManagerGuildTerminateEvicts(t *testing.T) {
	m := NewManager()
	m.PutGuild(NewGuild(9, "Breakers", "leader0000000000"))
	assert.Equal(t, 1, m.CountGuilds())

	m.HandleGuildUpdate(&proto.GuildUpdate{Type: proto.GUILD_UPDATE_TERMINATE, GuildID: 9})
	assert.Equal(t, 0, m.CountGuilds())
}

func TestManagerIgnoresNonResident(t *testing.T) {
	m := NewManager()
	p := m.HandlePartyUpdate(&proto.PartyUpdate{Type: proto.PARTY_UPDATE_SETTING, PartyID: 2, ShareExp: true})
	assert.T(t, p == nil, "update for non-resident party should be ignored")

	g := m.HandleGuildUpdate(&proto.GuildUpdate{Type: proto.GUILD_UPDATE_MESSAGE, GuildID: 2, Message: "hi"})
	assert.T(t, g == nil, "update for non-resident guild should be ignored")
}

func TestManagerCreateMakesResident(t *testing.T) {
	m := NewManager()
	p := m.HandlePartyUpdate(&proto.PartyUpdate{
		Type:     proto.PARTY_UPDATE_CREATE,
		PartyID:  3,
		LeaderID: "leader0000000000",
		ShareExp: true,
	})
	assert.T(t, p != nil, "create should make replica resident")
	assert.Equal(t, p, m.GetParty(3))
	assert.T(t, p.ShareExp, "settings should be applied")
}

func TestManagerMemberUpdates(t *testing.T) {
	m := NewManager()
	m.PutParty(NewParty(4, "leader0000000000", false, false))

	m.HandlePartyMemberUpdate(&proto.SocialMemberUpdate{
		Type:      proto.SOCIAL_MEMBER_ADD,
		SocialID:  4,
		Character: summaryOf("aaaabbbbbbbbbbbb", "alice"),
	})
	assert.Equal(t, 1, m.GetParty(4).CountMember())

	m.HandlePartyMemberUpdate(&proto.SocialMemberUpdate{
		Type:      proto.SOCIAL_MEMBER_REMOVE,
		SocialID:  4,
		Character: summaryOf("aaaabbbbbbbbbbbb", "alice"),
	})
	assert.Equal(t, 0, m.GetParty(4).CountMember())
}
