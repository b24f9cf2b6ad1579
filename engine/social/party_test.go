package social

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

func summaryOf(id string, name string) proto.SocialCharacterSummary {
	return proto.SocialCharacterSummary{
		ID:   common.CharacterID(id),
		Name: name,
	}
}

func TestPartyMembers(t *testing.T) {
	p := NewParty(7, "leader0000000000", true, false)
	p.AddMember(summaryOf("ccccdddddddddddd", "carol"))
	p.AddMember(summaryOf("aaaabbbbbbbbbbbb", "alice"))
	p.AddMember(summaryOf("bbbbcccccccccccc", "bob"))

	assert.Equal(t, 3, p.CountMember())
	assert.T(t, p.IsMember("aaaabbbbbbbbbbbb"), "should be member")

	// members come back ordered by character id
	members := p.Members()
	assert.Equal(t, "alice", members[0].Name)
	assert.Equal(t, "bob", members[1].Name)
	assert.Equal(t, "carol", members[2].Name)

	assert.T(t, p.RemoveMember("bbbbcccccccccccc"), "remove should succeed")
	assert.T(t, !p.IsMember("bbbbcccccccccccc"), "should not be member")
	assert.T(t, !p.RemoveMember("bbbbcccccccccccc"), "second remove should fail")
}

func TestPartyRecordRoundTrip(t *testing.T) {
	p := NewParty(3, "leader0000000000", false, true)
	p.AddMember(summaryOf("aaaabbbbbbbbbbbb", "alice"))
	p.AddMember(summaryOf("bbbbcccccccccccc", "bob"))

	restored := NewPartyFromRecord(p.Record())
	assert.Equal(t, p.ID, restored.ID)
	assert.Equal(t, p.LeaderID, restored.LeaderID)
	assert.Equal(t, p.ShareExp, restored.ShareExp)
	assert.Equal(t, p.ShareItem, restored.ShareItem)
	assert.Equal(t, p.Members(), restored.Members())
}

func TestPartyApply(t *testing.T) {
	p := NewParty(5, "leader0000000000", false, false)
	p.Apply(&proto.PartyUpdate{
		Type:      proto.PARTY_UPDATE_SETTING,
		PartyID:   5,
		ShareExp:  true,
		ShareItem: true,
	})
	assert.T(t, p.ShareExp, "share exp should be set")
	assert.T(t, p.ShareItem, "share item should be set")

	p.Apply(&proto.PartyUpdate{
		Type:     proto.PARTY_UPDATE_CHANGE_LEADER,
		PartyID:  5,
		LeaderID: "newleader0000000",
	})
	assert.T(t, p.IsLeader("newleader0000000"), "leader should change")
}
