package social

import (
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

// Party is the local replica of a party
type Party struct {
	ID        common.PartyID
	LeaderID  common.CharacterID
	ShareExp  bool
	ShareItem bool

	members *memberRoster
}

// PartyRecord is the serializable form of a party for persistence
type PartyRecord struct {
	ID        common.PartyID
	LeaderID  common.CharacterID
	ShareExp  bool
	ShareItem bool
	Members   []proto.SocialCharacterSummary
}

// NewParty creates a party replica
func NewParty(id common.PartyID, leaderID common.CharacterID, shareExp bool, shareItem bool) *Party {
	return &Party{
		ID:        id,
		LeaderID:  leaderID,
		ShareExp:  shareExp,
		ShareItem: shareItem,
		members:   newMemberRoster(),
	}
}

// NewPartyFromRecord restores a party replica from its persisted record
func NewPartyFromRecord(rec *PartyRecord) *Party {
	p := NewParty(rec.ID, rec.LeaderID, rec.ShareExp, rec.ShareItem)
	for _, member := range rec.Members {
		p.members.add(member)
	}
	return p
}

// Record returns the serializable form of the party
func (p *Party) Record() *PartyRecord {
	return &PartyRecord{
		ID:        p.ID,
		LeaderID:  p.LeaderID,
		ShareExp:  p.ShareExp,
		ShareItem: p.ShareItem,
		Members:   p.members.list(),
	}
}

// IsLeader returns if the character is the party leader
func (p *Party) IsLeader(id common.CharacterID) bool {
	return p.LeaderID == id
}

// IsMember returns if the character is in the party
func (p *Party) IsMember(id common.CharacterID) bool {
	return p.members.contains(id)
}

// GetMember returns the summary of a party member
func (p *Party) GetMember(id common.CharacterID) (proto.SocialCharacterSummary, bool) {
	return p.members.get(id)
}

// AddMember adds or refreshes a member summary
func (p *Party) AddMember(summary proto.SocialCharacterSummary) {
	summary.PartyID = p.ID
	p.members.add(summary)
}

// RemoveMember removes a member from the party
func (p *Party) RemoveMember(id common.CharacterID) bool {
	return p.members.remove(id)
}

// CountMember returns the number of party members
func (p *Party) CountMember() int {
	return p.members.count()
}

// Members returns all member summaries in ascending character id order
func (p *Party) Members() []proto.SocialCharacterSummary {
	return p.members.list()
}

// ForEachMember visits each member until the callback returns false
func (p *Party) ForEachMember(cb func(summary proto.SocialCharacterSummary) bool) {
	p.members.forEach(cb)
}

// Apply applies a replica update received from another process.
// Terminate is not handled here, the holder evicts the whole replica instead.
func (p *Party) Apply(update *proto.PartyUpdate) {
	switch update.Type {
	case proto.PARTY_UPDATE_CHANGE_LEADER:
		p.LeaderID = update.LeaderID
	case proto.PARTY_UPDATE_SETTING:
		p.ShareExp = update.ShareExp
		p.ShareItem = update.ShareItem
	}
}

// ApplyMemberUpdate applies a roster update received from another process
func (p *Party) ApplyMemberUpdate(update *proto.SocialMemberUpdate) {
	switch update.Type {
	case proto.SOCIAL_MEMBER_ADD:
		p.AddMember(update.Character)
	case proto.SOCIAL_MEMBER_REMOVE:
		p.RemoveMember(update.Character.ID)
	}
}
