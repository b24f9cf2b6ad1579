package social

import (
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

// Manager holds the party and guild replicas resident on one process
type Manager struct {
	parties map[common.PartyID]*Party
	guilds  map[common.GuildID]*Guild
}

// NewManager creates an empty replica manager
func NewManager() *Manager {
	return &Manager{
		parties: map[common.PartyID]*Party{},
		guilds:  map[common.GuildID]*Guild{},
	}
}

// GetParty returns the party replica if resident
func (m *Manager) GetParty(id common.PartyID) *Party {
	return m.parties[id]
}

// PutParty makes a party replica resident
func (m *Manager) PutParty(p *Party) {
	m.parties[p.ID] = p
}

// RemoveParty evicts a party replica
func (m *Manager) RemoveParty(id common.PartyID) {
	delete(m.parties, id)
}

// GetGuild returns the guild replica if resident
func (m *Manager) GetGuild(id common.GuildID) *Guild {
	return m.guilds[id]
}

// PutGuild makes a guild replica resident
func (m *Manager) PutGuild(g *Guild) {
	m.guilds[g.ID] = g
}

// RemoveGuild evicts a guild replica
func (m *Manager) RemoveGuild(id common.GuildID) {
	delete(m.guilds, id)
}

// CountParties returns the number of resident party replicas
func (m *Manager) CountParties() int {
	return len(m.parties)
}

// CountGuilds returns the number of resident guild replicas
func (m *Manager) CountGuilds() int {
	return len(m.guilds)
}

// HandlePartyUpdate applies a relayed party update to the resident replica.
// Terminate evicts the replica. Updates for non-resident parties are ignored
// except Create which makes the replica resident.
func (m *Manager) HandlePartyUpdate(update *proto.PartyUpdate) *Party {
	if update.Type == proto.PARTY_UPDATE_TERMINATE {
		m.RemoveParty(update.PartyID)
		return nil
	}

	p := m.parties[update.PartyID]
	if p == nil {
		if update.Type != proto.PARTY_UPDATE_CREATE {
			return nil
		}
		p = NewParty(update.PartyID, update.LeaderID, update.ShareExp, update.ShareItem)
		m.PutParty(p)
		return p
	}

	p.Apply(update)
	return p
}

// HandleGuildUpdate applies a relayed guild update to the resident replica.
// Terminate evicts the replica. Updates for non-resident guilds are ignored
// except Create which makes the replica resident.
func (m *Manager) HandleGuildUpdate(update *proto.GuildUpdate) *Guild {
	if update.Type == proto.GUILD_UPDATE_TERMINATE {
		m.RemoveGuild(update.GuildID)
		return nil
	}

	g := m.guilds[update.GuildID]
	if g == nil {
		if update.Type != proto.GUILD_UPDATE_CREATE {
			return nil
		}
		g = NewGuild(update.GuildID, update.GuildName, update.LeaderID)
		m.PutGuild(g)
		return g
	}

	g.Apply(update)
	return g
}

// HandlePartyMemberUpdate applies a relayed party roster update
func (m *Manager) HandlePartyMemberUpdate(update *proto.SocialMemberUpdate) *Party {
	p := m.parties[common.PartyID(update.SocialID)]
	if p == nil {
		return nil
	}
	p.ApplyMemberUpdate(update)
	return p
}

// HandleGuildMemberUpdate applies a relayed guild roster update
func (m *Manager) HandleGuildMemberUpdate(update *proto.SocialMemberUpdate) *Guild {
	g := m.guilds[common.GuildID(update.SocialID)]
	if g == nil {
		return nil
	}
	g.ApplyMemberUpdate(update)
	return g
}
