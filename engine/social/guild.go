package social

import (
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

const (
	// GUILD_LEADER_ROLE is the role index reserved for the guild leader
	GUILD_LEADER_ROLE byte = 0
	// GUILD_DEFAULT_MEMBER_ROLE is the role index assigned to new members
	GUILD_DEFAULT_MEMBER_ROLE byte = 1

	// GUILD_EXP_PER_LEVEL is the exp needed to advance one guild level,
	// scaled by the current level
	GUILD_EXP_PER_LEVEL int32 = 1000
)

// Guild is the local replica of a guild
type Guild struct {
	ID         common.GuildID
	Name       string
	LeaderID   common.CharacterID
	Message    string
	Level      int32
	Exp        int32
	SkillPoint int32
	Gold       int32
	Roles      []proto.GuildRole

	skillLevels map[int32]int32
	members     *memberRoster
	memberRoles map[common.CharacterID]byte
}

// GuildMemberRecord is one persisted guild member entry
type GuildMemberRecord struct {
	Character proto.SocialCharacterSummary
	Role      byte
}

// GuildRecord is the serializable form of a guild for persistence
type GuildRecord struct {
	ID          common.GuildID
	Name        string
	LeaderID    common.CharacterID
	Message     string
	Level       int32
	Exp         int32
	SkillPoint  int32
	Gold        int32
	Roles       []proto.GuildRole
	SkillLevels map[int32]int32
	Members     []GuildMemberRecord
}

// DefaultGuildRoles returns the initial role table of a new guild
func DefaultGuildRoles() []proto.GuildRole {
	return []proto.GuildRole{
		{Name: "Leader", CanInvite: true, CanKick: true, ShareExpPercent: 0},
		{Name: "Member", CanInvite: false, CanKick: false, ShareExpPercent: 0},
	}
}

// NewGuild creates a guild replica
func NewGuild(id common.GuildID, name string, leaderID common.CharacterID) *Guild {
	return &Guild{
		ID:          id,
		Name:        name,
		LeaderID:    leaderID,
		Level:       1,
		Roles:       DefaultGuildRoles(),
		skillLevels: map[int32]int32{},
		members:     newMemberRoster(),
		memberRoles: map[common.CharacterID]byte{},
	}
}

// NewGuildFromRecord restores a guild replica from its persisted record
func NewGuildFromRecord(rec *GuildRecord) *Guild {
	g := NewGuild(rec.ID, rec.Name, rec.LeaderID)
	g.Message = rec.Message
	g.Level = rec.Level
	g.Exp = rec.Exp
	g.SkillPoint = rec.SkillPoint
	g.Gold = rec.Gold
	if len(rec.Roles) > 0 {
		g.Roles = rec.Roles
	}
	for skillID, level := range rec.SkillLevels {
		g.skillLevels[skillID] = level
	}
	for _, member := range rec.Members {
		g.addMember(member.Character, member.Role)
	}
	return g
}

// Record returns the serializable form of the guild
func (g *Guild) Record() *GuildRecord {
	rec := &GuildRecord{
		ID:          g.ID,
		Name:        g.Name,
		LeaderID:    g.LeaderID,
		Message:     g.Message,
		Level:       g.Level,
		Exp:         g.Exp,
		SkillPoint:  g.SkillPoint,
		Gold:        g.Gold,
		Roles:       g.Roles,
		SkillLevels: map[int32]int32{},
	}
	for skillID, level := range g.skillLevels {
		rec.SkillLevels[skillID] = level
	}
	g.members.forEach(func(summary proto.SocialCharacterSummary) bool {
		rec.Members = append(rec.Members, GuildMemberRecord{
			Character: summary,
			Role:      g.memberRoles[summary.ID],
		})
		return true
	})
	return rec
}

// IsLeader returns if the character is the guild leader
func (g *Guild) IsLeader(id common.CharacterID) bool {
	return g.LeaderID == id
}

// IsMember returns if the character is in the guild
func (g *Guild) IsMember(id common.CharacterID) bool {
	return g.members.contains(id)
}

// GetMember returns the summary of a guild member
func (g *Guild) GetMember(id common.CharacterID) (proto.SocialCharacterSummary, bool) {
	return g.members.get(id)
}

// GetMemberRole returns the role index of a guild member
func (g *Guild) GetMemberRole(id common.CharacterID) (byte, bool) {
	role, ok := g.memberRoles[id]
	return role, ok
}

// GetRole returns the role definition of the role index
func (g *Guild) GetRole(roleID byte) (proto.GuildRole, bool) {
	if int(roleID) >= len(g.Roles) {
		return proto.GuildRole{}, false
	}
	return g.Roles[roleID], true
}

// CanInvite returns if the member's role allows inviting
func (g *Guild) CanInvite(id common.CharacterID) bool {
	role, ok := g.memberRoles[id]
	if !ok {
		return false
	}
	roleDef, ok := g.GetRole(role)
	return ok && roleDef.CanInvite
}

// CanKick returns if the member's role allows kicking
func (g *Guild) CanKick(id common.CharacterID) bool {
	role, ok := g.memberRoles[id]
	if !ok {
		return false
	}
	roleDef, ok := g.GetRole(role)
	return ok && roleDef.CanKick
}

func (g *Guild) addMember(summary proto.SocialCharacterSummary, role byte) {
	summary.GuildID = g.ID
	summary.GuildRole = role
	g.members.add(summary)
	g.memberRoles[summary.ID] = role
}

// AddMember adds or refreshes a member summary with the role
func (g *Guild) AddMember(summary proto.SocialCharacterSummary, role byte) {
	g.addMember(summary, role)
}

// RemoveMember removes a member from the guild
func (g *Guild) RemoveMember(id common.CharacterID) bool {
	delete(g.memberRoles, id)
	return g.members.remove(id)
}

// CountMember returns the number of guild members
func (g *Guild) CountMember() int {
	return g.members.count()
}

// Members returns all member summaries in ascending character id order
func (g *Guild) Members() []proto.SocialCharacterSummary {
	return g.members.list()
}

// ForEachMember visits each member until the callback returns false
func (g *Guild) ForEachMember(cb func(summary proto.SocialCharacterSummary) bool) {
	g.members.forEach(cb)
}

// SetLeader changes the guild leader, demoting the previous one to the default role
func (g *Guild) SetLeader(id common.CharacterID) {
	prevLeader := g.LeaderID
	g.LeaderID = id
	if member, ok := g.members.get(prevLeader); ok {
		g.addMember(member, GUILD_DEFAULT_MEMBER_ROLE)
	}
	if member, ok := g.members.get(id); ok {
		g.addMember(member, GUILD_LEADER_ROLE)
	}
}

// SetRole replaces the role definition at the role index
func (g *Guild) SetRole(roleID byte, role proto.GuildRole) {
	for int(roleID) >= len(g.Roles) {
		g.Roles = append(g.Roles, proto.GuildRole{})
	}
	g.Roles[roleID] = role
}

// SetMemberRole changes the role of a guild member
func (g *Guild) SetMemberRole(id common.CharacterID, role byte) {
	if member, ok := g.members.get(id); ok {
		g.addMember(member, role)
	}
}

// AddExp accrues guild exp, converting full levels into a level and a skill
// point each
func (g *Guild) AddExp(amount int32) {
	g.Exp += amount
	for g.Exp >= GUILD_EXP_PER_LEVEL*g.Level {
		g.Exp -= GUILD_EXP_PER_LEVEL * g.Level
		g.Level++
		g.SkillPoint++
	}
}

// GetSkillLevel returns the level of a guild skill
func (g *Guild) GetSkillLevel(skillID int32) int32 {
	return g.skillLevels[skillID]
}

// SetSkillLevel sets the level of a guild skill
func (g *Guild) SetSkillLevel(skillID int32, level int32) {
	g.skillLevels[skillID] = level
}

// Apply applies a replica update received from another process.
// Terminate is not handled here, the holder evicts the whole replica instead.
func (g *Guild) Apply(update *proto.GuildUpdate) {
	switch update.Type {
	case proto.GUILD_UPDATE_CHANGE_LEADER:
		g.SetLeader(update.LeaderID)
	case proto.GUILD_UPDATE_MESSAGE:
		g.Message = update.Message
	case proto.GUILD_UPDATE_ROLE:
		g.SetRole(update.RoleID, update.Role)
	case proto.GUILD_UPDATE_MEMBER_ROLE:
		g.SetMemberRole(update.MemberID, update.MemberRole)
	case proto.GUILD_UPDATE_SKILL_LEVEL:
		g.SetSkillLevel(update.SkillID, update.SkillLevel)
	case proto.GUILD_UPDATE_GOLD:
		g.Gold = update.Gold
	case proto.GUILD_UPDATE_LEVEL_EXP_SKILL_POINT:
		g.Level = update.Level
		g.Exp = update.Exp
		g.SkillPoint = update.SkillPoint
	}
}

// ApplyMemberUpdate applies a roster update received from another process
func (g *Guild) ApplyMemberUpdate(update *proto.SocialMemberUpdate) {
	switch update.Type {
	case proto.SOCIAL_MEMBER_ADD:
		g.AddMember(update.Character, update.Character.GuildRole)
	case proto.SOCIAL_MEMBER_REMOVE:
		g.RemoveMember(update.Character.ID)
	}
}
