package world

import (
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/entity"
	"github.com/irikarra/worldlink/engine/gamedb"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
	"github.com/irikarra/worldlink/engine/wlog"
)

// Party/guild mutations originate here: validate locally, persist through
// gamedb, apply to the local replica, then broadcast through the chat relay
// so sibling worlds converge.

func (ws *WorldService) broadcastPartyUpdate(update *proto.PartyUpdate) {
	if conn := ws.chatConn.GetConn(); conn != nil {
		conn.SendUpdateParty(update)
	}
}

func (ws *WorldService) broadcastPartyMemberUpdate(update *proto.SocialMemberUpdate) {
	if conn := ws.chatConn.GetConn(); conn != nil {
		conn.SendUpdatePartyMember(update)
	}
}

func (ws *WorldService) broadcastGuildUpdate(update *proto.GuildUpdate) {
	if conn := ws.chatConn.GetConn(); conn != nil {
		conn.SendUpdateGuild(update)
	}
}

func (ws *WorldService) broadcastGuildMemberUpdate(update *proto.SocialMemberUpdate) {
	if conn := ws.chatConn.GetConn(); conn != nil {
		conn.SendUpdateGuildMember(update)
	}
}

func (ws *WorldService) partyOf(c *entity.Character) *social.Party {
	if c.Data.PartyID == 0 {
		return nil
	}
	return ws.social.GetParty(c.Data.PartyID)
}

func (ws *WorldService) guildOf(c *entity.Character) *social.Guild {
	if c.Data.GuildID == 0 {
		return nil
	}
	return ws.social.GetGuild(c.Data.GuildID)
}

func (ws *WorldService) createParty(c *entity.Character, shareExp bool, shareItem bool) {
	if c.Data.PartyID != 0 {
		ws.sendGameMessage(c, proto.RC_ALREADY_IN_PARTY)
		return
	}

	gamedb.NextPartyID(func(partyID common.PartyID, err error) {
		if err != nil {
			wlog.Errorf("%s: allocate party id failed: %s", ws, err)
			ws.sendGameMessage(c, proto.RC_SERVICE_UNAVAILABLE)
			return
		}
		if c.State == entity.StateDestroyed {
			return
		}

		p := social.NewParty(partyID, c.Data.ID, shareExp, shareItem)
		p.AddMember(*c.Data.Summary())
		gamedb.SaveParty(p.Record(), func() {
			gamedb.SetCharacterParty(c.Data.ID, partyID, func() {
				ws.social.PutParty(p)
				c.Data.PartyID = partyID

				ws.broadcastPartyUpdate(&proto.PartyUpdate{
					Type:      proto.PARTY_UPDATE_CREATE,
					PartyID:   partyID,
					LeaderID:  c.Data.ID,
					ShareExp:  shareExp,
					ShareItem: shareItem,
				})
				ws.broadcastPartyMemberUpdate(&proto.SocialMemberUpdate{
					Type:      proto.SOCIAL_MEMBER_ADD,
					SocialID:  int32(partyID),
					Character: *c.Data.Summary(),
				})
				ws.entities.NotifyOnline(c)
				ws.sendGameMessage(c, proto.RC_OK)
			})
		})
	})
}

func (ws *WorldService) joinParty(c *entity.Character, partyID common.PartyID) {
	if c.Data.PartyID != 0 {
		ws.sendGameMessage(c, proto.RC_ALREADY_IN_PARTY)
		return
	}

	ws.withParty(c, partyID, func(p *social.Party) {
		p.AddMember(*c.Data.Summary())
		gamedb.SaveParty(p.Record(), func() {
			gamedb.SetCharacterParty(c.Data.ID, partyID, func() {
				c.Data.PartyID = partyID
				ws.broadcastPartyMemberUpdate(&proto.SocialMemberUpdate{
					Type:      proto.SOCIAL_MEMBER_ADD,
					SocialID:  int32(partyID),
					Character: *c.Data.Summary(),
				})
				ws.entities.NotifyOnline(c)
				ws.sendGameMessage(c, proto.RC_OK)
			})
		})
	})
}

// withParty hands the loaded party replica to fn, reading it from the
// database when no replica is resident
func (ws *WorldService) withParty(c *entity.Character, partyID common.PartyID, fn func(p *social.Party)) {
	if p := ws.social.GetParty(partyID); p != nil {
		fn(p)
		return
	}
	gamedb.ReadParty(partyID, func(rec *social.PartyRecord, err error) {
		if err != nil {
			wlog.Errorf("%s: load party %d failed: %s", ws, partyID, err)
			ws.sendGameMessage(c, proto.RC_NOT_IN_PARTY)
			return
		}
		p := social.NewPartyFromRecord(rec)
		ws.social.PutParty(p)
		fn(p)
	})
}

func (ws *WorldService) leaveParty(c *entity.Character) {
	p := ws.partyOf(c)
	if p == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_PARTY)
		return
	}

	if p.IsLeader(c.Data.ID) {
		ws.terminateParty(c, p)
		return
	}

	p.RemoveMember(c.Data.ID)
	gamedb.SaveParty(p.Record(), func() {
		gamedb.SetCharacterParty(c.Data.ID, 0, func() {
			c.Data.PartyID = 0
			ws.broadcastPartyMemberUpdate(&proto.SocialMemberUpdate{
				Type:      proto.SOCIAL_MEMBER_REMOVE,
				SocialID:  int32(p.ID),
				Character: proto.SocialCharacterSummary{ID: c.Data.ID},
			})
			ws.entities.NotifyOnline(c)
			ws.sendGameMessage(c, proto.RC_OK)
		})
	})
}

// terminateParty disbands the party when its leader leaves
func (ws *WorldService) terminateParty(c *entity.Character, p *social.Party) {
	partyID := p.ID
	members := p.Members()
	gamedb.DeleteParty(partyID, func() {
		for _, member := range members {
			gamedb.SetCharacterParty(member.ID, 0, nil)
		}

		ws.social.RemoveParty(partyID)
		ws.entities.ForEach(func(resident *entity.Character) {
			if resident.Data.PartyID == partyID {
				resident.Data.PartyID = 0
			}
		})
		ws.broadcastPartyUpdate(&proto.PartyUpdate{
			Type:    proto.PARTY_UPDATE_TERMINATE,
			PartyID: partyID,
		})
		ws.entities.NotifyOnline(c)
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

func (ws *WorldService) changePartyLeader(c *entity.Character, newLeaderID common.CharacterID) {
	p := ws.partyOf(c)
	if p == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_PARTY)
		return
	}
	if !p.IsLeader(c.Data.ID) {
		ws.sendGameMessage(c, proto.RC_NOT_PARTY_LEADER)
		return
	}
	if !p.IsMember(newLeaderID) {
		ws.sendGameMessage(c, proto.RC_CHARACTER_NOT_FOUND)
		return
	}

	p.LeaderID = newLeaderID
	gamedb.SaveParty(p.Record(), func() {
		ws.broadcastPartyUpdate(&proto.PartyUpdate{
			Type:     proto.PARTY_UPDATE_CHANGE_LEADER,
			PartyID:  p.ID,
			LeaderID: newLeaderID,
		})
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

func (ws *WorldService) changePartySetting(c *entity.Character, shareExp bool, shareItem bool) {
	p := ws.partyOf(c)
	if p == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_PARTY)
		return
	}
	if !p.IsLeader(c.Data.ID) {
		ws.sendGameMessage(c, proto.RC_NOT_PARTY_LEADER)
		return
	}

	p.ShareExp, p.ShareItem = shareExp, shareItem
	gamedb.SaveParty(p.Record(), func() {
		ws.broadcastPartyUpdate(&proto.PartyUpdate{
			Type:      proto.PARTY_UPDATE_SETTING,
			PartyID:   p.ID,
			LeaderID:  p.LeaderID,
			ShareExp:  shareExp,
			ShareItem: shareItem,
		})
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

func (ws *WorldService) createGuild(c *entity.Character, guildName string) {
	if c.Data.GuildID != 0 {
		ws.sendGameMessage(c, proto.RC_ALREADY_IN_GUILD)
		return
	}

	gamedb.FindGuildName(guildName, func(count int, err error) {
		if err != nil {
			wlog.Errorf("%s: check guild name failed: %s", ws, err)
			ws.sendGameMessage(c, proto.RC_SERVICE_UNAVAILABLE)
			return
		}
		if count > 0 {
			ws.sendGameMessage(c, proto.RC_GUILD_NAME_EXISTS)
			return
		}
		if c.State == entity.StateDestroyed {
			return
		}

		gamedb.NextGuildID(func(guildID common.GuildID, err error) {
			if err != nil {
				wlog.Errorf("%s: allocate guild id failed: %s", ws, err)
				ws.sendGameMessage(c, proto.RC_SERVICE_UNAVAILABLE)
				return
			}
			if c.State == entity.StateDestroyed {
				return
			}

			g := social.NewGuild(guildID, guildName, c.Data.ID)
			g.AddMember(*c.Data.Summary(), social.GUILD_LEADER_ROLE)
			gamedb.SaveGuild(g.Record(), func() {
				gamedb.SetCharacterGuild(c.Data.ID, guildID, social.GUILD_LEADER_ROLE, func() {
					ws.social.PutGuild(g)
					c.Data.GuildID = guildID
					c.Data.GuildRole = social.GUILD_LEADER_ROLE

					ws.broadcastGuildUpdate(&proto.GuildUpdate{
						Type:      proto.GUILD_UPDATE_CREATE,
						GuildID:   guildID,
						GuildName: guildName,
						LeaderID:  c.Data.ID,
					})
					ws.broadcastGuildMemberUpdate(&proto.SocialMemberUpdate{
						Type:      proto.SOCIAL_MEMBER_ADD,
						SocialID:  int32(guildID),
						Character: *c.Data.Summary(),
					})
					ws.entities.NotifyOnline(c)
					ws.sendGameMessage(c, proto.RC_OK)
				})
			})
		})
	})
}

func (ws *WorldService) joinGuild(c *entity.Character, guildID common.GuildID) {
	if c.Data.GuildID != 0 {
		ws.sendGameMessage(c, proto.RC_ALREADY_IN_GUILD)
		return
	}

	ws.withGuild(c, guildID, func(g *social.Guild) {
		g.AddMember(*c.Data.Summary(), social.GUILD_DEFAULT_MEMBER_ROLE)
		gamedb.SaveGuild(g.Record(), func() {
			gamedb.SetCharacterGuild(c.Data.ID, guildID, social.GUILD_DEFAULT_MEMBER_ROLE, func() {
				c.Data.GuildID = guildID
				c.Data.GuildRole = social.GUILD_DEFAULT_MEMBER_ROLE

				summary := *c.Data.Summary()
				ws.broadcastGuildMemberUpdate(&proto.SocialMemberUpdate{
					Type:      proto.SOCIAL_MEMBER_ADD,
					SocialID:  int32(guildID),
					Character: summary,
				})
				ws.entities.NotifyOnline(c)
				ws.sendGameMessage(c, proto.RC_OK)
			})
		})
	})
}

// withGuild hands the loaded guild replica to fn, reading it from the
// database when no replica is resident
func (ws *WorldService) withGuild(c *entity.Character, guildID common.GuildID, fn func(g *social.Guild)) {
	if g := ws.social.GetGuild(guildID); g != nil {
		fn(g)
		return
	}
	gamedb.ReadGuild(guildID, func(rec *social.GuildRecord, err error) {
		if err != nil {
			wlog.Errorf("%s: load guild %d failed: %s", ws, guildID, err)
			ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
			return
		}
		g := social.NewGuildFromRecord(rec)
		ws.social.PutGuild(g)
		fn(g)
	})
}

func (ws *WorldService) leaveGuild(c *entity.Character) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}

	if g.IsLeader(c.Data.ID) {
		ws.terminateGuild(c, g)
		return
	}

	g.RemoveMember(c.Data.ID)
	gamedb.SaveGuild(g.Record(), func() {
		gamedb.SetCharacterGuild(c.Data.ID, 0, 0, func() {
			c.Data.GuildID = 0
			c.Data.GuildRole = 0
			ws.broadcastGuildMemberUpdate(&proto.SocialMemberUpdate{
				Type:      proto.SOCIAL_MEMBER_REMOVE,
				SocialID:  int32(g.ID),
				Character: proto.SocialCharacterSummary{ID: c.Data.ID},
			})
			ws.entities.NotifyOnline(c)
			ws.sendGameMessage(c, proto.RC_OK)
		})
	})
}

// terminateGuild disbands the guild when its leader leaves
func (ws *WorldService) terminateGuild(c *entity.Character, g *social.Guild) {
	guildID := g.ID
	members := g.Members()
	gamedb.DeleteGuild(guildID, func() {
		for _, member := range members {
			gamedb.SetCharacterGuild(member.ID, 0, 0, nil)
		}

		ws.social.RemoveGuild(guildID)
		ws.entities.ForEach(func(resident *entity.Character) {
			if resident.Data.GuildID == guildID {
				resident.Data.GuildID = 0
				resident.Data.GuildRole = 0
			}
		})
		ws.broadcastGuildUpdate(&proto.GuildUpdate{
			Type:    proto.GUILD_UPDATE_TERMINATE,
			GuildID: guildID,
		})
		ws.entities.NotifyOnline(c)
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

func (ws *WorldService) changeGuildLeader(c *entity.Character, newLeaderID common.CharacterID) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}
	if !g.IsLeader(c.Data.ID) {
		ws.sendGameMessage(c, proto.RC_NOT_GUILD_LEADER)
		return
	}
	if !g.IsMember(newLeaderID) {
		ws.sendGameMessage(c, proto.RC_CHARACTER_NOT_FOUND)
		return
	}

	g.SetLeader(newLeaderID)
	gamedb.SaveGuild(g.Record(), func() {
		ws.broadcastGuildUpdate(&proto.GuildUpdate{
			Type:     proto.GUILD_UPDATE_CHANGE_LEADER,
			GuildID:  g.ID,
			LeaderID: newLeaderID,
		})
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

func (ws *WorldService) setGuildMessage(c *entity.Character, message string) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}
	if !g.IsLeader(c.Data.ID) {
		ws.sendGameMessage(c, proto.RC_NOT_GUILD_LEADER)
		return
	}

	g.Message = message
	gamedb.SaveGuild(g.Record(), func() {
		ws.broadcastGuildUpdate(&proto.GuildUpdate{
			Type:    proto.GUILD_UPDATE_MESSAGE,
			GuildID: g.ID,
			Message: message,
		})
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

// setGuildRole replaces one configurable role definition. The leader role is
// fixed; members holding the changed role pick up the new permissions.
func (ws *WorldService) setGuildRole(c *entity.Character, roleID byte, role proto.GuildRole) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}
	if !g.IsLeader(c.Data.ID) {
		ws.sendGameMessage(c, proto.RC_NOT_GUILD_LEADER)
		return
	}
	if roleID == social.GUILD_LEADER_ROLE || role.Name == "" {
		ws.sendGameMessage(c, proto.RC_INVALID_GUILD_ROLE)
		return
	}

	g.SetRole(roleID, role)
	gamedb.SaveGuild(g.Record(), func() {
		ws.broadcastGuildUpdate(&proto.GuildUpdate{
			Type:    proto.GUILD_UPDATE_ROLE,
			GuildID: g.ID,
			RoleID:  roleID,
			Role:    role,
		})
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

func (ws *WorldService) setGuildMemberRole(c *entity.Character, memberID common.CharacterID, roleID byte) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}
	if !g.IsLeader(c.Data.ID) {
		ws.sendGameMessage(c, proto.RC_NOT_GUILD_LEADER)
		return
	}
	if _, ok := g.GetRole(roleID); !ok || roleID == social.GUILD_LEADER_ROLE || memberID == g.LeaderID {
		ws.sendGameMessage(c, proto.RC_INVALID_GUILD_ROLE)
		return
	}
	if !g.IsMember(memberID) {
		ws.sendGameMessage(c, proto.RC_CHARACTER_NOT_FOUND)
		return
	}

	g.SetMemberRole(memberID, roleID)
	gamedb.SaveGuild(g.Record(), func() {
		gamedb.SetCharacterGuild(memberID, g.ID, roleID, func() {
			if member := ws.entities.Get(memberID); member != nil {
				member.Data.GuildRole = roleID
			}
			ws.broadcastGuildUpdate(&proto.GuildUpdate{
				Type:       proto.GUILD_UPDATE_MEMBER_ROLE,
				GuildID:    g.ID,
				MemberID:   memberID,
				MemberRole: roleID,
			})
			ws.sendGameMessage(c, proto.RC_OK)
		})
	})
}

// increaseGuildSkillLevel spends one guild skill point to raise a guild skill.
// Both the skill change and the new point balance are broadcast.
func (ws *WorldService) increaseGuildSkillLevel(c *entity.Character, skillID int32) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}
	if g.SkillPoint <= 0 {
		ws.sendGameMessage(c, proto.RC_NO_GUILD_SKILL_POINT)
		return
	}

	g.SetSkillLevel(skillID, g.GetSkillLevel(skillID)+1)
	g.SkillPoint--
	gamedb.SaveGuild(g.Record(), func() {
		ws.broadcastGuildUpdate(&proto.GuildUpdate{
			Type:       proto.GUILD_UPDATE_SKILL_LEVEL,
			GuildID:    g.ID,
			SkillID:    skillID,
			SkillLevel: g.GetSkillLevel(skillID),
		})
		ws.broadcastGuildUpdate(&proto.GuildUpdate{
			Type:       proto.GUILD_UPDATE_LEVEL_EXP_SKILL_POINT,
			GuildID:    g.ID,
			Level:      g.Level,
			Exp:        g.Exp,
			SkillPoint: g.SkillPoint,
		})
		ws.sendGameMessage(c, proto.RC_OK)
	})
}

// donateGuildGold moves gold from the donor's account into the guild fund
func (ws *WorldService) donateGuildGold(c *entity.Character, amount int32) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}
	if amount <= 0 {
		ws.sendGameMessage(c, proto.RC_INVALID_AMOUNT)
		return
	}

	guildID := g.ID
	gamedb.GetGold(c.Data.UserID, func(balance int64, err error) {
		if err != nil {
			wlog.Errorf("%s: read gold of %s failed: %s", ws, c.Data.UserID, err)
			ws.sendGameMessage(c, proto.RC_SERVICE_UNAVAILABLE)
			return
		}
		if balance < int64(amount) {
			ws.sendGameMessage(c, proto.RC_NOT_ENOUGH_GOLD)
			return
		}
		if c.State == entity.StateDestroyed {
			return
		}
		// the replica may have been evicted while the balance was read
		g := ws.social.GetGuild(guildID)
		if g == nil {
			ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
			return
		}

		gamedb.ChangeGold(c.Data.UserID, -int64(amount), func(balance int64, err error) {
			if err != nil {
				wlog.Errorf("%s: take gold of %s failed: %s", ws, c.Data.UserID, err)
				ws.sendGameMessage(c, proto.RC_SERVICE_UNAVAILABLE)
				return
			}

			g.Gold += amount
			gamedb.SaveGuild(g.Record(), func() {
				ws.broadcastGuildUpdate(&proto.GuildUpdate{
					Type:    proto.GUILD_UPDATE_GOLD,
					GuildID: g.ID,
					Gold:    g.Gold,
				})
				ws.sendGameMessage(c, proto.RC_OK)
			})
		})
	})
}

// contributeGuildExp accrues guild exp, leveling the guild up and granting
// skill points as thresholds are crossed
func (ws *WorldService) contributeGuildExp(c *entity.Character, amount int32) {
	g := ws.guildOf(c)
	if g == nil {
		ws.sendGameMessage(c, proto.RC_NOT_IN_GUILD)
		return
	}
	if amount <= 0 {
		ws.sendGameMessage(c, proto.RC_INVALID_AMOUNT)
		return
	}

	g.AddExp(amount)
	gamedb.SaveGuild(g.Record(), func() {
		ws.broadcastGuildUpdate(&proto.GuildUpdate{
			Type:       proto.GUILD_UPDATE_LEVEL_EXP_SKILL_POINT,
			GuildID:    g.ID,
			Level:      g.Level,
			Exp:        g.Exp,
			SkillPoint: g.SkillPoint,
		})
		ws.sendGameMessage(c, proto.RC_OK)
	})
}
