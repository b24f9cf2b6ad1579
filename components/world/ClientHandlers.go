package world

import (
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/entity"
	"github.com/irikarra/worldlink/engine/gamedb"
	"github.com/irikarra/worldlink/engine/gamedb/gamedb_common"
	"github.com/irikarra/worldlink/engine/netutil"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/social"
	"github.com/irikarra/worldlink/engine/storage"
	"github.com/irikarra/worldlink/engine/wlog"
)

func (ws *WorldService) handleClientPacket(proxy *ClientProxy, msgtype proto.MsgType, packet *netutil.Packet) {
	if ws.clientProxies[proxy.connID] == nil {
		ws.clientProxies[proxy.connID] = proxy
	}

	switch msgtype {
	case proto.MT_ENTER_WORLD:
		characterID := common.CharacterID(packet.ReadVarStr())
		ws.handleEnterWorld(proxy, characterID)
	case proto.MT_CHAT_MESSAGE:
		var msg proto.ChatMessage
		packet.ReadData(&msg)
		ws.handleClientChat(proxy, &msg)
	case proto.MT_REQUEST_WARP:
		toInstance := packet.ReadBool()
		var target proto.WarpTarget
		packet.ReadData(&target)
		ws.handleRequestWarp(proxy, toInstance, &target)
	case proto.MT_OPEN_STORAGE:
		storageType := proto.StorageType(packet.ReadByte())
		ownerKey := packet.ReadVarStr()
		ws.handleOpenStorage(proxy, storageType, ownerKey)
	case proto.MT_CLOSE_STORAGE:
		ws.storages.Close(proxy.connID)
		proxy.SendStorageClosed()
	case proto.MT_MOVE_ITEM_TO_STORAGE:
		var item proto.StorageItem
		packet.ReadData(&item)
		ws.handleMoveItemToStorage(proxy, item)
	case proto.MT_MOVE_ITEM_FROM_STORAGE:
		slot := int(packet.ReadUint32())
		amount := int32(packet.ReadUint32())
		ws.handleMoveItemFromStorage(proxy, slot, amount)
	case proto.MT_SWAP_STORAGE_ITEM:
		fromSlot := int(packet.ReadUint32())
		toSlot := int(packet.ReadUint32())
		ws.handleSwapStorageItem(proxy, fromSlot, toSlot)
	case proto.MT_CREATE_PARTY:
		shareExp := packet.ReadBool()
		shareItem := packet.ReadBool()
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.createParty(c, shareExp, shareItem)
		})
	case proto.MT_JOIN_PARTY:
		partyID := common.PartyID(packet.ReadUint32())
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.joinParty(c, partyID)
		})
	case proto.MT_LEAVE_PARTY:
		ws.withActingCharacter(proxy, ws.leaveParty)
	case proto.MT_CHANGE_PARTY_LEADER:
		newLeaderID := common.CharacterID(packet.ReadVarStr())
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.changePartyLeader(c, newLeaderID)
		})
	case proto.MT_PARTY_SETTING:
		shareExp := packet.ReadBool()
		shareItem := packet.ReadBool()
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.changePartySetting(c, shareExp, shareItem)
		})
	case proto.MT_CREATE_GUILD:
		guildName := packet.ReadVarStr()
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.createGuild(c, guildName)
		})
	case proto.MT_JOIN_GUILD:
		guildID := common.GuildID(packet.ReadUint32())
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.joinGuild(c, guildID)
		})
	case proto.MT_LEAVE_GUILD:
		ws.withActingCharacter(proxy, ws.leaveGuild)
	case proto.MT_CHANGE_GUILD_LEADER:
		newLeaderID := common.CharacterID(packet.ReadVarStr())
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.changeGuildLeader(c, newLeaderID)
		})
	case proto.MT_GUILD_MESSAGE:
		message := packet.ReadVarStr()
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.setGuildMessage(c, message)
		})
	case proto.MT_GUILD_SET_ROLE:
		roleID := packet.ReadByte()
		var role proto.GuildRole
		packet.ReadData(&role)
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.setGuildRole(c, roleID, role)
		})
	case proto.MT_GUILD_SET_MEMBER_ROLE:
		memberID := common.CharacterID(packet.ReadVarStr())
		roleID := packet.ReadByte()
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.setGuildMemberRole(c, memberID, roleID)
		})
	case proto.MT_GUILD_SKILL_LEVEL:
		skillID := int32(packet.ReadUint32())
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.increaseGuildSkillLevel(c, skillID)
		})
	case proto.MT_GUILD_DONATE_GOLD:
		amount := int32(packet.ReadUint32())
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.donateGuildGold(c, amount)
		})
	case proto.MT_GUILD_DONATE_EXP:
		amount := int32(packet.ReadUint32())
		ws.withActingCharacter(proxy, func(c *entity.Character) {
			ws.contributeGuildExp(c, amount)
		})
	default:
		wlog.Errorf("%s: unknown message type from %s: %v", ws, proxy, msgtype)
	}
}

// withActingCharacter runs fn with the proxy's character if it can act
func (ws *WorldService) withActingCharacter(proxy *ClientProxy, fn func(c *entity.Character)) {
	c := ws.entities.GetByConnection(proxy.connID)
	if c == nil {
		proxy.SendGameMessage(proto.RC_CHARACTER_NOT_FOUND)
		return
	}
	if !c.CanAct() {
		return
	}
	fn(c)
}

func (ws *WorldService) sendGameMessage(c *entity.Character, code proto.ResultCode) {
	if proxy := ws.clientProxies[c.ConnectionID]; proxy != nil {
		proxy.SendGameMessage(code)
	}
}

// handleEnterWorld loads the character and spawns it; spawns arriving before
// static data finished loading are queued and replayed in order
func (ws *WorldService) handleEnterWorld(proxy *ClientProxy, characterID common.CharacterID) {
	connID := proxy.connID
	ws.entities.WhenReady(func() {
		gamedb.ReadCharacter(characterID, func(data *gamedbcommon.CharacterData, err error) {
			if ws.clientProxies[connID] == nil {
				return // client disconnected while loading
			}
			if err != nil {
				wlog.Errorf("%s: load character %s failed: %s", ws, characterID, err)
				proxy.SendGameMessage(proto.RC_CHARACTER_NOT_FOUND)
				return
			}

			c := ws.entities.Add(connID, data)
			if ws.isInstance {
				// the instance is never the durable location
				c.MarkPreWarpLocation(data.CurrentMapName, data.CurrentX, data.CurrentY, data.CurrentZ)
				data.CurrentX, data.CurrentY, data.CurrentZ = ws.entryPoint.X, ws.entryPoint.Y, ws.entryPoint.Z
			}
			data.CurrentMapName = ws.mapName
			ws.entities.Activate(c)
			ws.loadSocialReplicas(c)

			ack := proxy.NewPacket()
			ack.AppendUint16(proto.MT_ENTER_WORLD_ACK)
			ack.AppendData(data)
			proxy.SendPacketRelease(ack)
		})
	})
}

// loadSocialReplicas loads the party/guild of a spawning character from the
// database when no replica is resident yet
func (ws *WorldService) loadSocialReplicas(c *entity.Character) {
	if partyID := c.Data.PartyID; partyID != 0 && ws.social.GetParty(partyID) == nil {
		gamedb.ReadParty(partyID, func(rec *social.PartyRecord, err error) {
			if err != nil {
				wlog.Errorf("%s: load party %d failed: %s", ws, partyID, err)
				return
			}
			if ws.social.GetParty(partyID) == nil {
				ws.social.PutParty(social.NewPartyFromRecord(rec))
			}
		})
	}
	if guildID := c.Data.GuildID; guildID != 0 && ws.social.GetGuild(guildID) == nil {
		gamedb.ReadGuild(guildID, func(rec *social.GuildRecord, err error) {
			if err != nil {
				wlog.Errorf("%s: load guild %d failed: %s", ws, guildID, err)
				return
			}
			if ws.social.GetGuild(guildID) == nil {
				ws.social.PutGuild(social.NewGuildFromRecord(rec))
			}
		})
	}
}

// handleClientChat stamps the sender identity on the message, delivers it
// locally and relays non-local channels through the chat process
func (ws *WorldService) handleClientChat(proxy *ClientProxy, msg *proto.ChatMessage) {
	c := ws.entities.GetByConnection(proxy.connID)
	if c == nil {
		return
	}
	msg.SenderID = c.Data.ID
	msg.SenderName = c.Data.Name
	msg.PartyID = c.Data.PartyID
	msg.GuildID = c.Data.GuildID

	ws.deliverChatMessage(msg)
	if msg.Channel != proto.CHANNEL_LOCAL {
		if conn := ws.chatConn.GetConn(); conn != nil {
			conn.SendChatMessage(msg)
		}
	}
}

func (ws *WorldService) handleRequestWarp(proxy *ClientProxy, toInstance bool, target *proto.WarpTarget) {
	c := ws.entities.GetByConnection(proxy.connID)
	if c == nil {
		proxy.SendGameMessage(proto.RC_CHARACTER_NOT_FOUND)
		return
	}
	if !c.CanAct() {
		return
	}
	if toInstance {
		ws.beginInstanceWarp(c, target)
	} else {
		ws.beginDirectWarp(c, target)
	}
}

// beginDirectWarp saves the character with its destination and redirects the
// client to the world serving the destination map
func (ws *WorldService) beginDirectWarp(c *entity.Character, target *proto.WarpTarget) {
	var peer *proto.PeerInfo
	if target.InstanceID.IsNil() {
		peer = ws.peers.Resolve(proto.PEER_WORLD, target.MapName)
	} else {
		peer = ws.peers.Resolve(proto.PEER_INSTANCE_WORLD, string(target.InstanceID))
	}
	if peer == nil {
		ws.sendGameMessage(c, proto.RC_UNKNOWN_MAP)
		return
	}
	if !ws.entities.BeginWarp(c) {
		return
	}
	ws.warpToPeer(c, peer, target)
}

// warpToPeer persists the character and redirects its client once the save
// has landed. A nil target keeps the current durable location, used when
// entering a disposable instance.
func (ws *WorldService) warpToPeer(c *entity.Character, peer *proto.PeerInfo, target *proto.WarpTarget) {
	if target != nil {
		c.Data.CurrentMapName = target.MapName
		c.Data.CurrentX, c.Data.CurrentY, c.Data.CurrentZ = target.X, target.Y, target.Z
		if ws.isInstance {
			// leaving the instance: the destination is the durable location
			c.MarkPreWarpLocation(target.MapName, target.X, target.Y, target.Z)
		}
	}

	connID := c.ConnectionID
	address, port := peer.Address, peer.Port
	ws.entities.Destroy(c, func() {
		if proxy := ws.clientProxies[connID]; proxy != nil {
			proxy.SendWarpRedirect(address, port)
		}
	})
}

// beginInstanceWarp requests a fresh instance world from central and warps the
// gathered party members into it once it registers
func (ws *WorldService) beginInstanceWarp(leader *entity.Character, target *proto.WarpTarget) {
	if partyID := leader.Data.PartyID; partyID != 0 {
		if p := ws.social.GetParty(partyID); p != nil && !p.IsLeader(leader.Data.ID) {
			ws.sendGameMessage(leader, proto.RC_NOT_PARTY_LEADER)
			return
		}
	}

	members := ws.entities.GatherPartyMembers(leader)
	var warping []common.CharacterID
	for _, member := range members {
		if ws.entities.BeginWarp(member) {
			warping = append(warping, member.Data.ID)
		}
	}
	if len(warping) == 0 {
		return
	}

	instanceID := common.GenInstanceID()
	target.InstanceID = instanceID
	requestID := ws.spawns.Track(instanceID, target.MapName, consts.SPAWN_INSTANCE_TIMEOUT, func(info *proto.PeerInfo, code proto.ResultCode) {
		ws.finishInstanceWarp(warping, info, code)
	})

	conn := ws.centralConn.GetConn()
	if conn == nil {
		ws.spawns.Resolve(requestID, nil, proto.RC_SERVICE_UNAVAILABLE)
		return
	}
	wlog.Infof("%s: requesting instance %s on map %s for %d characters", ws, instanceID, target.MapName, len(warping))
	conn.SendRequestSpawnInstance(requestID, target.MapName, instanceID, target)
}

// finishInstanceWarp redirects the warping characters to the spawned instance,
// or rolls them back to Active when the spawn failed or timed out
func (ws *WorldService) finishInstanceWarp(warping []common.CharacterID, info *proto.PeerInfo, code proto.ResultCode) {
	for _, id := range warping {
		c := ws.entities.Get(id)
		if c == nil || c.State != entity.StateWarping {
			continue
		}
		if code != proto.RC_OK {
			ws.entities.CancelWarp(c)
			ws.sendGameMessage(c, proto.RC_SERVICE_UNAVAILABLE)
			continue
		}
		ws.warpToPeer(c, info, nil)
	}
}

func (ws *WorldService) storageActorOf(c *entity.Character) storage.Actor {
	return storage.Actor{
		ConnectionID: c.ConnectionID,
		CharacterID:  c.Data.ID,
		UserID:       c.Data.UserID,
		GuildID:      c.Data.GuildID,
	}
}

func (ws *WorldService) handleOpenStorage(proxy *ClientProxy, storageType proto.StorageType, ownerKey string) {
	ws.withActingCharacter(proxy, func(c *entity.Character) {
		var id storage.StorageID
		switch storageType {
		case proto.STORAGE_PLAYER:
			id = storage.PlayerStorageID(c.Data.UserID)
		case proto.STORAGE_GUILD:
			if c.Data.GuildID == 0 {
				ws.sendGameMessage(c, proto.RC_CANNOT_ACCESS_STORAGE)
				return
			}
			id = storage.GuildStorageID(c.Data.GuildID)
		case proto.STORAGE_BUILDING:
			id = storage.BuildingStorageID(common.BuildingID(ownerKey))
		default:
			ws.sendGameMessage(c, proto.RC_CANNOT_ACCESS_STORAGE)
			return
		}

		ws.storages.Open(ws.storageActorOf(c), id, func(items []proto.StorageItem, code proto.ResultCode) {
			if code != proto.RC_OK {
				ws.sendGameMessage(c, code)
				return
			}
			proxy.SendStorageOpened(id.Type, id.OwnerKey, int32(ws.cfg.StorageWeightLimit), int32(len(items)))
			proxy.SendStorageItems(items)
		})
	})
}

func (ws *WorldService) handleMoveItemToStorage(proxy *ClientProxy, item proto.StorageItem) {
	ws.withActingCharacter(proxy, func(c *entity.Character) {
		id, ok := ws.storages.Viewing(proxy.connID)
		if !ok {
			ws.sendGameMessage(c, proto.RC_STORAGE_NOT_OPENED)
			return
		}
		ws.storages.MoveItemToStorage(ws.storageActorOf(c), id, item, func(code proto.ResultCode) {
			if code != proto.RC_OK {
				ws.sendGameMessage(c, code)
			}
		})
	})
}

func (ws *WorldService) handleMoveItemFromStorage(proxy *ClientProxy, slot int, amount int32) {
	ws.withActingCharacter(proxy, func(c *entity.Character) {
		id, ok := ws.storages.Viewing(proxy.connID)
		if !ok {
			ws.sendGameMessage(c, proto.RC_STORAGE_NOT_OPENED)
			return
		}
		ws.storages.MoveItemFromStorage(ws.storageActorOf(c), id, slot, amount, func(item proto.StorageItem, code proto.ResultCode) {
			if code != proto.RC_OK {
				ws.sendGameMessage(c, code)
				return
			}
			withdrawn := proxy.NewPacket()
			withdrawn.AppendUint16(proto.MT_MOVE_ITEM_FROM_STORAGE)
			withdrawn.AppendData(item)
			proxy.SendPacketRelease(withdrawn)
		})
	})
}

func (ws *WorldService) handleSwapStorageItem(proxy *ClientProxy, fromSlot int, toSlot int) {
	ws.withActingCharacter(proxy, func(c *entity.Character) {
		id, ok := ws.storages.Viewing(proxy.connID)
		if !ok {
			ws.sendGameMessage(c, proto.RC_STORAGE_NOT_OPENED)
			return
		}
		ws.storages.SwapOrMergeStorageItem(ws.storageActorOf(c), id, fromSlot, toSlot, func(code proto.ResultCode) {
			if code != proto.RC_OK {
				ws.sendGameMessage(c, code)
			}
		})
	})
}

func (ws *WorldService) handleClientDisconnect(proxy *ClientProxy) {
	delete(ws.clientProxies, proxy.connID)
	ws.storages.Close(proxy.connID)
	if c := ws.entities.GetByConnection(proxy.connID); c != nil {
		ws.entities.Destroy(c, nil)
	}
}
