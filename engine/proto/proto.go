package proto

// MsgType is the type of message types
type MsgType uint16

// Message types between peers (central / chat / worlds)
const (
	// MT_INVALID is the invalid message type
	MT_INVALID = iota
	// MT_REGISTER_PEER is the message type for peers to register to central
	MT_REGISTER_PEER
	// MT_REGISTER_PEER_ACK is the message type for central to ack peer registration
	MT_REGISTER_PEER_ACK
	// MT_PEER_UPDATE is the message type for central to push a peer info to other peers
	MT_PEER_UPDATE
	// MT_PEER_REMOVE is the message type for central to push a peer removal to other peers
	MT_PEER_REMOVE
	// MT_STATUS_PING is the message type for worlds to report load to central
	MT_STATUS_PING
	// MT_REQUEST_SPAWN_INSTANCE is the message type for worlds to request an instance world
	MT_REQUEST_SPAWN_INSTANCE
	// MT_SPAWN_INSTANCE_RESULT is the message type for central to answer a spawn request
	MT_SPAWN_INSTANCE_RESULT
)

// Message types relayed through the chat process
const (
	// MT_CHAT_MESSAGE is the message type of chat messages (local/global/whisper/party/guild)
	MT_CHAT_MESSAGE = 100 + iota
	// MT_USER_ADD is the message type for announcing a character entering a world
	MT_USER_ADD
	// MT_USER_REMOVE is the message type for announcing a character leaving a world
	MT_USER_REMOVE
	// MT_USER_ONLINE is the message type for refreshing a character summary
	MT_USER_ONLINE
	// MT_UPDATE_PARTY is the message type of party replica updates
	MT_UPDATE_PARTY
	// MT_UPDATE_PARTY_MEMBER is the message type of party roster updates
	MT_UPDATE_PARTY_MEMBER
	// MT_UPDATE_GUILD is the message type of guild replica updates
	MT_UPDATE_GUILD
	// MT_UPDATE_GUILD_MEMBER is the message type of guild roster updates
	MT_UPDATE_GUILD_MEMBER
)

// Message types between clients and worlds
const (
	// MT_ENTER_WORLD is the message type for clients to spawn a character
	MT_ENTER_WORLD = 200 + iota
	// MT_ENTER_WORLD_ACK is the message type to ack character spawn
	MT_ENTER_WORLD_ACK
	// MT_GAME_MESSAGE is the message type of gameplay result notifications
	MT_GAME_MESSAGE
	// MT_REQUEST_WARP is the message type for clients to request warping
	MT_REQUEST_WARP
	// MT_WARP_REDIRECT is the message type to redirect a client to another world
	MT_WARP_REDIRECT
	// MT_OPEN_STORAGE is the message type for clients to open a storage
	MT_OPEN_STORAGE
	// MT_CLOSE_STORAGE is the message type for clients to close the opened storage
	MT_CLOSE_STORAGE
	// MT_STORAGE_OPENED is the message type to notify a storage is opened
	MT_STORAGE_OPENED
	// MT_STORAGE_CLOSED is the message type to notify the storage is closed
	MT_STORAGE_CLOSED
	// MT_STORAGE_ITEMS is the message type carrying the full slot list of a storage
	MT_STORAGE_ITEMS
	// MT_MOVE_ITEM_FROM_STORAGE is the message type for moving items storage -> inventory
	MT_MOVE_ITEM_FROM_STORAGE
	// MT_MOVE_ITEM_TO_STORAGE is the message type for moving items inventory -> storage
	MT_MOVE_ITEM_TO_STORAGE
	// MT_SWAP_STORAGE_ITEM is the message type for swapping or merging two storage slots
	MT_SWAP_STORAGE_ITEM
	// MT_CREATE_PARTY is the message type for clients to create a party
	MT_CREATE_PARTY
	// MT_JOIN_PARTY is the message type for clients to join an existing party
	MT_JOIN_PARTY
	// MT_LEAVE_PARTY is the message type for clients to leave their party
	MT_LEAVE_PARTY
	// MT_CHANGE_PARTY_LEADER is the message type for the leader to hand the party over
	MT_CHANGE_PARTY_LEADER
	// MT_PARTY_SETTING is the message type for the leader to change party sharing settings
	MT_PARTY_SETTING
	// MT_CREATE_GUILD is the message type for clients to create a guild
	MT_CREATE_GUILD
	// MT_JOIN_GUILD is the message type for clients to join an existing guild
	MT_JOIN_GUILD
	// MT_LEAVE_GUILD is the message type for clients to leave their guild
	MT_LEAVE_GUILD
	// MT_CHANGE_GUILD_LEADER is the message type for the leader to hand the guild over
	MT_CHANGE_GUILD_LEADER
	// MT_GUILD_MESSAGE is the message type for setting the guild message of the day
	MT_GUILD_MESSAGE
	// MT_GUILD_SET_ROLE is the message type for the leader to define a guild role
	MT_GUILD_SET_ROLE
	// MT_GUILD_SET_MEMBER_ROLE is the message type for the leader to assign a member's role
	MT_GUILD_SET_MEMBER_ROLE
	// MT_GUILD_SKILL_LEVEL is the message type for spending a guild skill point on a skill
	MT_GUILD_SKILL_LEVEL
	// MT_GUILD_DONATE_GOLD is the message type for donating account gold to the guild fund
	MT_GUILD_DONATE_GOLD
	// MT_GUILD_DONATE_EXP is the message type for contributing exp to the guild
	MT_GUILD_DONATE_EXP
)
