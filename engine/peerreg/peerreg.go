package peerreg

import (
	"fmt"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/proto"
)

// Key identifies a registry slot: map name for worlds, instance id for
// instance worlds, empty extra for the chat relay
type Key struct {
	Type  proto.PeerType
	Extra string
}

func (k Key) String() string {
	return fmt.Sprintf("%s<%s>", k.Type, k.Extra)
}

// KeyOf builds the registry key of a peer
func KeyOf(info *proto.PeerInfo) Key {
	return Key{Type: info.PeerType, Extra: info.Extra()}
}

type entry struct {
	info   *proto.PeerInfo
	connID common.ConnectionID
}

// Registry is the central directory of registered peer processes.
// Registration is last-write-wins per key and idempotent.
type Registry struct {
	peers  map[Key]*entry
	byConn map[common.ConnectionID]map[Key]struct{}
}

// NewRegistry creates an empty peer registry
func NewRegistry() *Registry {
	return &Registry{
		peers:  map[Key]*entry{},
		byConn: map[common.ConnectionID]map[Key]struct{}{},
	}
}

// Register stores the peer under its key, superseding any previous
// registration for the same key
func (r *Registry) Register(connID common.ConnectionID, info *proto.PeerInfo) {
	key := KeyOf(info)
	if old, ok := r.peers[key]; ok && old.connID != connID {
		r.detach(old.connID, key)
	}
	r.peers[key] = &entry{info: info, connID: connID}

	keys := r.byConn[connID]
	if keys == nil {
		keys = map[Key]struct{}{}
		r.byConn[connID] = keys
	}
	keys[key] = struct{}{}
}

func (r *Registry) detach(connID common.ConnectionID, key Key) {
	if keys := r.byConn[connID]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// Resolve returns the registered peer for the key, nil if unknown
func (r *Registry) Resolve(peerType proto.PeerType, extra string) *proto.PeerInfo {
	if e, ok := r.peers[Key{Type: peerType, Extra: extra}]; ok {
		return e.info
	}
	return nil
}

// ResolveChat returns the registered chat relay, nil if none
func (r *Registry) ResolveChat() *proto.PeerInfo {
	return r.Resolve(proto.PEER_CHAT, "")
}

// EvictConnection removes every registration still owned by the connection,
// returning the evicted peers. Entries superseded by a newer connection are
// left alone.
func (r *Registry) EvictConnection(connID common.ConnectionID) []*proto.PeerInfo {
	keys := r.byConn[connID]
	if keys == nil {
		return nil
	}
	delete(r.byConn, connID)

	var evicted []*proto.PeerInfo
	for key := range keys {
		if e, ok := r.peers[key]; ok && e.connID == connID {
			delete(r.peers, key)
			evicted = append(evicted, e.info)
		}
	}
	return evicted
}

// Count returns the number of registered peers
func (r *Registry) Count() int {
	return len(r.peers)
}

// ForEach visits every registered peer
func (r *Registry) ForEach(fn func(info *proto.PeerInfo)) {
	for _, e := range r.peers {
		fn(e.info)
	}
}
