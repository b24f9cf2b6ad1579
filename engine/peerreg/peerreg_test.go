package peerreg

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/proto"
)

func worldPeer(mapName string, port int) *proto.PeerInfo {
	return &proto.PeerInfo{
		PeerType: proto.PEER_WORLD,
		MapName:  mapName,
		Address:  "10.0.0.1",
		Port:     port,
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := NewRegistry()

	r.Register(1, worldPeer("town", 7001))
	r.Register(1, worldPeer("town", 7002))
	resolved := r.Resolve(proto.PEER_WORLD, "town")
	assert.Equal(t, 7002, resolved.Port)
	assert.Equal(t, 1, r.Count())

	// a newer connection supersedes the old registration
	r.Register(2, worldPeer("town", 7003))
	assert.Equal(t, 7003, r.Resolve(proto.PEER_WORLD, "town").Port)
	assert.Equal(t, 1, r.Count())
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()
	assert.T(t, r.Resolve(proto.PEER_WORLD, "nowhere") == nil, "unknown map should resolve to nil")
	assert.T(t, r.ResolveChat() == nil, "no chat relay registered")
}

func TestEvictConnection(t *testing.T) {
	r := NewRegistry()
	r.Register(1, worldPeer("town", 7001))
	r.Register(1, worldPeer("field", 7002))
	r.Register(2, &proto.PeerInfo{PeerType: proto.PEER_CHAT, Address: "10.0.0.2", Port: 8000})

	evicted := r.EvictConnection(1)
	assert.Equal(t, 2, len(evicted))
	assert.T(t, r.Resolve(proto.PEER_WORLD, "town") == nil, "evicted peer should be gone")
	assert.T(t, r.ResolveChat() != nil, "other connections stay registered")

	// evicting again is a no-op
	assert.Equal(t, 0, len(r.EvictConnection(1)))
}

func TestEvictDoesNotTouchSupersededKeys(t *testing.T) {
	r := NewRegistry()
	r.Register(1, worldPeer("town", 7001))
	// the town world restarts and re-registers over a new connection
	r.Register(2, worldPeer("town", 7005))

	// the stale connection dies afterwards
	evicted := r.EvictConnection(1)
	assert.Equal(t, 0, len(evicted))
	assert.Equal(t, 7005, r.Resolve(proto.PEER_WORLD, "town").Port)
}

func TestInstanceKeys(t *testing.T) {
	r := NewRegistry()
	r.Register(1, &proto.PeerInfo{
		PeerType:   proto.PEER_INSTANCE_WORLD,
		MapName:    "dungeon",
		InstanceID: "inst000000000001",
		Address:    "10.0.0.3",
		Port:       7100,
	})

	assert.T(t, r.Resolve(proto.PEER_WORLD, "dungeon") == nil, "instances do not register as static maps")
	resolved := r.Resolve(proto.PEER_INSTANCE_WORLD, "inst000000000001")
	assert.Equal(t, 7100, resolved.Port)
}
