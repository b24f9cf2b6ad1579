package centralclient

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"github.com/irikarra/worldlink/engine/proto"
)

func TestPeerCache(t *testing.T) {
	pc := NewPeerCache()
	pc.Put(&proto.PeerInfo{PeerType: proto.PEER_WORLD, MapName: "town", Address: "10.0.0.1", Port: 7001})
	pc.Put(&proto.PeerInfo{PeerType: proto.PEER_CHAT, Address: "10.0.0.2", Port: 8000})

	assert.Equal(t, 7001, pc.Resolve(proto.PEER_WORLD, "town").Port)
	assert.Equal(t, 8000, pc.ResolveChat().Port)

	// pushes supersede older entries
	pc.Put(&proto.PeerInfo{PeerType: proto.PEER_WORLD, MapName: "town", Address: "10.0.0.1", Port: 7002})
	assert.Equal(t, 7002, pc.Resolve(proto.PEER_WORLD, "town").Port)
	assert.Equal(t, 2, pc.Count())

	pc.Remove(proto.PEER_WORLD, "town")
	assert.T(t, pc.Resolve(proto.PEER_WORLD, "town") == nil, "removed peer should be gone")
}

func TestSpawnTrackerResolvesOnce(t *testing.T) {
	st := NewSpawnTracker()

	var results []proto.ResultCode
	requestID := st.Track("inst000000000001", "dungeon", time.Minute, func(info *proto.PeerInfo, code proto.ResultCode) {
		results = append(results, code)
	})
	assert.Equal(t, 1, st.PendingCount())

	ok := st.Resolve(requestID, &proto.PeerInfo{PeerType: proto.PEER_INSTANCE_WORLD, InstanceID: "inst000000000001"}, proto.RC_OK)
	assert.T(t, ok, "first resolve should land")
	assert.Equal(t, []proto.ResultCode{proto.RC_OK}, results)
	assert.Equal(t, 0, st.PendingCount())

	// duplicate results are dropped
	ok = st.Resolve(requestID, nil, proto.RC_OK)
	assert.T(t, !ok, "duplicate resolve should be dropped")
	assert.Equal(t, 1, len(results))
}

func TestSpawnTrackerTimeout(t *testing.T) {
	st := NewSpawnTracker()

	var code proto.ResultCode
	var info *proto.PeerInfo
	requestID := st.Track("inst000000000002", "dungeon", time.Millisecond, func(i *proto.PeerInfo, c proto.ResultCode) {
		info, code = i, c
	})

	// before the deadline nothing resolves
	st.CheckTimeouts(time.Now().Add(-time.Hour))
	assert.Equal(t, 1, st.PendingCount())

	st.CheckTimeouts(time.Now().Add(time.Second))
	assert.Equal(t, 0, st.PendingCount())
	assert.Equal(t, proto.RC_SERVICE_UNAVAILABLE, code)
	assert.T(t, info == nil, "timeout resolves without a peer")

	// a late success after the timeout is dropped
	assert.T(t, !st.Resolve(requestID, nil, proto.RC_OK), "late resolve should be dropped")
}
