package centralclient

import (
	"time"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/peerreg"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

// PeerCache is a world's local view of the peers central has pushed to it.
// Entries stay usable while central is unreachable and are only replaced by
// explicit updates or removals.
type PeerCache struct {
	peers map[peerreg.Key]*proto.PeerInfo
}

// NewPeerCache creates an empty peer cache
func NewPeerCache() *PeerCache {
	return &PeerCache{peers: map[peerreg.Key]*proto.PeerInfo{}}
}

// Put stores a pushed peer, superseding any previous entry for its key
func (pc *PeerCache) Put(info *proto.PeerInfo) {
	pc.peers[peerreg.KeyOf(info)] = info
}

// Remove drops a peer the central reported gone
func (pc *PeerCache) Remove(peerType proto.PeerType, extra string) {
	delete(pc.peers, peerreg.Key{Type: peerType, Extra: extra})
}

// Resolve returns the cached peer for the key, nil if unknown
func (pc *PeerCache) Resolve(peerType proto.PeerType, extra string) *proto.PeerInfo {
	return pc.peers[peerreg.Key{Type: peerType, Extra: extra}]
}

// ResolveChat returns the cached chat relay, nil if unknown
func (pc *PeerCache) ResolveChat() *proto.PeerInfo {
	return pc.Resolve(proto.PEER_CHAT, "")
}

// Count returns the number of cached peers
func (pc *PeerCache) Count() int {
	return len(pc.peers)
}

// SpawnCallback resolves one instance spawn request: info is the registered
// instance peer on success, code is RC_OK or the failure reason
type SpawnCallback func(info *proto.PeerInfo, code proto.ResultCode)

type spawnRequest struct {
	requestID  uint32
	instanceID common.InstanceID
	mapName    string
	deadline   time.Time
	callback   SpawnCallback
}

// SpawnTracker tracks in-flight instance spawn requests towards central.
// Each request resolves exactly once: by result, or by timeout.
type SpawnTracker struct {
	nextRequestID uint32
	pending       map[uint32]*spawnRequest
}

// NewSpawnTracker creates an empty spawn tracker
func NewSpawnTracker() *SpawnTracker {
	return &SpawnTracker{pending: map[uint32]*spawnRequest{}}
}

// Track registers an in-flight spawn request and returns its request id
func (st *SpawnTracker) Track(instanceID common.InstanceID, mapName string, timeout time.Duration, callback SpawnCallback) uint32 {
	st.nextRequestID++
	requestID := st.nextRequestID
	st.pending[requestID] = &spawnRequest{
		requestID:  requestID,
		instanceID: instanceID,
		mapName:    mapName,
		deadline:   time.Now().Add(timeout),
		callback:   callback,
	}
	return requestID
}

// Resolve completes a spawn request with central's answer. Late or duplicate
// results are dropped.
func (st *SpawnTracker) Resolve(requestID uint32, info *proto.PeerInfo, code proto.ResultCode) bool {
	req, ok := st.pending[requestID]
	if !ok {
		return false
	}
	delete(st.pending, requestID)
	req.callback(info, code)
	return true
}

// CheckTimeouts resolves every request past its deadline as unavailable,
// called from the service tick
func (st *SpawnTracker) CheckTimeouts(now time.Time) {
	for requestID, req := range st.pending {
		if now.Before(req.deadline) {
			continue
		}
		delete(st.pending, requestID)
		wlog.Warnf("centralclient: spawn request %d for instance %s timed out", requestID, req.instanceID)
		req.callback(nil, proto.RC_SERVICE_UNAVAILABLE)
	}
}

// PendingCount returns the number of unresolved spawn requests
func (st *SpawnTracker) PendingCount() int {
	return len(st.pending)
}
