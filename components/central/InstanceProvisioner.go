package main

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/config"
	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

type pendingSpawn struct {
	requestID  uint32
	requester  common.ConnectionID
	instanceID common.InstanceID
	mapName    string
	deadline   time.Time
}

// instanceProvisioner launches instance world processes on demand and answers
// the requesting world once the instance registers, or fails the request after
// a timeout
type instanceProvisioner struct {
	executable string
	pending    map[common.InstanceID]*pendingSpawn
}

func newInstanceProvisioner(executable string) *instanceProvisioner {
	return &instanceProvisioner{
		executable: executable,
		pending:    map[common.InstanceID]*pendingSpawn{},
	}
}

func (ip *instanceProvisioner) spawn(cs *CentralService, proxy *peerProxy, requestID uint32, mapName string, instanceID common.InstanceID, target *proto.WarpTarget) {
	if _, ok := ip.pending[instanceID]; ok {
		wlog.Warnf("%s: instance %s is already being spawned", cs, instanceID)
		return
	}

	cmd := exec.Command(ip.executable,
		"-configfile", config.GetConfigFilePath(),
		"-instanceid", string(instanceID),
		"-mapid", mapName,
		"-warp", fmt.Sprintf("%f,%f,%f", target.X, target.Y, target.Z),
	)
	if err := cmd.Start(); err != nil {
		wlog.Errorf("%s: spawn instance %s on map %s failed: %s", cs, instanceID, mapName, err)
		proxy.SendSpawnInstanceResult(requestID, proto.RC_SERVICE_UNAVAILABLE, nil)
		return
	}
	go cmd.Wait() // reap the child when it exits

	wlog.Infof("%s: spawning instance %s on map %s, pid %d", cs, instanceID, mapName, cmd.Process.Pid)
	ip.pending[instanceID] = &pendingSpawn{
		requestID:  requestID,
		requester:  proxy.connID,
		instanceID: instanceID,
		mapName:    mapName,
		deadline:   time.Now().Add(consts.SPAWN_INSTANCE_TIMEOUT),
	}
}

// resolveInstance answers the pending spawn request once the instance world
// registered itself
func (ip *instanceProvisioner) resolveInstance(cs *CentralService, info *proto.PeerInfo) {
	req := ip.pending[info.InstanceID]
	if req == nil {
		return
	}
	delete(ip.pending, info.InstanceID)

	if proxy := cs.proxies[req.requester]; proxy != nil {
		proxy.SendSpawnInstanceResult(req.requestID, proto.RC_OK, info)
	}
}

func (ip *instanceProvisioner) checkTimeouts(cs *CentralService, now time.Time) {
	for instanceID, req := range ip.pending {
		if now.Before(req.deadline) {
			continue
		}
		delete(ip.pending, instanceID)
		wlog.Errorf("%s: instance %s on map %s did not register in time", cs, instanceID, req.mapName)
		if proxy := cs.proxies[req.requester]; proxy != nil {
			proxy.SendSpawnInstanceResult(req.requestID, proto.RC_SERVICE_UNAVAILABLE, nil)
		}
	}
}

// dropRequester abandons pending spawns whose requesting world disconnected
func (ip *instanceProvisioner) dropRequester(connID common.ConnectionID) {
	for instanceID, req := range ip.pending {
		if req.requester == connID {
			delete(ip.pending, instanceID)
		}
	}
}
