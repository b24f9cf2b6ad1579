package config

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/go-ini/ini"

	"github.com/irikarra/worldlink/engine/consts"
)

func init() {
	SetConfigFile("../../worldlink.ini.sample")
}

func TestLoad(t *testing.T) {
	config := Get()
	if config == nil {
		t.FailNow()
	}
	assert.T(t, config.Central.Port != 0, "central port not found")
	assert.T(t, config.Chat.Port != 0, "chat port not found")
	for worldid, wc := range config.Worlds {
		if wc.Port == 0 {
			t.Errorf("world %d port not found", worldid)
		}
		if wc.MapName == "" {
			t.Errorf("world %d map not found", worldid)
		}
	}
}

func TestReload(t *testing.T) {
	Get()
	Reload()
}

func TestSaveIntervalDefault(t *testing.T) {
	wcc := &WorldConfig{}
	readWorldCommonConfig(ini.Empty().Section("world_common"), wcc)
	assert.Equal(t, consts.AUTOSAVE_INTERVAL, wcc.SaveInterval)
}

func TestGetCentral(t *testing.T) {
	cfg := GetCentral()
	assert.T(t, cfg != nil, "central config not found")
	assert.Equal(t, "worldserver", cfg.WorldExecutable)
	assert.Equal(t, cfg.Port, cfg.BindPort)
	assert.Equal(t, 41000, cfg.HTTPPort)
}

func TestGetWorld(t *testing.T) {
	assert.T(t, GetWorld(1) != nil, "world1 config not found")
	assert.T(t, GetWorld(99) == nil, "world99 should not exist")
}

func TestWorldCommonInheritance(t *testing.T) {
	wc := GetWorld(1)
	assert.Equal(t, time.Minute, wc.SaveInterval)
	assert.Equal(t, 50, wc.PlayerStorageSlots)
	assert.Equal(t, "plains", wc.MapName)
}

func TestGetInstanceCommon(t *testing.T) {
	ic := GetInstanceCommon()
	assert.T(t, ic != nil, "instance_common config not found")
	assert.Equal(t, time.Second*30, ic.SaveInterval)
	// inherited from world_common
	assert.Equal(t, float64(30), ic.JoinInstanceDistance)
}

func TestGetWorldIDs(t *testing.T) {
	ids := GetWorldIDs()
	assert.Equal(t, 2, len(ids))
	assert.Equal(t, uint16(1), ids[0])
	assert.Equal(t, uint16(2), ids[1])
}

func TestGetGameDB(t *testing.T) {
	cfg := GetGameDB()
	assert.T(t, cfg != nil, "gamedb config not found")
	assert.Equal(t, "mongodb", cfg.Type)
}
