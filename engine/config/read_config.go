package config

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/irikarra/worldlink/engine/consts"
	"github.com/irikarra/worldlink/engine/wlog"
)

const (
	_DEFAULT_CONFIG_FILE  = "worldlink.ini"
	_DEFAULT_LOCALHOST_IP = "127.0.0.1"
	_DEFAULT_LOG_LEVEL    = "debug"
	_DEFAULT_GAMEDB_NAME  = "worldlink"
)

var (
	configFilePath  = _DEFAULT_CONFIG_FILE
	worldlinkConfig *WorldlinkConfig
	configLock      sync.Mutex
)

// CentralConfig defines fields of the central (directory) process config
type CentralConfig struct {
	BindIp          string
	BindPort        int
	Ip              string
	Port            int
	HTTPIp          string
	HTTPPort        int
	LogFile         string
	LogStderr       bool
	LogLevel        string
	WorldExecutable string
}

// ChatConfig defines fields of the chat relay process config
type ChatConfig struct {
	BindIp    string
	BindPort  int
	Ip        string
	Port      int
	HTTPIp    string
	HTTPPort  int
	LogFile   string
	LogStderr bool
	LogLevel  string
}

// WorldConfig defines fields of a world (map) process config
type WorldConfig struct {
	Ip                   string
	Port                 int
	HTTPIp               string
	HTTPPort             int
	MapName              string
	LogFile              string
	LogStderr            bool
	LogLevel             string
	GoMaxProcs           int
	SaveInterval         time.Duration
	JoinInstanceDistance float64
	PlayerStorageSlots   int
	GuildStorageSlots    int
	StorageWeightLimit   int
}

// GameDBConfig defines fields of the database service config
type GameDBConfig struct {
	Type        string // document engine type (mongodb)
	Url         string
	DB          string
	CurrencyUrl string // redis url for gold/cash counters, optional
	CurrencyDB  string
}

// WorldlinkConfig defines the total config file structure
type WorldlinkConfig struct {
	Central        CentralConfig
	Chat           ChatConfig
	WorldCommon    WorldConfig
	InstanceCommon WorldConfig
	Worlds         map[int]*WorldConfig
	GameDB         GameDBConfig
}

// SetConfigFile sets the config file path (worldlink.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of worldlink.ini
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total worldlink config
func Get() *WorldlinkConfig {
	configLock.Lock()
	defer configLock.Unlock() // protect concurrent access from multiple goroutines
	if worldlinkConfig == nil {
		worldlinkConfig = readWorldlinkConfig()
	}
	return worldlinkConfig
}

// Reload forces the process to reload the whole config
func Reload() *WorldlinkConfig {
	configLock.Lock()
	worldlinkConfig = nil
	configLock.Unlock()

	return Get()
}

// GetCentral returns the central process config
func GetCentral() *CentralConfig {
	return &Get().Central
}

// GetChat returns the chat process config
func GetChat() *ChatConfig {
	return &Get().Chat
}

// GetWorld gets the world config of specified world ID
func GetWorld(worldid uint16) *WorldConfig {
	return Get().Worlds[int(worldid)]
}

// GetInstanceCommon returns the config template for instance worlds
func GetInstanceCommon() *WorldConfig {
	return &Get().InstanceCommon
}

// GetWorldIDs returns all world IDs
func GetWorldIDs() []uint16 {
	cfg := Get()
	worldIDs := make([]int, 0, len(cfg.Worlds))
	for id := range cfg.Worlds {
		worldIDs = append(worldIDs, id)
	}
	sort.Ints(worldIDs)

	res := make([]uint16, len(worldIDs))
	for i, id := range worldIDs {
		res[i] = uint16(id)
	}
	return res
}

// GetGameDB returns the database service config
func GetGameDB() *GameDBConfig {
	return &Get().GameDB
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readWorldlinkConfig() *WorldlinkConfig {
	config := WorldlinkConfig{
		Worlds: map[int]*WorldConfig{},
	}
	wlog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")

	worldCommonSec := iniFile.Section("world_common")
	readWorldCommonConfig(worldCommonSec, &config.WorldCommon)
	config.InstanceCommon = config.WorldCommon
	instanceCommonSec := iniFile.Section("instance_common")
	_readWorldConfig(instanceCommonSec, &config.InstanceCommon)

	for _, sec := range iniFile.Sections() {
		secName := sec.Name()
		if secName == "DEFAULT" {
			continue
		}

		secName = strings.ToLower(secName)
		if secName == "world_common" || secName == "instance_common" {
			// common sections are handled above
		} else if secName == "central" {
			readCentralConfig(sec, &config.Central)
		} else if secName == "chat" {
			readChatConfig(sec, &config.Chat)
		} else if len(secName) > 5 && secName[:5] == "world" {
			id, err := strconv.Atoi(secName[5:])
			checkConfigError(err, fmt.Sprintf("invalid world name: %s", secName))
			config.Worlds[id] = readWorldConfig(sec, &config.WorldCommon)
		} else if secName == "gamedb" {
			readGameDBConfig(sec, &config.GameDB)
		} else {
			wlog.Errorf("unknown section: %s", secName)
		}
	}

	validateConfig(&config)
	return &config
}

func readCentralConfig(sec *ini.Section, cc *CentralConfig) {
	cc.BindIp = _DEFAULT_LOCALHOST_IP
	cc.Ip = _DEFAULT_LOCALHOST_IP
	cc.HTTPIp = _DEFAULT_LOCALHOST_IP
	cc.LogFile = "central.log"
	cc.LogStderr = true
	cc.LogLevel = _DEFAULT_LOG_LEVEL
	cc.WorldExecutable = "worldserver"

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			cc.Ip = key.MustString(cc.Ip)
		} else if name == "port" {
			cc.Port = key.MustInt(cc.Port)
		} else if name == "bind_ip" {
			cc.BindIp = key.MustString(cc.BindIp)
		} else if name == "bind_port" {
			cc.BindPort = key.MustInt(cc.BindPort)
		} else if name == "http_ip" {
			cc.HTTPIp = key.MustString(cc.HTTPIp)
		} else if name == "http_port" {
			cc.HTTPPort = key.MustInt(cc.HTTPPort)
		} else if name == "log_file" {
			cc.LogFile = key.MustString(cc.LogFile)
		} else if name == "log_stderr" {
			cc.LogStderr = key.MustBool(cc.LogStderr)
		} else if name == "log_level" {
			cc.LogLevel = key.MustString(cc.LogLevel)
		} else if name == "world_executable" {
			cc.WorldExecutable = key.MustString(cc.WorldExecutable)
		} else {
			wlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if cc.BindPort == 0 {
		cc.BindPort = cc.Port
	}
}

func readChatConfig(sec *ini.Section, cc *ChatConfig) {
	cc.BindIp = _DEFAULT_LOCALHOST_IP
	cc.Ip = _DEFAULT_LOCALHOST_IP
	cc.HTTPIp = _DEFAULT_LOCALHOST_IP
	cc.LogFile = "chat.log"
	cc.LogStderr = true
	cc.LogLevel = _DEFAULT_LOG_LEVEL

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			cc.Ip = key.MustString(cc.Ip)
		} else if name == "port" {
			cc.Port = key.MustInt(cc.Port)
		} else if name == "bind_ip" {
			cc.BindIp = key.MustString(cc.BindIp)
		} else if name == "bind_port" {
			cc.BindPort = key.MustInt(cc.BindPort)
		} else if name == "http_ip" {
			cc.HTTPIp = key.MustString(cc.HTTPIp)
		} else if name == "http_port" {
			cc.HTTPPort = key.MustInt(cc.HTTPPort)
		} else if name == "log_file" {
			cc.LogFile = key.MustString(cc.LogFile)
		} else if name == "log_stderr" {
			cc.LogStderr = key.MustBool(cc.LogStderr)
		} else if name == "log_level" {
			cc.LogLevel = key.MustString(cc.LogLevel)
		} else {
			wlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if cc.BindPort == 0 {
		cc.BindPort = cc.Port
	}
}

func readWorldCommonConfig(section *ini.Section, wcc *WorldConfig) {
	wcc.Ip = "0.0.0.0"
	wcc.HTTPIp = _DEFAULT_LOCALHOST_IP
	wcc.LogFile = "world.log"
	wcc.LogStderr = true
	wcc.LogLevel = _DEFAULT_LOG_LEVEL
	wcc.GoMaxProcs = 0
	wcc.SaveInterval = consts.AUTOSAVE_INTERVAL
	wcc.JoinInstanceDistance = 30
	wcc.PlayerStorageSlots = 50
	wcc.GuildStorageSlots = 100
	wcc.StorageWeightLimit = 0 // unlimited

	_readWorldConfig(section, wcc)
}

func readWorldConfig(sec *ini.Section, worldCommonConfig *WorldConfig) *WorldConfig {
	var wc WorldConfig = *worldCommonConfig // copy from world_common
	_readWorldConfig(sec, &wc)
	if wc.MapName == "" {
		wlog.Panicf("map is not set in world config %s", sec.Name())
	}
	return &wc
}

func _readWorldConfig(sec *ini.Section, wc *WorldConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			wc.Ip = key.MustString(wc.Ip)
		} else if name == "port" {
			wc.Port = key.MustInt(wc.Port)
		} else if name == "http_ip" {
			wc.HTTPIp = key.MustString(wc.HTTPIp)
		} else if name == "http_port" {
			wc.HTTPPort = key.MustInt(wc.HTTPPort)
		} else if name == "map" {
			wc.MapName = key.MustString(wc.MapName)
		} else if name == "log_file" {
			wc.LogFile = key.MustString(wc.LogFile)
		} else if name == "log_stderr" {
			wc.LogStderr = key.MustBool(wc.LogStderr)
		} else if name == "log_level" {
			wc.LogLevel = key.MustString(wc.LogLevel)
		} else if name == "gomaxprocs" {
			wc.GoMaxProcs = key.MustInt(wc.GoMaxProcs)
		} else if name == "save_interval" {
			wc.SaveInterval = time.Second * time.Duration(key.MustInt(int(wc.SaveInterval/time.Second)))
		} else if name == "join_instance_distance" {
			wc.JoinInstanceDistance = key.MustFloat64(wc.JoinInstanceDistance)
		} else if name == "player_storage_slots" {
			wc.PlayerStorageSlots = key.MustInt(wc.PlayerStorageSlots)
		} else if name == "guild_storage_slots" {
			wc.GuildStorageSlots = key.MustInt(wc.GuildStorageSlots)
		} else if name == "storage_weight_limit" {
			wc.StorageWeightLimit = key.MustInt(wc.StorageWeightLimit)
		} else {
			wlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readGameDBConfig(sec *ini.Section, config *GameDBConfig) {
	config.Type = "mongodb"
	config.DB = _DEFAULT_GAMEDB_NAME
	config.CurrencyDB = "0"

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if name == "currency_url" {
			config.CurrencyUrl = key.MustString(config.CurrencyUrl)
		} else if name == "currency_db" {
			config.CurrencyDB = key.MustString(config.CurrencyDB)
		} else {
			wlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	validateGameDBConfig(config)
}

func validateGameDBConfig(config *GameDBConfig) {
	if config.Type == "mongodb" {
		if config.Url == "" {
			wlog.Panicf("url is not set in %s gamedb config", config.Type)
		}
		if config.DB == "" {
			wlog.Panicf("db is not set in %s gamedb config", config.Type)
		}
	} else {
		wlog.Panicf("unknown gamedb type: %s", config.Type)
	}

	if config.CurrencyUrl != "" {
		if _, err := strconv.Atoi(config.CurrencyDB); err != nil {
			wlog.Panic(errors.Wrap(err, "currency_db must be integer"))
		}
	}
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		wlog.Panicf("read config error: %s", msg)
	}
}

func validateConfig(config *WorldlinkConfig) {
	if config.Central.Port == 0 {
		wlog.Panicf("central port is not set in config file")
	}

	if config.Chat.Port == 0 {
		wlog.Panicf("chat port is not set in config file")
	}

	worldsNum := len(config.Worlds)
	if worldsNum <= 0 {
		wlog.Panicf("world not found in config file, must has at least 1 world")
	}

	for worldid := 1; worldid <= worldsNum; worldid++ {
		if _, ok := config.Worlds[worldid]; !ok {
			wlog.Panicf("found %d worlds in config file, but world%d is not found. worldid must be 1~%d", worldsNum, worldid, worldsNum)
		}
	}

	mapNames := map[string]int{}
	for worldid, wc := range config.Worlds {
		if prev, ok := mapNames[wc.MapName]; ok {
			wlog.Panicf("world%d and world%d serve the same map: %s", prev, worldid, wc.MapName)
		}
		mapNames[wc.MapName] = worldid
	}
}
