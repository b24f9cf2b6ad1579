// Package world implements a world (map) process: it serves game clients for
// one map, registers to central, relays social state through chat and owns
// the durable records of its residents.
package world

import (
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/irikarra/worldlink/engine/binutil"
	"github.com/irikarra/worldlink/engine/common"
	"github.com/irikarra/worldlink/engine/config"
	"github.com/irikarra/worldlink/engine/gamedb"
	"github.com/irikarra/worldlink/engine/post"
	"github.com/irikarra/worldlink/engine/proto"
	"github.com/irikarra/worldlink/engine/wlog"
)

var args struct {
	worldID         int
	configFile      string
	logLevel        string
	runInDaemonMode bool
	instanceID      string
	mapID           string
	warp            string
}

func parseArgs() {
	flag.IntVar(&args.worldID, "worldid", 0, "world ID, as in the config file (static worlds)")
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, overriding config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.StringVar(&args.instanceID, "instanceid", "", "run as a disposable instance world with this id")
	flag.StringVar(&args.mapID, "mapid", "", "map served by the instance world")
	flag.StringVar(&args.warp, "warp", "", "entry position x,y,z for warped-in characters")
	flag.Parse()
}

// Start runs the world server, it is called by the worldserver main
func Start() {
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize()
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	instanceID := common.InstanceID(args.instanceID)
	var cfg *config.WorldConfig
	var mapName string
	if !instanceID.IsNil() {
		if args.mapID == "" {
			wlog.Panicf("instance world needs -mapid")
		}
		cfg = config.GetInstanceCommon()
		mapName = args.mapID
	} else {
		if args.worldID <= 0 {
			wlog.Panicf("world needs -worldid or -instanceid")
		}
		cfg = config.GetWorld(uint16(args.worldID))
		if cfg == nil {
			wlog.Panicf("world%d is not found in config file", args.worldID)
		}
		mapName = cfg.MapName
	}

	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	binutil.SetupWLog("world", logLevel, cfg.LogFile, cfg.LogStderr)
	wlog.Infof("Read world config: \n%s", config.DumpPretty(cfg))

	if instanceID.IsNil() {
		// instance worlds share the common config, a fixed pprof port would collide
		binutil.SetupHTTPServer(cfg.HTTPIp, cfg.HTTPPort)
	}

	if cfg.GoMaxProcs > 0 {
		wlog.Infof("SET GOMAXPROCS = %d", cfg.GoMaxProcs)
		runtime.GOMAXPROCS(cfg.GoMaxProcs)
	}

	gamedb.Initialize()

	service := newWorldService(cfg, mapName, instanceID, parseEntryPoint(args.warp, mapName))
	setupSignals(service)
	service.run()
}

// parseEntryPoint parses the -warp "x,y,z" flag passed by central when it
// provisions an instance world
func parseEntryPoint(warp string, mapName string) proto.WarpTarget {
	target := proto.WarpTarget{MapName: mapName}
	if warp == "" {
		return target
	}

	parts := strings.Split(warp, ",")
	if len(parts) != 3 {
		wlog.Errorf("invalid -warp flag: %s", warp)
		return target
	}
	target.X, _ = strconv.ParseFloat(parts[0], 64)
	target.Y, _ = strconv.ParseFloat(parts[1], 64)
	target.Z, _ = strconv.ParseFloat(parts[2], 64)
	return target
}

func setupSignals(service *WorldService) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			sig := <-sigChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				wlog.Infof("world: terminating on signal %s, saving all characters", sig)
				post.Post(service.beginTerminate)
			} else {
				wlog.Infof("unexpected signal: %s", sig)
			}
		}
	}()
}
