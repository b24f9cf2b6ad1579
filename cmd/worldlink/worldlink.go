package main

import (
	"flag"
	"os"
	"strings"

	"github.com/irikarra/worldlink/engine/config"
)

var args struct {
	configFile string
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.Parse()
}

func main() {
	parseArgs()
	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	cmds := flag.Args()
	showMsg("arguments: %s", strings.Join(cmds, " "))

	detectWorldlinkPath()

	if len(cmds) == 0 {
		showMsg("no command to execute")
		flag.Usage()
		os.Exit(1)
	}

	cmd := cmds[0]
	if cmd == "build" {
		build()
	} else if cmd == "start" {
		start()
	} else if cmd == "stop" {
		stop()
	} else if cmd == "status" {
		status()
	} else {
		showMsgAndQuit("unknown command: %s", cmd)
	}
}
