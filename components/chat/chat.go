package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/irikarra/worldlink/engine/binutil"
	"github.com/irikarra/worldlink/engine/config"
	"github.com/irikarra/worldlink/engine/wlog"
)

var args struct {
	configFile      string
	logLevel        string
	runInDaemonMode bool
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, overriding config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

func main() {
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize()
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	chatConfig := config.GetChat()
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = chatConfig.LogLevel
	}
	binutil.SetupWLog("chat", logLevel, chatConfig.LogFile, chatConfig.LogStderr)
	wlog.Infof("Read chat config: \n%s", config.DumpPretty(chatConfig))

	binutil.SetupHTTPServer(chatConfig.HTTPIp, chatConfig.HTTPPort)
	setupSignals()

	service := newChatService(chatConfig)
	service.run()
}

func setupSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			sig := <-sigChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				wlog.Infof("chat: terminating on signal %s", sig)
				os.Exit(0)
			} else {
				wlog.Infof("unexpected signal: %s", sig)
			}
		}
	}()
}
