package binutil

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/irikarra/worldlink/engine/wlog"
)

// SetupHTTPServer starts the HTTP server for go tool pprof
func SetupHTTPServer(ip string, port int) {
	if port == 0 {
		// pprof not enabled
		wlog.Infof("pprof server not enabled")
		return
	}

	httpHost := fmt.Sprintf("%s:%d", ip, port)
	wlog.Infof("pprof http://%s/debug/pprof/ ... available commands: ", httpHost)
	wlog.Infof("    go tool pprof http://%s/debug/pprof/heap", httpHost)
	wlog.Infof("    go tool pprof http://%s/debug/pprof/profile", httpHost)

	go func() {
		http.ListenAndServe(httpHost, nil)
	}()
}

// SetupWLog setups the log system for a worldlink process
func SetupWLog(component string, logLevel string, logFile string, logStderr bool) {
	wlog.SetSource(component)
	wlog.Infof("Set log level to %s", logLevel)
	wlog.SetLevel(wlog.StringToLevel(logLevel))

	outputs := make([]string, 0, 2)
	if logFile != "" {
		outputs = append(outputs, logFile)
	}
	if logStderr {
		outputs = append(outputs, "stderr")
	}
	if len(outputs) > 0 {
		wlog.SetOutput(outputs)
	}
}
