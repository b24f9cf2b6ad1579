package main

import (
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/process"

	"github.com/irikarra/worldlink/engine/config"
)

// ServerStatus represents the running processes of a worldlink server
type ServerStatus struct {
	NumCentralRunning int
	NumChatRunning    int
	NumWorldsRunning  int

	CentralProcs []*process.Process
	ChatProcs    []*process.Process
	WorldProcs   []*process.Process
}

// IsRunning returns if any server process is running
func (ss *ServerStatus) IsRunning() bool {
	return ss.NumCentralRunning > 0 || ss.NumChatRunning > 0 || ss.NumWorldsRunning > 0
}

func detectServerStatus() *ServerStatus {
	ss := &ServerStatus{}
	procs, err := process.Processes()
	checkErrorOrQuit(err, "list processes failed")

	for _, proc := range procs {
		path, err := proc.Exe()
		if err != nil {
			continue
		}

		relpath, err := filepath.Rel(env.WorldlinkRoot, path)
		if err != nil || strings.HasPrefix(relpath, "..") {
			continue
		}

		_, file := filepath.Split(path)
		if file == centralFileName() {
			ss.NumCentralRunning++
			ss.CentralProcs = append(ss.CentralProcs, proc)
		} else if file == chatFileName() {
			ss.NumChatRunning++
			ss.ChatProcs = append(ss.ChatProcs, proc)
		} else if file == worldServerFileName() {
			ss.NumWorldsRunning++
			ss.WorldProcs = append(ss.WorldProcs, proc)
		}
	}

	return ss
}

func status() {
	ss := detectServerStatus()
	showServerStatus(ss)
}

func showServerStatus(ss *ServerStatus) {
	showMsg("%d central running, %d chat running, %d/%d worlds running",
		ss.NumCentralRunning,
		ss.NumChatRunning,
		ss.NumWorldsRunning, len(config.GetWorldIDs()),
	)

	var listProcs []*process.Process
	listProcs = append(listProcs, ss.CentralProcs...)
	listProcs = append(listProcs, ss.ChatProcs...)
	listProcs = append(listProcs, ss.WorldProcs...)
	for _, proc := range listProcs {
		name, _ := proc.Name()
		cmdlineSlice, err := proc.CmdlineSlice()
		var cmdline string
		if err == nil {
			cmdline = strings.Join(cmdlineSlice, " ")
		} else {
			cmdline = "get cmdline failed"
		}

		showMsg("\t%-10d%-16s%s", proc.Pid, name, cmdline)
	}
}
