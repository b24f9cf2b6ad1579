package main

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

func stop() {
	ss := detectServerStatus()
	showServerStatus(ss)
	if !ss.IsRunning() {
		showMsgAndQuit("no server is running currently")
	}

	// worlds go first so they save their residents while the rest is up
	stopWorlds(ss)
	stopChat(ss)
	stopCentral(ss)
}

func stopWorlds(ss *ServerStatus) {
	if ss.NumWorldsRunning == 0 {
		return
	}
	showMsg("stop %d worlds ...", ss.NumWorldsRunning)
	for _, proc := range ss.WorldProcs {
		stopProc(proc)
	}
}

func stopChat(ss *ServerStatus) {
	if ss.NumChatRunning == 0 {
		return
	}
	showMsg("stop chat ...")
	for _, proc := range ss.ChatProcs {
		stopProc(proc)
	}
}

func stopCentral(ss *ServerStatus) {
	if ss.NumCentralRunning == 0 {
		return
	}
	showMsg("stop central ...")
	for _, proc := range ss.CentralProcs {
		stopProc(proc)
	}
}

func stopProc(proc *process.Process) {
	name, _ := proc.Name()
	showMsg("stop process %s pid=%d", name, proc.Pid)
	osproc, err := os.FindProcess(int(proc.Pid))
	checkErrorOrQuit(err, "stop process failed")

	osproc.Signal(StopSignal)
	for {
		time.Sleep(time.Millisecond * 100)
		if running, err := process.PidExists(proc.Pid); err != nil || !running {
			break
		}
	}
}
