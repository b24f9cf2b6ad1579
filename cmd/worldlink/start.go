package main

import (
	"os/exec"
	"strconv"

	"github.com/irikarra/worldlink/engine/config"
)

func start() {
	ss := detectServerStatus()
	if ss.IsRunning() {
		showServerStatus(ss)
		showMsgAndQuit("server is already running")
	}

	startCentral()
	startChat()
	startWorlds()
}

func startCentral() {
	showMsg("start central ...")
	cmd := exec.Command(executablePath(centralFileName()), "-configfile", config.GetConfigFilePath(), "-d")
	err := cmd.Start()
	checkErrorOrQuit(err, "start central failed")
	cmd.Wait() // the daemon parent exits immediately
}

func startChat() {
	showMsg("start chat ...")
	cmd := exec.Command(executablePath(chatFileName()), "-configfile", config.GetConfigFilePath(), "-d")
	err := cmd.Start()
	checkErrorOrQuit(err, "start chat failed")
	cmd.Wait()
}

func startWorlds() {
	worldIDs := config.GetWorldIDs()
	showMsg("start %d worlds ...", len(worldIDs))
	for _, worldID := range worldIDs {
		cmd := exec.Command(executablePath(worldServerFileName()),
			"-worldid", strconv.Itoa(int(worldID)),
			"-configfile", config.GetConfigFilePath(),
			"-d")
		err := cmd.Start()
		checkErrorOrQuit(err, "start world failed")
		cmd.Wait()
	}
}
