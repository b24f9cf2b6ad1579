package main

import (
	"os"
	"os/exec"
)

func build() {
	buildComponent("central", "./components/central")
	buildComponent("chat", "./components/chat")
	buildComponent("worldserver", "./cmd/worldserver")
}

func buildComponent(name string, pkg string) {
	showMsg("go build %s ...", name)
	cmd := exec.Command("go", "build", "-o", executablePath(name+BinaryExtension), pkg)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout
	cmd.Stdin = os.Stdin
	err := cmd.Run()
	checkErrorOrQuit(err, "build failed")
}
