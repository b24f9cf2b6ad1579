package main

import (
	"os"
	"path/filepath"
)

const _Central = "central"
const _Chat = "chat"
const _WorldServer = "worldserver"

type _Env struct {
	// WorldlinkRoot is the deployment directory holding the executables and
	// the config file
	WorldlinkRoot string
}

var env _Env

func isfile(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		panic(err)
	}
	return !fi.IsDir()
}

func isdir(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		panic(err)
	}
	return fi.IsDir()
}

func isexists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		panic(err)
	}
	return true
}

// detectWorldlinkPath locates the deployment directory, which is the current
// directory
func detectWorldlinkPath() {
	cwd, err := os.Getwd()
	checkErrorOrQuit(err, "get current directory failed")
	env.WorldlinkRoot = cwd
	showMsg("worldlink directory: %s", env.WorldlinkRoot)
}

func centralFileName() string {
	return _Central + BinaryExtension
}

func chatFileName() string {
	return _Chat + BinaryExtension
}

func worldServerFileName() string {
	return _WorldServer + BinaryExtension
}

func executablePath(filename string) string {
	return filepath.Join(env.WorldlinkRoot, filename)
}
