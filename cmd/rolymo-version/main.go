// Command rolymo-version prints build and module version information.
package main

import (
	"fmt"
	"runtime/debug"
)

func main() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Println("rolymo-version: no build info available")
		return
	}

	fmt.Println("rolymo", info.Main.Version)
	fmt.Println("go", info.GoVersion)

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision", "vcs.time", "vcs.modified":
			fmt.Printf("%s=%s\n", setting.Key, setting.Value)
		}
	}
}
