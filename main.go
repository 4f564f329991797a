package main

import "github.com/BlackMission/fedisub/cmd"

// version can be set during build with -ldflags
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
