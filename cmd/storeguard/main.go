package main

import (
	ver "github.com/storeguard/storeguard/cmd"
	"github.com/storeguard/storeguard/cmd/storeguard/cmd"
)

var (
	version    = "dev"
	commit     = "main"
	versionStr = version + " (" + commit + ")"
)

func main() {
	ver.SetVersion(versionStr)
	cmd.Execute()
}
