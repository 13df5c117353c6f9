package main

import "go.linemq.dev/core/cmd/mqctl/mqctlcmd"

func main() {
	mqctlcmd.Execute()
}
