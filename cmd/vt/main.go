package main

import (
	"os"

	"github.com/dairui1/vibetunnel/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
