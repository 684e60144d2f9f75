package main

import (
	"github.com/cloudsim-rl/dcsim/cmd"
)

func main() {
	cmd.Execute()
}
