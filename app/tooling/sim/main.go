package main

import "github.com/ardanlabs/blocksim/app/tooling/sim/cmd"

func main() {
	cmd.Execute()
}
