package main

import "github.com/skyward-sim/skyward/cmd"

func main() {
	cmd.Execute()
}
