package main

import "github.com/FluidXR/adbwifi/cmd"

func main() {
	cmd.Execute()
}
