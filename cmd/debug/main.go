package main

import "github.com/thatsimonsguy/filtration-controller/cmd/debug/cmd"

func main() {
	cmd.Execute()
}
