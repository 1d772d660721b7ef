package main

import "github.com/kozaktomas/gaitid/cmd"

func main() {
	cmd.Execute()
}
