package main

import "github.com/voicebridge/watchlink/internal/watchsim/cmd"

func main() {
	cmd.Execute()
}
