package main

import "github.com/Cipherweave/VortexWatch/cmd"

func main() {
	cmd.Execute()
}
