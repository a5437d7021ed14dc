package main

import "keymaster/cmd"

func main() {
	cmd.Execute()
}
