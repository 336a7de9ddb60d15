package main

import "tunedrop/cmd"

func main() {
	cmd.Execute()
}
