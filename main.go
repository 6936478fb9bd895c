package main

import "squash/cmd"

func main() {
	cmd.Execute()
}
