package main

import "photocull/cmd"

func main() {
	cmd.Execute()
}
