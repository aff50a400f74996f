package main

import "rcos/internal/commands"

func main() {
	commands.Execute()
}
