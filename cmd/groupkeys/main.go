package main

import (
	"groupkeys/cmd/groupkeys/commands"
)

func main() {
	commands.Execute()
}
