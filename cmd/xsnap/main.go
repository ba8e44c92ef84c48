package main

import "github.com/ashwalker/xsnap/cmd/xsnap/commands"

func main() {
	commands.Execute()
}
