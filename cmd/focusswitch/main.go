package main

import "github.com/bryanchriswhite/FocusSwitch/cmd/focusswitch/commands"

func main() {
	commands.Execute()
}
