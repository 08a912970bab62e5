package main

import "github.com/dmccall/sports-arb/cmd"

func main() {
	cmd.Execute()
}
