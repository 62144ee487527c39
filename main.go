package main

import "github.com/jarondonp/waypoint/cmd"

func main() {
	cmd.Execute()
}
