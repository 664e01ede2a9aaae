package main

import "planner/cmd"

func main() {
	cmd.Execute()
}
