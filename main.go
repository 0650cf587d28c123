package main

import (
	"cycleplot/cmd"
)

func main() {
	cmd.Execute()
}
