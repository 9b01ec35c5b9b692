package main

import "github.com/akashicode/docforge/cmd"

func main() {
	cmd.Execute()
}
