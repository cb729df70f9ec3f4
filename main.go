package main

import "github.com/mindglass/debate-engine/cmd"

func main() {
	cmd.Execute()
}
