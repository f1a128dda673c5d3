package main

import "github.com/eyebrain/Dream/cmd"

func main() {
	cmd.Execute()
}
