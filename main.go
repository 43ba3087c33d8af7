package main

import "arena-go/cmd"

func main() {
	cmd.Execute()
}
