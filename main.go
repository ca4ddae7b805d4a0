package main

import "github.com/timvw/zj-link/cmd"

func main() {
	cmd.Execute()
}
