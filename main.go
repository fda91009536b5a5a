package main

import "github.com/docuvault/access-management/cmd"

func main() {
	cmd.Execute()
}
