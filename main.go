package main

import "github.com/emrgen/docseed/cmd"

func main() {
	cmd.Execute()
}
