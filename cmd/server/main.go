package main

import "github.com/dmitrijs2005/gatorauth/cmd/server/cmd"

func main() {
	cmd.Execute()
}
