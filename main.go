package main

import (
	"github.com/dobprotocol/doblink/cmd"

	_ "github.com/dobprotocol/doblink/cmd/cli"
	_ "github.com/dobprotocol/doblink/cmd/server"
)

func main() {
	cmd.Execute()
}
