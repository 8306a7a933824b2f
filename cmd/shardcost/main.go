package main

import (
	"os"

	"github.com/xtding233/shardcost/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
