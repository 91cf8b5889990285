package main

import (
	"os"

	"github.com/TritonDataCenter/manta-chum/cli"
)

func main() {
	cli.Main(os.Args)
}
