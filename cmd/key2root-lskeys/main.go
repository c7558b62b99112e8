package main

import (
	"os"

	"github.com/hnrobert/key2root/internal/cli"
)

func main() {
	os.Exit(cli.Main("key2root-lskeys", cli.NewListKeysCommand, 1))
}
