package main

import (
	"os"

	"github.com/hnrobert/key2root/internal/cli"
	"github.com/hnrobert/key2root/internal/forward"
	"github.com/hnrobert/key2root/internal/privexec"
)

func main() {
	// Must run first: the forwarding helper re-executes this binary.
	forward.RunHelperIfRequested()
	os.Exit(cli.Main("key2root", cli.NewKey2RootCommand, privexec.ExitInternal))
}
