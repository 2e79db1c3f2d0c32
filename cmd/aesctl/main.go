package main

import (
	"fmt"
	"os"

	"github.com/lightninglabs/aesctrl/build"
	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[aesctl] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "aesctl"
	app.Version = build.BuildInfo().String()
	app.Usage = "drive and inspect the AES cipher controller simulation"
	app.Commands = []cli.Command{
		runCommand,
		dumpCommand,
		statesCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
