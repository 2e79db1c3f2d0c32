package main

import (
	"fmt"

	"github.com/lightninglabs/aesctrl/aescfg"
	"github.com/lightninglabs/aesctrl/aesutils"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightninglabs/aesctrl/tracefile"
	"github.com/urfave/cli"
)

var dumpCommand = cli.Command{
	Name:      "dump",
	Category:  "Traces",
	Usage:     "Print the ticks recorded in a trace file.",
	ArgsUsage: "tracefile",
	Flags: []cli.Flag{
		cli.Uint64Flag{
			Name:  "from",
			Usage: "first tick to print",
		},
		cli.Uint64Flag{
			Name:  "to",
			Usage: "last tick to print, 0 prints to the end",
		},
		cli.StringFlag{
			Name:  "state",
			Usage: "only print ticks evaluated in this state",
		},
		cli.BoolFlag{
			Name:  "transitions",
			Usage: "only print ticks that change the state",
		},
	},
	Action: dumpTrace,
}

func dumpTrace(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "dump")
	}

	records, err := tracefile.ReadFile(
		aescfg.CleanAndExpandPath(ctx.Args().First()),
	)
	if err != nil {
		return err
	}

	filter := recordFilter{
		from:        ctx.Uint64("from"),
		to:          ctx.Uint64("to"),
		transitions: ctx.Bool("transitions"),
	}
	if name := ctx.String("state"); name != "" {
		state, err := parseState(name)
		if err != nil {
			return err
		}
		filter.state = &state
	}

	fmt.Println(renderRecords(filter.apply(records)))

	return nil
}

// recordFilter selects the records printed by dump.
type recordFilter struct {
	from        uint64
	to          uint64
	state       *cipherctrl.State
	transitions bool
}

// apply returns the records passing the filter.
func (f recordFilter) apply(records []sim.TickRecord) []sim.TickRecord {
	return aesutils.Filter(records, f.match)
}

// match reports whether rec passes every configured filter.
func (f recordFilter) match(rec sim.TickRecord) bool {
	switch {
	case rec.Tick < f.from, f.to != 0 && rec.Tick > f.to:
		return false

	case f.state != nil && rec.State != *f.state:
		return false

	case f.transitions && rec.State == rec.NextState:
		return false
	}

	return true
}

// parseState maps a state name to the state.
func parseState(name string) (cipherctrl.State, error) {
	for _, s := range cipherctrl.AllStates() {
		if s.String() == name {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown state %q", name)
}

var statesCommand = cli.Command{
	Name:     "states",
	Category: "Simulation",
	Usage:    "List the controller states and their encodings.",
	Action: func(ctx *cli.Context) error {
		fmt.Println(renderStates())
		return nil
	},
}
