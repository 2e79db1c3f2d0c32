package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lightninglabs/aesctrl/aescfg"
	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/pipeline"
	"github.com/lightninglabs/aesctrl/prng"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightninglabs/aesctrl/tracefile"
	"github.com/urfave/cli"
)

// defaultMaxTicks bounds a single run.
const defaultMaxTicks = 10_000

var runCommand = cli.Command{
	Name:     "run",
	Category: "Simulation",
	Usage:    "Run a single request through the controller.",
	Description: `
	Presents one request to an idle controller and steps it until the
	result has been handed off downstream. Every tick is printed as a
	table row. A fault may be injected on a chosen tick to watch the
	controller enter its terminal error state.
	`,
	ArgsUsage: "",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "op",
			Value: "encrypt",
			Usage: "the cipher operation, encrypt or decrypt",
		},
		cli.UintFlag{
			Name:  "keylen",
			Value: 128,
			Usage: "the key length in bits, 128, 192 or 256",
		},
		cli.BoolFlag{
			Name:  "crypt",
			Usage: "request an encryption or decryption",
		},
		cli.BoolFlag{
			Name:  "derive",
			Usage: "request the derivation of the decryption key",
		},
		cli.BoolFlag{
			Name:  "reseed",
			Usage: "request a reseed of the masking PRNG",
		},
		cli.BoolFlag{
			Name:  "keyclear",
			Usage: "request erasure of the key registers",
		},
		cli.BoolFlag{
			Name:  "dataclear",
			Usage: "request erasure of the data registers",
		},
		cli.BoolFlag{
			Name:  "masking",
			Usage: "enable the masking countermeasure",
		},
		cli.StringFlag{
			Name:  "sbox",
			Value: aescfg.DefaultSBox,
			Usage: "the S-box implementation, one of lut, " +
				"canright, canright-masked, " +
				"canright-masked-noreuse or dom",
		},
		cli.UintFlag{
			Name:  "sblatency",
			Usage: "substitution latency in ticks, 0 selects " +
				"the S-box default",
		},
		cli.UintFlag{
			Name:  "kelatency",
			Value: aescfg.DefaultKeyExpandLatency,
			Usage: "key expansion latency in ticks",
		},
		cli.UintFlag{
			Name:  "reseedlatency",
			Value: aescfg.DefaultReseedLatency,
			Usage: "PRNG reseed latency in ticks",
		},
		cli.UintFlag{
			Name:  "readyafter",
			Usage: "ticks the result is held before the " +
				"consumer takes it",
		},
		cli.Int64Flag{
			Name:  "faulttick",
			Value: -1,
			Usage: "inject a fault on this tick",
		},
		cli.StringFlag{
			Name:  "fault",
			Value: "mux",
			Usage: "the fault to inject, one of mux, sparse, op " +
				"or counter",
		},
		cli.StringFlag{
			Name:      "tracefile",
			Usage:     "also write the ticks to this trace file",
			TakesFile: true,
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "only print the summary",
		},
	},
	Action: runRequest,
}

func runRequest(ctx *cli.Context) error {
	req, err := parseRequest(ctx)
	if err != nil {
		return err
	}

	cipherCfg := &aescfg.Cipher{
		Masking: ctx.Bool("masking"),
		SBox:    ctx.String("sbox"),
	}
	ctrlCfg, err := cipherCfg.Controller()
	if err != nil {
		return err
	}

	pipeCfg := &aescfg.Pipeline{
		SubBytesLatency:  uint32(ctx.Uint("sblatency")),
		KeyExpandLatency: uint32(ctx.Uint("kelatency")),
		ReseedLatency:    uint32(ctx.Uint("reseedlatency")),
	}
	if err := pipeCfg.Validate(); err != nil {
		return err
	}
	sbLatency, keLatency := pipeCfg.LatencyFuncs(
		pipeline.DefaultLatency(ctrlCfg.SBoxImpl),
	)

	faults, err := parseFaults(ctx)
	if err != nil {
		return err
	}

	harnessCfg := sim.Config{
		Controller:       ctrlCfg,
		SubBytesLatency:  sbLatency,
		KeyExpandLatency: keLatency,
		PRNG: prng.Config{
			ReseedLatency: pipeCfg.ReseedLatency,
		},
		Ready:       sim.ReadyAfter(uint32(ctx.Uint("readyafter"))),
		Faults:      faults,
		HistorySize: defaultMaxTicks,
	}

	if path := ctx.String("tracefile"); path != "" {
		traceFile, err := tracefile.Create(
			aescfg.CleanAndExpandPath(path),
		)
		if err != nil {
			return err
		}
		defer func() {
			if err := traceFile.Close(); err != nil {
				fatal(err)
			}
		}()

		harnessCfg.Sink = traceFile
	}

	h, err := sim.New(harnessCfg)
	if err != nil {
		return err
	}

	return runScenario(
		os.Stdout, h, req, defaultMaxTicks, ctx.Bool("quiet"),
	)
}

// runScenario runs req on h and writes the trace followed by the outcome to
// w. The trace is written even if the run fails so a hung request can be
// inspected. A controller alert is an expected outcome and not an error.
func runScenario(w io.Writer, h *sim.Harness, req cipherctrl.Request,
	maxTicks uint64, quiet bool) error {

	c, err := h.Run(req, maxTicks)

	if !quiet {
		fmt.Fprintln(w, renderRecords(h.History()))
	}

	switch {
	case errors.Is(err, sim.ErrAlert):
		fmt.Fprintf(w, "Controller alert: %v\n", err)
		return nil

	case err != nil:
		return err
	}

	fmt.Fprintln(w, renderCompletion(c))

	return nil
}

// parseRequest builds the request from the command line flags.
func parseRequest(ctx *cli.Context) (cipherctrl.Request, error) {
	var op cipherctrl.Operation
	switch ctx.String("op") {
	case "encrypt":
		op = cipherctrl.OpEncrypt
	case "decrypt":
		op = cipherctrl.OpDecrypt
	default:
		return cipherctrl.Request{}, fmt.Errorf("unknown operation "+
			"%q", ctx.String("op"))
	}

	keyLen := cipherctrl.KeyLength(ctx.Uint("keylen"))
	if !keyLen.Valid() {
		return cipherctrl.Request{}, fmt.Errorf("unsupported key "+
			"length %d", ctx.Uint("keylen"))
	}

	req := cipherctrl.Request{
		Op:        op,
		KeyLen:    keyLen,
		Crypt:     ctx.Bool("crypt"),
		DeriveKey: ctx.Bool("derive"),
		Reseed:    ctx.Bool("reseed"),
		KeyClear:  ctx.Bool("keyclear"),
		DataClear: ctx.Bool("dataclear"),
	}

	// Without any request flag a plain cipher operation is run.
	if req.Classify() == cipherctrl.KindNone {
		req.Crypt = true
	}

	return req, nil
}

// parseFaults builds the fault plan from the command line flags.
func parseFaults(ctx *cli.Context) (sim.FaultPlan, error) {
	tick := ctx.Int64("faulttick")
	if tick < 0 {
		return nil, nil
	}

	fault, err := parseFault(ctx.String("fault"))
	if err != nil {
		return nil, err
	}

	return sim.FaultPlan{uint64(tick): fault}, nil
}

// parseFault maps a fault name to the disturbance it injects.
func parseFault(name string) (sim.Fault, error) {
	switch name {
	case "mux":
		return sim.Fault{
			Inputs: cipherctrl.Faults{MuxSelErr: true},
		}, nil

	case "sparse":
		return sim.Fault{
			Inputs: cipherctrl.Faults{SparseEncErr: true},
		}, nil

	case "op":
		return sim.Fault{
			Inputs: cipherctrl.Faults{OpErr: true},
		}, nil

	case "counter":
		return sim.Fault{
			Glitch: func(r *cipherctrl.Registers) {
				r.RoundsRemaining++
			},
		}, nil

	default:
		return sim.Fault{}, fmt.Errorf("unknown fault %q", name)
	}
}
