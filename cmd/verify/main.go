package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wippyai/sp1-wasm-verifier/config"
	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/fixture"
	"github.com/wippyai/sp1-wasm-verifier/verifier"
)

// Exit codes
const (
	exitValid   = 0
	exitInvalid = 1
	exitFault   = 2
)

type options struct {
	configPath  string
	wasmFile    string
	scheme      string
	proof       string
	inputs      string
	vkey        string
	fixturePath string
	fetch       string
	logLevel    string
	inspect     bool
	interactive bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&o.wasmFile, "wasm", "", "Path to verifier wasm module (overrides config)")
	flag.StringVar(&o.scheme, "scheme", "groth16", "Proof system: groth16 or plonk")
	flag.StringVar(&o.proof, "proof", "", "Proof bytes as 0x-hex or @file")
	flag.StringVar(&o.inputs, "inputs", "", "Public inputs as 0x-hex or @file")
	flag.StringVar(&o.vkey, "vkey", "", "Verifying key hash (0x-hex)")
	flag.StringVar(&o.fixturePath, "fixture", "", "Verify a fixture file")
	flag.StringVar(&o.fetch, "fetch", "", "Fetch a fixture by name from fixtures.base_url")
	flag.StringVar(&o.logLevel, "log-level", "", "Log level (overrides config)")
	flag.BoolVar(&o.inspect, "inspect", false, "Print request details without verifying")
	flag.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	flag.Parse()

	os.Exit(run(context.Background(), o, os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: verify [-wasm file.wasm] -scheme groth16|plonk -proof 0x.. -inputs 0x.. -vkey 0x..")
	fmt.Fprintln(w, "       verify -fixture proof.yaml [-inspect]")
	fmt.Fprintln(w, "       verify -fetch name [-inspect]")
	fmt.Fprintln(w, "       verify -i  (interactive mode)")
}

func run(ctx context.Context, o options, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFault
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFault
	}
	defer func() { _ = logger.Sync() }()

	if o.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(stderr, "Error: interactive mode requires a terminal")
			return exitFault
		}
		if err := runInteractive(cfg, logger); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFault
		}
		return exitValid
	}

	req, name, err := buildRequest(ctx, cfg, o)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		usage(stderr)
		return exitFault
	}

	if o.inspect {
		in, err := fixture.Inspect(req)
		printInspection(stdout, name, in)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFault
		}
		return exitValid
	}

	v, err := verifier.Open(ctx, cfg.Module.Path, cfg.VerifierOptions(logger)...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFault
	}
	defer v.Close(ctx)

	ok, err := v.Verify(ctx, req)
	if err != nil {
		reportFault(stderr, err)
		return exitFault
	}
	if !ok {
		fmt.Fprintf(stdout, "%s %s proof: invalid\n", name, req.Scheme)
		return exitInvalid
	}
	fmt.Fprintf(stdout, "%s %s proof: valid\n", name, req.Scheme)
	return exitValid
}

func loadConfig(o options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.wasmFile != "" {
		cfg.Module.Path = o.wasmFile
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, cfg.Validate()
}

// buildRequest picks the request source: a fixture file, a fetched fixture,
// or the individual flags. The returned name labels output.
func buildRequest(ctx context.Context, cfg *config.Config, o options) (verifier.Request, string, error) {
	switch {
	case o.fixturePath != "":
		f, err := fixture.Load(o.fixturePath)
		if err != nil {
			return verifier.Request{}, "", err
		}
		req, err := f.Request()
		return req, f.Name, err

	case o.fetch != "":
		if cfg.Fixtures.BaseURL == "" {
			return verifier.Request{}, "", errors.InvalidInput(errors.PhaseConfig, "fixtures.base_url is not configured")
		}
		f, err := fetchFixture(ctx, cfg, o.fetch)
		if err != nil {
			return verifier.Request{}, "", err
		}
		req, err := f.Request()
		return req, f.Name, err
	}

	if o.vkey == "" {
		return verifier.Request{}, "", errors.InvalidInput(errors.PhaseValidate, "-vkey is required")
	}
	scheme, err := verifier.ParseScheme(o.scheme)
	if err != nil {
		return verifier.Request{}, "", err
	}
	proof, err := readBytes("proof", o.proof)
	if err != nil {
		return verifier.Request{}, "", err
	}
	inputs, err := readBytes("inputs", o.inputs)
	if err != nil {
		return verifier.Request{}, "", err
	}
	return verifier.Request{
		Scheme:           scheme,
		Proof:            proof,
		PublicInputs:     inputs,
		VerifyingKeyHash: o.vkey,
	}, "cli", nil
}

func fetchFixture(ctx context.Context, cfg *config.Config, name string) (*fixture.Fixture, error) {
	client, err := fixture.NewClient(cfg.Fixtures.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Fixtures.Timeout)
	defer cancel()
	return client.Fetch(ctx, name)
}

// readBytes accepts 0x-hex or @path for raw file contents.
func readBytes(field, v string) ([]byte, error) {
	if path, ok := strings.CutPrefix(v, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseValidate, errors.KindNotFound, err, fmt.Sprintf("read %s from %q", field, path))
		}
		return b, nil
	}
	return fixture.DecodeHex(field, v)
}

func printInspection(w io.Writer, name string, in fixture.Inspection) {
	fmt.Fprintf(w, "Fixture:        %s\n", name)
	fmt.Fprintf(w, "Scheme:         %s\n", in.Scheme)
	fmt.Fprintf(w, "Proof:          %d bytes\n", in.ProofSize)
	if in.Selector != "" {
		fmt.Fprintf(w, "Selector:       %s\n", in.Selector)
	}
	fmt.Fprintf(w, "Public inputs:  %d bytes\n", in.PublicInputsSize)
	fmt.Fprintf(w, "Values digest:  %s\n", in.PublicValuesDigest)
	if in.VKeyElement != "" {
		fmt.Fprintf(w, "VKey (Fr):      %s\n", in.VKeyElement)
	}
}

func reportFault(w io.Writer, err error) {
	if gf, ok := errors.AsGuestFault(err); ok {
		fmt.Fprintf(w, "Verifier fault: %s\n", gf.Message)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
