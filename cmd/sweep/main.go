package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"insurance-mcp/cmd/sweep/engine"
)

func main() {
	probability := flag.Float64("p", 0.05, "Accident probability per policyholder")
	from := flag.Int("from", 10, "Smallest population size")
	to := flag.Int("to", 100000, "Largest population size")
	factor := flag.Float64("factor", 2, "Multiplicative step between population sizes")
	seed := flag.Int64("seed", 42, "Seed shared by every run")
	out := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	cfg := engine.SweepConfig{
		AccidentProbability: *probability,
		From:                *from,
		To:                  *to,
		Factor:              *factor,
		Seed:                *seed,
	}

	fmt.Fprintf(os.Stderr, "Sweeping p=%v over n in [%d, %d] (factor %v, seed %d)...\n", cfg.AccidentProbability, cfg.From, cfg.To, cfg.Factor, cfg.Seed)

	points, err := engine.Run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := engine.Save(w, points); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write sweep: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "Done.")
}
