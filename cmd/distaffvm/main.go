// Command distaffvm assembles, executes, proves, and verifies a small
// zero-knowledge VM program from a single assembly file: one mnemonic
// per line (see pkg/zkvm's ParseProgram), public inputs supplied as
// command-line flags.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/starkvm/distaff/pkg/zkvm"
)

func main() {
	programPath := flag.String("program", "", "path to an assembly program (one instruction per line)")
	publicCSV := flag.String("public", "", "comma-separated public inputs, e.g. 3,4")
	numOutputs := flag.Int("outputs", 1, "number of values the program is expected to leave on the stack")
	queries := flag.Int("queries", 48, "number of FRI query positions")
	extension := flag.Int("extension", 32, "low-degree-extension blowup factor (power of two >= 16)")
	flag.Parse()

	if *programPath == "" {
		fmt.Fprintln(os.Stderr, "distaffvm: -program is required")
		flag.Usage()
		os.Exit(2)
	}

	lines, err := readLines(*programPath)
	if err != nil {
		log.Fatalf("distaffvm: reading program: %v", err)
	}
	prog, err := zkvm.ParseProgram(lines)
	if err != nil {
		log.Fatalf("distaffvm: parsing program: %v", err)
	}

	public, err := parseInts(*publicCSV)
	if err != nil {
		log.Fatalf("distaffvm: parsing -public: %v", err)
	}
	inputs := zkvm.PublicInputs(public...)

	fmt.Fprintf(os.Stderr, "distaffvm: executing program (%d public inputs)...\n", len(public))
	result, err := zkvm.Execute(prog, inputs, *numOutputs)
	if err != nil {
		log.Fatalf("distaffvm: execution failed: %v", err)
	}
	fmt.Fprintf(os.Stderr, "distaffvm: execution produced %d output(s)\n", len(result.Outputs))

	opts := zkvm.DefaultOptions().WithExtensionFactor(*extension).WithNumQueries(*queries)
	fmt.Fprintf(os.Stderr, "distaffvm: generating proof (extension=%d, queries=%d, ~%d-bit conjectured security)...\n",
		*extension, *queries, opts.SecurityLevel(true))

	proof, err := zkvm.Prove(prog, result, opts)
	if err != nil {
		log.Fatalf("distaffvm: proof generation failed: %v", err)
	}
	fmt.Fprintln(os.Stderr, "distaffvm: proof generated")

	fmt.Fprintln(os.Stderr, "distaffvm: verifying proof...")
	if err := zkvm.Verify(proof, prog.Hash(), inputs.Public, result.Outputs); err != nil {
		log.Fatalf("distaffvm: VERIFICATION FAILED: %v", err)
	}

	fmt.Println("proof verified")
	fmt.Printf("program hash: %v\n", prog.Hash())
	fmt.Printf("outputs: %v\n", result.Outputs)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func parseInts(csv string) ([]int64, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil, nil
	}
	fields := strings.Split(csv, ",")
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}
