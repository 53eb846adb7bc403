// Command fixture-check loads a seed fixture into an ephemeral registry and
// reports what committed, surfacing validation, reference, and integrity
// failures before a fixture ever reaches a durable backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chambercore/internal/core"
	"chambercore/internal/fixture"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fixture-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		seedName    string
		seedPath    string
		lenient     bool
		indexOrigin uint64
	)
	fs.StringVar(&seedName, "seed", "current", "embedded seed to load: current|legacy")
	fs.StringVar(&seedPath, "file", "", "path to a seed JSON file (overrides -seed)")
	fs.BoolVar(&lenient, "lenient", false, "accept calendar-impossible timestamps by normalizing them")
	fs.Uint64Var(&indexOrigin, "index-origin", 0, "first sample index assigned within a run")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	result, err := run(seedName, seedPath, lenient, indexOrigin)
	if err != nil {
		fmt.Fprintf(stderr, "Fixture check failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Fixture check passed: %d specimens, %d settings, %d runs, %d samples, %d readings.\n",
		result.Specimens, result.Settings, result.Runs, result.Samples, result.Readings)
	return 0
}

// validatePath rejects absolute and path-traversing seed file references.
func validatePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute paths not allowed: %s", p)
	}
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("path traversal not allowed: %s", p)
	}
	return clean, nil
}

func run(seedName, seedPath string, lenient bool, indexOrigin uint64) (core.BatchResult, error) {
	var opts []fixture.Option
	if lenient {
		opts = append(opts, fixture.WithLenientTimestamps())
	}

	var (
		seed fixture.Seed
		err  error
	)
	switch {
	case seedPath != "":
		safePath, vErr := validatePath(seedPath)
		if vErr != nil {
			return core.BatchResult{}, vErr
		}
		data, rErr := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
		if rErr != nil {
			return core.BatchResult{}, fmt.Errorf("read seed: %w", rErr)
		}
		seed, err = fixture.Decode(data, opts...)
	case seedName == "current":
		seed, err = fixture.Current(opts...)
	case seedName == "legacy":
		seed, err = fixture.Legacy(opts...)
	default:
		return core.BatchResult{}, fmt.Errorf("unknown seed %q", seedName)
	}
	if err != nil {
		return core.BatchResult{}, err
	}

	store := core.NewMemoryStore(core.NewDefaultRulesEngine(), coreIndexOrigin(indexOrigin)...)
	svc := core.NewService(store)
	return fixture.Load(context.Background(), svc, seed)
}

func coreIndexOrigin(origin uint64) []core.StoreOption {
	if origin == 0 {
		return nil
	}
	return []core.StoreOption{core.WithSampleIndexOrigin(origin)}
}
