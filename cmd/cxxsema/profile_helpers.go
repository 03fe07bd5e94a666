package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxsema/internal/prof"
)

// setupProfiling enables the profilers named by the persistent flags. The
// returned cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	cpuProfile, err := pf.GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := pf.GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := pf.GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if cpuProfile == "" && memProfile == "" && tracePath == "" {
		return func() {}, nil
	}

	stop, err := prof.Session(cpuProfile, memProfile, tracePath)
	if err != nil {
		return nil, err
	}
	stderr := cmd.ErrOrStderr()
	done := false
	return func() {
		if done {
			return
		}
		done = true
		if err := stop(); err != nil {
			fmt.Fprintf(stderr, "profiling: %v\n", err)
		}
	}, nil
}
