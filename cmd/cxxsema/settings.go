package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cxxsema/internal/diagfmt"
	"cxxsema/internal/dialect"
	"cxxsema/internal/driver"
	"cxxsema/internal/project"
)

// settings are the resolved config file values plus flag overrides.
type settings struct {
	config  project.Config
	opts    driver.Options
	color   bool
	quiet   bool
	timings bool
}

// loadSettings discovers cxxsema.toml from target (or reads --config) and
// applies the persistent flags on top of it.
func loadSettings(cmd *cobra.Command, target string) (*settings, error) {
	pf := cmd.Root().PersistentFlags()
	configPath, err := pf.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg project.Config
	if configPath != "" {
		cfg, err = project.LoadConfig(configPath)
	} else {
		cfg, err = project.Discover(target)
		if errors.Is(err, project.ErrNoConfig) {
			err = nil
		}
	}
	if err != nil {
		return nil, err
	}

	s := &settings{config: cfg, opts: driver.OptionsFromConfig(cfg)}

	if s.quiet, err = pf.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = pf.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	s.opts.EnableTimings = s.timings

	maxDiagnostics, err := pf.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics > 0 {
		s.opts.MaxDiagnostics = maxDiagnostics
	}

	colorFlag, err := pf.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		s.color = true
	case "off":
		s.color = false
	case "auto", "":
		s.color = isTerminal(cmd.ErrOrStderr()) && os.Getenv("NO_COLOR") == ""
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}

	if f := cmd.Flags().Lookup("dialect"); f != nil && f.Changed {
		k, err := dialect.Parse(f.Value.String())
		if err != nil {
			return nil, err
		}
		s.opts.Dialect = k
	}
	return s, nil
}

func (s *settings) prettyOpts() diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:     s.color,
		Context:   1,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	}
}

func addDialectFlag(cmd *cobra.Command) {
	cmd.Flags().String("dialect", "auto", "source dialect (auto|c|c++)")
}
