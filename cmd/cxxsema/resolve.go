package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxsema/internal/diagfmt"
	"cxxsema/internal/driver"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [flags] <file>",
		Short: "Print the binding of every name in a translation unit",
		Long: `Resolve analyses a file, freezes the result and prints what each name
binds to. Problem bindings are printed with their problem kind.`,
		Args: cobra.ExactArgs(1),
		RunE: runResolve,
	}
	cmd.Flags().Bool("exprs", false, "also print expression types and value categories")
	cmd.Flags().Bool("implicit", false, "include implicit names of operator and constructor calls")
	cmd.Flags().Bool("instantiations", false, "print the template instantiation map")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	addDialectFlag(cmd)
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	exprs, err := flags.GetBool("exprs")
	if err != nil {
		return fmt.Errorf("failed to get exprs flag: %w", err)
	}
	implicit, err := flags.GetBool("implicit")
	if err != nil {
		return fmt.Errorf("failed to get implicit flag: %w", err)
	}
	instantiations, err := flags.GetBool("instantiations")
	if err != nil {
		return fmt.Errorf("failed to get instantiations flag: %w", err)
	}
	fullPath, err := flags.GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	s.opts.Until = driver.StageFreeze
	res, err := driver.Diagnose(cmd.Context(), args[0], s.opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if err := s.reportToStderr(cmd, res); err != nil {
		return err
	}

	mode := diagfmt.PathModeAuto
	if fullPath {
		mode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	opts := diagfmt.BindingOpts{PathMode: mode, Exprs: exprs, Implicit: implicit}
	if err := diagfmt.FormatBindings(out, res.Unit, res.FileSet, opts); err != nil {
		return err
	}
	if instantiations {
		if err := diagfmt.FormatInstantiations(out, res.Unit, res.FileSet, mode); err != nil {
			return err
		}
	}
	return nil
}
