package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxsema/internal/diagfmt"
	"cxxsema/internal/driver"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [flags] <file>",
		Short: "Parse a C or C++ source file and print its syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
	addDialectFlag(cmd)
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	res, err := driver.Parse(cmd.Context(), args[0], s.opts)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	if err := s.reportToStderr(cmd, res); err != nil {
		return err
	}
	if err := diagfmt.FormatASTTree(cmd.OutOrStdout(), res.Builder, res.FileSet); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errHasErrors
	}
	return nil
}
