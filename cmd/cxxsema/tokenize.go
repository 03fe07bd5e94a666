package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cxxsema/internal/diagfmt"
	"cxxsema/internal/driver"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] <file>",
		Short: "Tokenize a C or C++ source file",
		Long:  `Tokenize lexes a file, expands its macros and prints the resulting tokens`,
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenize,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	addDialectFlag(cmd)
	return cmd
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	res, err := driver.Tokenize(cmd.Context(), args[0], s.opts)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	if err := s.reportToStderr(cmd, res); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(out, res.Lexed, res.FileSet)
	case "json":
		return diagfmt.FormatTokensJSON(out, res.Lexed)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
