package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cxxsema/internal/diag"
	"cxxsema/internal/diagfmt"
	"cxxsema/internal/driver"
	"cxxsema/internal/source"
	"cxxsema/internal/trace"
)

func newDiagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag [flags] <file|directory>",
		Short: "Run diagnostics on a source file or every source file of a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnose,
	}
	f := cmd.Flags()
	f.String("format", "pretty", "output format (pretty|short|json)")
	f.String("until", "freeze", "last stage to run (lex|parse|analyze|freeze)")
	f.Bool("no-warnings", false, "ignore warnings in diagnostics")
	f.Bool("warnings-as-errors", false, "treat warnings as errors")
	f.Int("jobs", 0, "max parallel workers for directory processing (0 = config value)")
	f.Bool("with-notes", false, "include diagnostic notes in output")
	f.Bool("suggest", false, "include fix suggestions in output")
	f.Bool("preview", false, "include before/after lines of fix suggestions (json)")
	f.Bool("fullpath", false, "emit absolute file paths in output")
	f.Bool("disk-cache", false, "reuse diagnostics of unchanged files across runs")
	f.String("ui", "auto", "progress UI for directories (auto|on|off)")
	addDialectFlag(cmd)
	return cmd
}

type diagFlags struct {
	format    string
	withNotes bool
	suggest   bool
	preview   bool
	fullPath  bool
	ui        uiMode
}

// runDiagnose parses the flags, diagnoses a file or directory, prints the
// result in the chosen format and reports errHasErrors when any error
// diagnostic was produced.
func runDiagnose(cmd *cobra.Command, args []string) error {
	target := args[0]
	flags := cmd.Flags()
	var df diagFlags
	var err error

	if df.format, err = flags.GetString("format"); err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch df.format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unknown format: %s", df.format)
	}
	until, err := flags.GetString("until")
	if err != nil {
		return fmt.Errorf("failed to get until flag: %w", err)
	}
	noWarnings, err := flags.GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := flags.GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if df.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if df.suggest, err = flags.GetBool("suggest"); err != nil {
		return fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if df.preview, err = flags.GetBool("preview"); err != nil {
		return fmt.Errorf("failed to get preview flag: %w", err)
	}
	if df.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	diskCache, err := flags.GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	if df.ui, err = readUIMode(uiValue); err != nil {
		return err
	}

	s, err := loadSettings(cmd, target)
	if err != nil {
		return err
	}
	if s.opts.Until, err = parseStage(until); err != nil {
		return err
	}
	s.opts.IgnoreWarnings = noWarnings
	s.opts.WarningsAsErrors = warningsAsErrors
	if jobs > 0 {
		s.opts.Jobs = jobs
	}
	if diskCache || s.config.Driver.DiskCache {
		cache, err := driver.OpenDiskCache("cxxsema")
		if err != nil {
			// кэш необязателен
			fmt.Fprintf(cmd.ErrOrStderr(), "disk cache disabled: %v\n", err)
		} else {
			s.opts.Cache = cache
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", target, err)
	}
	ctx := cmd.Context()
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "cli.diag", 0).WithExtra("target", target)

	var (
		fs   *source.FileSet
		bags []*diag.Bag
		errs bool
	)
	if info.IsDir() {
		res, err := diagnoseDir(cmd, target, s, df.ui)
		if err != nil {
			span.End(err.Error())
			return err
		}
		fs = res.FileSet
		for _, f := range res.Files {
			bags = append(bags, f.Bag)
		}
		errs = res.HasErrors()
		if s.timings && res.Timing != nil {
			printTimingReport(cmd.ErrOrStderr(), *res.Timing)
		}
	} else {
		res, err := driver.Diagnose(ctx, target, s.opts)
		if err != nil {
			span.End(err.Error())
			return err
		}
		fs = res.FileSet
		bags = append(bags, res.Bag)
		errs = res.Bag.HasErrors()
	}
	span.End(fmt.Sprintf("files=%d", len(bags)))

	if err := writeDiagnostics(cmd.OutOrStdout(), fs, bags, s, df); err != nil {
		return err
	}
	if !s.quiet && df.format == "pretty" && len(bags) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), diagfmt.Summary(bags...))
	}
	if errs {
		return errHasErrors
	}
	return nil
}

func parseStage(s string) (driver.Stage, error) {
	switch st := driver.Stage(s); st {
	case driver.StageLex, driver.StageParse, driver.StageAnalyze, driver.StageFreeze:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage %q (expected lex|parse|analyze|freeze)", s)
}

func diagnoseDir(cmd *cobra.Command, dir string, s *settings, mode uiMode) (*driver.DirResult, error) {
	if !shouldUseTUI(mode, cmd.OutOrStdout()) || s.quiet {
		return driver.DiagnoseDir(cmd.Context(), dir, s.opts)
	}
	files, err := driver.ListSources(dir, s.opts.Extensions)
	if err != nil {
		return nil, err
	}
	return runDirWithUI(cmd.Context(), cmd.OutOrStdout(), "diagnosing "+dir, dir, files, s.opts)
}

// writeDiagnostics prints every bag in the chosen format. JSON output
// combines them into one document.
func writeDiagnostics(w io.Writer, fs *source.FileSet, bags []*diag.Bag, s *settings, df diagFlags) error {
	mode := diagfmt.PathModeAuto
	if df.fullPath {
		mode = diagfmt.PathModeAbsolute
	}
	switch df.format {
	case "json":
		all := diag.NewBag(0)
		for _, b := range bags {
			all.Merge(b)
		}
		return diagfmt.JSON(w, all, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         mode,
			IncludeNotes:     df.withNotes,
			IncludeFixes:     df.suggest,
			IncludePreviews:  df.preview,
		})
	case "short":
		for _, b := range bags {
			if err := diagfmt.Short(w, b, fs); err != nil {
				return err
			}
		}
	default:
		opts := s.prettyOpts()
		opts.PathMode = mode
		opts.ShowNotes = df.withNotes || s.timings
		opts.ShowFixes = df.suggest
		for _, b := range bags {
			if err := diagfmt.Pretty(w, b, fs, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// reportToStderr prints the diagnostics of a dump command next to its
// regular output.
func (s *settings) reportToStderr(cmd *cobra.Command, res *driver.Result) error {
	if res.Bag == nil || res.Bag.Len() == 0 {
		return nil
	}
	if s.quiet && !res.Bag.HasErrors() {
		return nil
	}
	return diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, s.prettyOpts())
}
