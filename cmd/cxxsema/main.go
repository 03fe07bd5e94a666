package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cxxsema/internal/trace"
	"cxxsema/internal/version"
)

// errHasErrors makes the process exit with status 1 without printing
// anything beyond the diagnostics already written.
var errHasErrors = errors.New("diagnostics contain errors")

// session carries what the persistent pre-run sets up for a command.
type session struct {
	tracer   trace.Tracer
	cleanups []func()
}

func (s *session) close() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "cxxsema",
		Short:         "C/C++ front end with semantic name resolution",
		Long:          `cxxsema lexes, parses and resolves C and C++ translation units and reports diagnostics`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			stopTrace, err := setupTracing(cmd, s)
			if err != nil {
				return err
			}
			s.cleanups = append(s.cleanups, stopTrace)
			stopProf, err := setupProfiling(cmd)
			if err != nil {
				return err
			}
			s.cleanups = append(s.cleanups, stopProf)
			return nil
		},
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 = config value)")
	pf.String("config", "", "path to cxxsema.toml (default: discovered from the input path)")

	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", trace.DefaultRingSize, "events kept in the trace ring buffer")
	pf.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(newTokenizeCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newDiagCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	s := &session{tracer: trace.Nop}
	defer s.close()
	defer dumpTraceOnPanic(s, stderr)

	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errHasErrors):
		return 1
	default:
		fmt.Fprintf(stderr, "cxxsema: %v\n", err)
		return 2
	}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// isTerminal проверяет, является ли writer терминалом
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
