package main

import (
	"fmt"
	"io"

	"cxxsema/internal/observ"
)

func printTimingReport(out io.Writer, report observ.Report) {
	if out == nil {
		return
	}
	for _, p := range report.Phases {
		line := fmt.Sprintf("%-10s %8.1f ms", p.Name, p.DurationMS)
		if p.Count > 1 {
			line += fmt.Sprintf(" x%d", p.Count)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%-10s %8.1f ms\n", "total", report.TotalMS)
}
