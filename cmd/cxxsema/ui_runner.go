package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"cxxsema/internal/driver"
	"cxxsema/internal/ui"
)

type dirOutcome struct {
	result *driver.DirResult
	err    error
}

// runDirWithUI diagnoses dir in the background while a progress model
// renders the events it emits.
func runDirWithUI(ctx context.Context, out io.Writer, title, dir string, files []string, opts driver.Options) (*driver.DirResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		o := opts
		o.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.DiagnoseDir(ctx, dir, o)
		outcomeCh <- dirOutcome{result: res, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// после выхода модели (в том числе по ctrl+c) события больше никто не читает
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
