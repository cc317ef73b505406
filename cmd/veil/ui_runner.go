package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"veil/internal/buildpipeline"
	"veil/internal/config"
	"veil/internal/driver"
	"veil/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

func shouldUseTUI(mode uiMode, out io.Writer) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	return isTerminal(out)
}

type compileOutcome struct {
	outcomes []buildpipeline.Outcome
	err      error
}

func compileWithUI(ctx context.Context, out io.Writer, title string, jobs []buildpipeline.Job, cfg config.Config) ([]buildpipeline.Outcome, error) {
	events := make(chan buildpipeline.Event, 256)
	done := make(chan compileOutcome, 1)
	go func() {
		outcomes, err := buildpipeline.CompileAll(ctx, jobs, cfg, buildpipeline.ChannelSink{Ch: events})
		done <- compileOutcome{outcomes: outcomes, err: err}
		close(events)
	}()

	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name
	}
	model := ui.NewProgressModel(title, names, len(driver.Passes()), events)
	_, uiErr := tea.NewProgram(model, tea.WithOutput(out)).Run()
	res := <-done
	if uiErr != nil {
		return res.outcomes, uiErr
	}
	return res.outcomes, res.err
}
