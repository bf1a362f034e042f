package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"ferrominer/telemetry"
)

// statusInterval is both the display refresh period and the hashrate
// sampling window: each tick reads and resets the attempt counter.
const statusInterval = 5 * time.Second

// runStatus periodically prints a one-line mining status to out until the
// context is cancelled. The line is for a human watching the miner, so it
// is suppressed entirely in quiet mode and when out is not a terminal;
// piped or redirected output carries only log records. It only reads the
// atomic counters, so it never interferes with the solving threads.
func runStatus(ctx context.Context, counters *telemetry.Counters, quiet bool, out io.Writer) {
	if quiet || !isTerminal(out) {
		return
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintln(out, statusLine(counters))
		}
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// statusLine renders the current snapshot: chain height, block accounting,
// rolling hashrate and connectivity.
func statusLine(counters *telemetry.Counters) string {
	state := color.RedString("Offline")
	if counters.Connected() {
		state = color.GreenString("Online")
	}

	return fmt.Sprintf("%s | %s: %s | %s: %s | %s: %s | %s | %s",
		color.BlueString("ferrominer"),
		color.YellowString("Height"), color.GreenString("%d", counters.Height()),
		color.YellowString("Accepted"), color.GreenString("%d", counters.Accepted()),
		color.YellowString("Rejected"), color.GreenString("%d", counters.Rejected()),
		color.GreenString(telemetry.FormatHashrate(counters.SampleHashrate())),
		state)
}
