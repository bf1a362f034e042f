package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"ferrominer/telemetry"
)

func TestStatusLine(t *testing.T) {
	// Disable ANSI sequences so the assertions see plain text.
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	counters := telemetry.New()
	counters.SetHeight(321)
	counters.BlockAccepted()
	counters.BlockRejected()
	counters.SetConnected(true)

	line := statusLine(counters)

	for _, want := range []string{"ferrominer", "Height", "321", "Accepted", "Rejected", "H/s", "Online"} {
		if !strings.Contains(line, want) {
			t.Errorf("status line %q missing %q", line, want)
		}
	}

	counters.SetConnected(false)
	if line := statusLine(counters); !strings.Contains(line, "Offline") {
		t.Errorf("status line %q should report Offline", line)
	}
}

func TestStatusSuppressed(t *testing.T) {
	tests := []struct {
		name  string
		quiet bool
		out   io.Writer
	}{
		{"quiet mode", true, os.Stdout},
		{"not a terminal", false, &bytes.Buffer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer close(done)
				runStatus(ctx, telemetry.New(), tt.quiet, tt.out)
			}()

			// A suppressed status loop returns on its own, without
			// waiting for the context.
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("suppressed status loop kept running")
			}

			if buf, ok := tt.out.(*bytes.Buffer); ok && buf.Len() != 0 {
				t.Errorf("status output written despite suppression: %q", buf.String())
			}
		})
	}
}
