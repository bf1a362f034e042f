package telemetry

import (
	"sync"
	"testing"
)

func TestCountersStartZeroed(t *testing.T) {
	c := New()

	if c.Connected() {
		t.Error("new counters should report disconnected")
	}
	if c.Height() != 0 || c.Accepted() != 0 || c.Rejected() != 0 || c.Hashes() != 0 {
		t.Error("new counters should be zero")
	}
}

func TestConnectivityFlag(t *testing.T) {
	c := New()

	c.SetConnected(true)
	if !c.Connected() {
		t.Error("expected connected")
	}
	c.SetConnected(false)
	if c.Connected() {
		t.Error("expected disconnected")
	}
}

func TestBlockCountersIncrementByOne(t *testing.T) {
	c := New()

	c.BlockAccepted()
	c.BlockAccepted()
	c.BlockRejected()

	if c.Accepted() != 2 {
		t.Errorf("Accepted = %d, want 2", c.Accepted())
	}
	if c.Rejected() != 1 {
		t.Errorf("Rejected = %d, want 1", c.Rejected())
	}
}

func TestCountHashConcurrent(t *testing.T) {
	c := New()

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.CountHash()
			}
		}()
	}
	wg.Wait()

	if got := c.Hashes(); got != goroutines*perGoroutine {
		t.Errorf("Hashes = %d, want %d", got, goroutines*perGoroutine)
	}
}

func TestSampleHashrateResetsCounter(t *testing.T) {
	c := New()

	for i := 0; i < 100; i++ {
		c.CountHash()
	}

	rate := c.SampleHashrate()
	if rate <= 0 {
		t.Errorf("hashrate should be positive after attempts, got %f", rate)
	}
	if c.Hashes() != 0 {
		t.Errorf("sampling should reset the attempt counter, got %d", c.Hashes())
	}

	// A second immediate sample has no attempts to report.
	if rate := c.SampleHashrate(); rate != 0 {
		t.Errorf("second sample should be zero, got %f", rate)
	}
}

func TestFormatHashrate(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "0.00 H/s"},
		{999, "999.00 H/s"},
		{1000, "1.00 KH/s"},
		{1_500_000, "1.50 MH/s"},
		{2_000_000_000, "2.00 GH/s"},
		{3_000_000_000_000, "3.00 TH/s"},
		{5_000_000_000_000_000, "5000.00 TH/s"},
	}

	for _, tt := range tests {
		if got := FormatHashrate(tt.rate); got != tt.want {
			t.Errorf("FormatHashrate(%f) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}
