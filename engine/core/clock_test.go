package core

import (
	"testing"
	"time"
)

func TestClockElapsedOnlyAfterStart(t *testing.T) {
	c := NewClock()
	c.Update()
	if got := c.Elapsed(); got != 0 {
		t.Errorf("elapsed before start = %f, want 0", got)
	}

	c.Start()
	time.Sleep(10 * time.Millisecond)
	c.Update()
	if got := c.Elapsed(); got <= 0 {
		t.Errorf("elapsed after start = %f, want > 0", got)
	}
}

func TestClockStopFreezesElapsed(t *testing.T) {
	c := NewClock()
	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Update()
	frozen := c.Elapsed()

	c.Stop()
	time.Sleep(5 * time.Millisecond)
	c.Update()
	if got := c.Elapsed(); got != frozen {
		t.Errorf("elapsed after stop = %f, want %f", got, frozen)
	}

	// Start resets elapsed.
	c.Start()
	if got := c.Elapsed(); got != 0 {
		t.Errorf("elapsed after restart = %f, want 0", got)
	}
}

func TestMetricsAveragesFrameTimes(t *testing.T) {
	if err := MetricsInitialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// A full averaging window of 4ms frames.
	for i := uint8(0); i < AVG_COUNT; i++ {
		MetricsUpdate(0.004)
	}
	if got := MetricsFrameTime(); got < 3.9 || got > 4.1 {
		t.Errorf("frame time avg = %f ms, want ~4", got)
	}
}

func TestMetricsCountsFramesPerSecond(t *testing.T) {
	if err := MetricsInitialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Enough 10ms frames for several one-second windows; whatever state the
	// shared counters were in, the last completed window is a clean 100.
	for i := 0; i < 300; i++ {
		MetricsUpdate(0.010)
	}
	if fps := MetricsFPS(); fps < 90 || fps > 110 {
		t.Errorf("fps = %f, want ~100", fps)
	}
}
