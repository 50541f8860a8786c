// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}
	c.Advance(time.Minute)
	if got := c.Since(start); got != time.Minute {
		t.Errorf("Since() = %v, want 1m", got)
	}

	c.Set(start)
	c.WithStep(time.Second)
	first := c.Now()
	second := c.Now()
	if second.Sub(first) != time.Second {
		t.Errorf("stepped Now() delta = %v, want 1s", second.Sub(first))
	}

	if NewFakeClock(time.Time{}).Now().IsZero() {
		t.Error("NewFakeClock(zero) should use a reference time")
	}
}
