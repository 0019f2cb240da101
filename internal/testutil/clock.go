// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync/atomic"
	"time"
)

// Epoch is where a FakeClock starts when given the zero time.
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// FakeClock only moves when Advance is called. Pass its Now method where a
// func() time.Time is expected.
type FakeClock struct {
	offset atomic.Int64
	start  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = Epoch
	}
	return &FakeClock{start: start}
}

func (c *FakeClock) Now() time.Time {
	return c.start.Add(time.Duration(c.offset.Load()))
}

func (c *FakeClock) Advance(d time.Duration) {
	c.offset.Add(int64(d))
}
