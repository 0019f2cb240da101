// SPDX-License-Identifier: MPL-2.0

// Package testutil is shared by the package tests: file helpers that fail
// the test on error, a FakeClock for timestamped records and a logger
// writing into a buffer for assertions.
package testutil
