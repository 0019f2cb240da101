// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"

	"github.com/charmbracelet/log"
)

// NewLogger returns a debug-level logger writing plain logfmt lines into the
// returned buffer.
func NewLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{
		Level:     log.DebugLevel,
		Formatter: log.LogfmtFormatter,
	})
	return logger, &buf
}
