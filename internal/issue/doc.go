// SPDX-License-Identifier: MPL-2.0

// Package issue holds the errors pubcheck shows on the command line: an
// ActionableError names the step that failed, and the catalog keeps one
// Markdown page per failure kind, rendered with glamour in verbose mode.
package issue
