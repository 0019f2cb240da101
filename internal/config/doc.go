// SPDX-License-Identifier: MPL-2.0

// Package config loads pubcheck settings using Viper with CUE as the file
// format.
//
// Configuration is read from <config dir>/pubcheck/config.cue, falling back
// to ./config.cue, and validated against the embedded config_schema.cue.
// Every key can be overridden through PUBCHECK_* environment variables, e.g.
// PUBCHECK_ASSET_DB or PUBCHECK_UI_VERBOSE.
package config
