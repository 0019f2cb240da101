// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema and
// encodes Go values back to formatted CUE source.
//
//	//go:embed workfile_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Workfile](schema, data, "#Workfile",
//		cueutil.WithFilename("anim.cue"))
package cueutil
