// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
)

// ParseResult holds a decoded document and the unified value it came from.
type ParseResult[T any] struct {
	Value   *T
	Unified cue.Value
}

// ParseAndDecode compiles schema, unifies data with the definition at
// schemaPath, validates the result and decodes it into T. Errors carry the
// file name and the path of the offending field.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	set := newDecodeSettings(opts)
	if err := CheckFileSize(data, set.limit, set.name); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileBytes(schema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if !def.Exists() {
		return nil, fmt.Errorf("schema has no definition %s", schemaPath)
	}

	doc := ctx.CompileBytes(data, cue.Filename(set.name))
	if err := doc.Err(); err != nil {
		return nil, FormatError(err, set.name)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, FormatError(err, set.name)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, set.name)
	}

	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}

// Encode renders v as formatted CUE source. Field names follow the json tags
// of v.
func Encode(v any) ([]byte, error) {
	val := cuecontext.New().Encode(v)
	if val.Err() != nil {
		return nil, fmt.Errorf("encode: %w", val.Err())
	}
	out, err := format.Node(val.Syntax(cue.Concrete(true)), format.Simplify())
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return out, nil
}
