// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds the size of a scene description or config file.
const DefaultMaxFileSize int64 = 16 << 20

// Option tunes a single ParseAndDecode call.
type Option func(*decodeSettings)

type decodeSettings struct {
	limit int64
	name  string
}

func newDecodeSettings(opts []Option) decodeSettings {
	s := decodeSettings{limit: DefaultMaxFileSize, name: "<input>"}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithMaxFileSize rejects documents larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(s *decodeSettings) { s.limit = n }
}

// WithFilename names the document in error messages.
func WithFilename(name string) Option {
	return func(s *decodeSettings) {
		if name != "" {
			s.name = name
		}
	}
}
