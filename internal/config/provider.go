// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects where configuration is read from. Zero values fall
// back to the platform config directory and then the working directory.
type LoadOptions struct {
	ConfigFilePath string
	ConfigDirPath  string
}

// Loader reads the configuration file, applies defaults and overlays
// PUBCHECK_* environment variables.
type Loader struct{}

func NewLoader() *Loader { return &Loader{} }

func (*Loader) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// Path returns the file Load would read, or "" when only defaults apply.
func (*Loader) Path(opts LoadOptions) (string, error) {
	return resolveConfigFile(opts)
}
