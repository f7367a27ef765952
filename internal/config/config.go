/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package config is the server's configuration shape, generalized from
// cmd/config.CemConfig down to the settings this orchestration core
// actually needs: the workspace root, an optional config file, verbosity,
// and the strict knob spec.md §6 Environment names ("controlling whether
// the server is allowed to read the local filesystem").
package config

// Config is bound from cobra flags + viper by cmd.initConfig, mirroring
// cmd/config.CemConfig's mapstructure/yaml tagging.
type Config struct {
	ProjectDir string `mapstructure:"projectDir" yaml:"projectDir"`
	ConfigFile string `mapstructure:"configFile" yaml:"configFile"`
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`
	// Strict is spec.md §6's only environment knob: when false, all content
	// must come from editor RPCs rather than the local disk (cmd/serve.go picks
	// filesource.Local or filesource.Remote based on it).
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// Clone deep-copies c, mirroring CemConfig.Clone's defensive-copy idiom.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
