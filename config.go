// Copyright 2020-2026 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package subqgen

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Options holds the tunables the pipeline runs with. This is deliberately
// not a CLI: callers embedding subqgen construct Options directly or load
// them from a config file with LoadOptions, the way the teacher's own
// server config loads a YAML/TOML/JSON file through viper rather than
// parsing flags for library-level settings.
type Options struct {
	// MaxAliases bounds how many relations a single query may reference
	// before Analyze refuses it outright, since the enumerator's subset
	// count grows combinatorially in alias count.
	MaxAliases int

	// LogLevel is one of viper's logrus-compatible level names: "debug",
	// "info", "warn", "error". Defaults to "warn".
	LogLevel string
}

// DefaultOptions returns the tunables a bare Engine runs with if the
// embedding caller doesn't load its own.
func DefaultOptions() Options {
	return Options{
		MaxAliases: 12,
		LogLevel:   "warn",
	}
}

// LoadOptions reads Options from a config file at path (any format viper
// supports by extension: yaml, toml, json, ...), falling back to
// DefaultOptions for any key the file doesn't set.
func LoadOptions(path string) (Options, error) {
	v := viper.New()
	v.SetConfigFile(path)

	opts := DefaultOptions()
	v.SetDefault("max_aliases", opts.MaxAliases)
	v.SetDefault("log_level", opts.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		return Options{}, fmt.Errorf("subqgen: loading options from %s: %w", path, err)
	}

	opts.MaxAliases = v.GetInt("max_aliases")
	opts.LogLevel = v.GetString("log_level")
	return opts, nil
}

func (o Options) logrusLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(o.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}
