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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, 12, opts.MaxAliases)
	require.Equal(t, "warn", opts.LogLevel)
}

func TestLoadOptionsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subqgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_aliases: 6\nlog_level: debug\n"), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	require.Equal(t, 6, opts.MaxAliases)
	require.Equal(t, "debug", opts.LogLevel)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := LoadOptions("/nonexistent/subqgen.yaml")
	require.Error(t, err)
}
