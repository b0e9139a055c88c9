// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package copier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{"*.swp", "/etc/nginx/cache/*", ""})
	require.NoError(t, err)
	assert.Len(t, m.Patterns(), 2)

	tests := []struct {
		path string
		want bool
	}{
		{"/etc/nginx/.default.swp", true},
		{"/etc/nginx/cache/entry", true},
		{"/etc/nginx/nginx.conf", false},
		{"/etc/nginx/cache", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestMatcherInvalidPattern(t *testing.T) {
	_, err := NewMatcher([]string{"[unterminated"})
	assert.Error(t, err)
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("/anything"))
	assert.Nil(t, m.Patterns())
}
