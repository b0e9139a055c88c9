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

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestNames(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		want    []string
	}{
		{
			name:    "base names",
			sources: []string{"/etc/ssh", "/etc/hosts/"},
			want:    []string{"ssh", "hosts"},
		},
		{
			name:    "collision flattens later source",
			sources: []string{"/etc/iptables", "/etc/sysconfig/iptables"},
			want:    []string{"iptables", "etc_sysconfig_iptables"},
		},
		{
			name:    "reserved name",
			sources: []string{"/srv/system_info", "/opt/latest"},
			want:    []string{"srv_system_info", "opt_latest"},
		},
		{
			name:    "root",
			sources: []string{"/"},
			want:    []string{"_"},
		},
		{
			name: "empty",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DestNames(tt.sources))
		})
	}
}
