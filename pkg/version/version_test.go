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

package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr error
	}{
		{"major only", "1", Version{Major: 1}, nil},
		{"major minor", "1.2", Version{Major: 1, Minor: 2}, nil},
		{"full with prefix", "v1.2.3", Version{Major: 1, Minor: 2, Patch: 3}, nil},
		{"pre-release", "0.4.0-rc1", Version{Minor: 4, Extras: "-rc1"}, nil},
		{"build metadata", "2.0.1+dirty", Version{Major: 2, Patch: 1, Extras: "+dirty"}, nil},
		{"empty", "", Version{}, ErrEmptyVersion},
		{"prefix only", "v", Version{}, ErrEmptyVersion},
		{"too many", "1.2.3.4", Version{}, ErrTooManyComponents},
		{"dev build", "dev", Version{}, ErrNonNumeric},
		{"negative", "-1", Version{}, ErrNonNumeric},
		{"empty component", "1..2", Version{}, ErrNonNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2", "1.2.0", 0},
		{"1.2.3-rc1", "1.2.3", 0},
		{"1.3.0", "1.2.9", 1},
		{"2", "1.9.9", 1},
		{"0.9.0", "1.0.0", -1},
		{"1.2.3", "1.2.4", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			a, b := mustParse(t, tt.a), mustParse(t, tt.b)
			if got := a.Compare(b); got != tt.want {
				t.Errorf("%s.Compare(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNewerThan(t *testing.T) {
	tests := []struct {
		name     string
		recorded string
		running  string
		want     bool
	}{
		{"recorded newer", "v1.4.0", "v1.3.2", true},
		{"same", "v1.3.2", "1.3.2", false},
		{"recorded older", "v1.0.0", "v1.3.2", false},
		{"running dev", "v1.4.0", "dev", false},
		{"recorded missing", "", "v1.3.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewerThan(tt.recorded, tt.running); got != tt.want {
				t.Errorf("NewerThan(%q, %q) = %v, want %v", tt.recorded, tt.running, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	v := mustParse(t, "v1.2-rc1")
	if got := v.String(); got != "1.2.0-rc1" {
		t.Errorf("String() = %q, want %q", got, "1.2.0-rc1")
	}
}

func mustParse(t *testing.T, s string) Version {
	t.Helper()
	v, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}
