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

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

type testEntry struct {
	Key    string   `json:"key" yaml:"key"`
	Size   int      `json:"size" yaml:"size"`
	Source []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

type testList []testEntry

func (l testList) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{e.Key, strings.Join(e.Source, ",")})
	}
	return []string{"KEY", "SOURCES"}, rows
}

func TestWriter_SerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)

	data := []testEntry{{Key: "2026-10-17_080000", Size: 3}}
	require.NoError(t, w.Serialize(context.Background(), data))

	var got []testEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, data, got)
}

func TestWriter_SerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)

	data := []testEntry{{Key: "a", Size: 1, Source: []string{"/etc/ssh"}}}
	require.NoError(t, w.Serialize(context.Background(), data))

	var got []testEntry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, data, got)
}

func TestWriter_SerializeTable(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{
			name: "tabular",
			in:   testList{{Key: "k1", Source: []string{"/a", "/b"}}, {Key: "k2"}},
			want: []string{"KEY  SOURCES", "k1   /a,/b", "k2"},
		},
		{
			name: "flattened struct",
			in:   testEntry{Key: "k1", Size: 2, Source: []string{"/a"}},
			want: []string{"FIELD        VALUE", "key          k1", "size         2", "sources.[0]  /a"},
		},
		{
			name: "scalar",
			in:   42,
			want: []string{"FIELD  VALUE", "value  42"},
		},
		{
			name: "stringer",
			in:   struct{ D time.Duration }{D: 2 * time.Second},
			want: []string{"FIELD  VALUE", "D      2s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), tt.in))
			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			for i := range lines {
				lines[i] = strings.TrimRight(lines[i], " ")
			}
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestWriter_SerializeTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), struct{}{}))
	assert.Equal(t, "<empty>\n", buf.String())
}

func TestNewWriterUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	require.NoError(t, w.Serialize(context.Background(), map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestNewFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := NewFileWriterOrStdout(FormatJSON, path)
	require.NoError(t, w.Serialize(context.Background(), []string{"x"}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(b))

	stdout := NewFileWriterOrStdout(FormatJSON, "  ")
	assert.Equal(t, os.Stdout, stdout.output)
	assert.NoError(t, stdout.Close())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: " YAML", want: FormatYAML},
		{in: "table", want: FormatTable},
		{in: "csv", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
