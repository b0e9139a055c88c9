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

package file

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
)

// Options for configuring the Parser.
type Option func(*Parser)

// Parser splits captured text and manifest files into lines or key-value pairs.
type Parser struct {
	delimiter    string
	maxSize      int
	skipComments bool
	kvDelimiter  string
	vTrimChars   string
	strictUTF8   bool
	keepIndent   bool
}

// Pair is a single key-value entry in file order.
type Pair struct {
	Key   string
	Value string
}

// WithDelimiter sets the delimiter used to split entries in the file.
// Default is newline ("\n").
func WithDelimiter(delim string) Option {
	return func(p *Parser) {
		p.delimiter = delim
	}
}

// WithMaxSize sets the maximum size (in bytes) of the content to be parsed.
// Default is defaults.MaxCaptureSize.
func WithMaxSize(size int) Option {
	return func(p *Parser) {
		p.maxSize = size
	}
}

// WithSkipComments sets whether to skip lines starting with '#'.
// Default is true. Capture placeholders are comment lines.
func WithSkipComments(skip bool) Option {
	return func(p *Parser) {
		p.skipComments = skip
	}
}

// WithKVDelimiter sets the key-value delimiter used by GetPairs.
// Default is ":".
func WithKVDelimiter(kvDelim string) Option {
	return func(p *Parser) {
		p.kvDelimiter = kvDelim
	}
}

// WithVTrimChars sets characters to trim from values.
func WithVTrimChars(trimChars string) Option {
	return func(p *Parser) {
		p.vTrimChars = trimChars
	}
}

// WithStrictUTF8 rejects content that is not valid UTF-8 when true (the default).
// When false, invalid sequences are replaced with U+FFFD.
func WithStrictUTF8(strict bool) Option {
	return func(p *Parser) {
		p.strictUTF8 = strict
	}
}

// WithKeepIndent preserves leading whitespace on each line. Trailing
// whitespace is always removed.
func WithKeepIndent(keep bool) Option {
	return func(p *Parser) {
		p.keepIndent = keep
	}
}

// NewParser creates a new parser with the provided options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		delimiter:    "\n",
		maxSize:      defaults.MaxCaptureSize,
		skipComments: true,
		kvDelimiter:  ":",
		strictUTF8:   true,
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetLines reads the file at path and returns its non-empty lines.
func (p *Parser) GetLines(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", path, err)
	}

	lines, err := p.ParseLines(b)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", path, err)
	}
	return lines, nil
}

// ParseLines splits b into non-empty lines, honouring the size, UTF-8 and
// comment settings.
func (p *Parser) ParseLines(b []byte) ([]string, error) {
	if len(b) > p.maxSize {
		return nil, fmt.Errorf("content exceeds maximum size of %d bytes", p.maxSize)
	}

	content := string(b)
	if !utf8.Valid(b) {
		if p.strictUTF8 {
			return nil, fmt.Errorf("content is not valid UTF-8")
		}
		content = strings.ToValidUTF8(content, "�")
	}

	parts := strings.Split(content, p.delimiter)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		if p.skipComments && strings.HasPrefix(clean, "#") {
			continue
		}
		if p.keepIndent {
			clean = strings.TrimRight(part, " \t\r")
		}
		result = append(result, clean)
	}

	return result, nil
}

// GetPairs reads the file at path and returns its key-value entries in order.
// Repeated keys are preserved. Lines without the delimiter are skipped.
func (p *Parser) GetPairs(path string) ([]Pair, error) {
	lines, err := p.GetLines(path)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(lines))
	for _, line := range lines {
		kv := strings.SplitN(line, p.kvDelimiter, 2)
		if len(kv) != 2 {
			slog.Debug("skipping line without delimiter",
				slog.String("path", path),
				slog.String("delimiter", p.kvDelimiter))
			continue
		}
		value := strings.TrimSpace(kv[1])
		if p.vTrimChars != "" {
			value = strings.Trim(value, p.vTrimChars)
		}
		pairs = append(pairs, Pair{Key: strings.TrimSpace(kv[0]), Value: value})
	}
	return pairs, nil
}
