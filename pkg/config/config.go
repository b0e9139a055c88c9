package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

var categoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Category is a named set of source paths backed up together.
type Category struct {
	Name     string   `json:"name" yaml:"name"`
	Paths    []string `json:"paths" yaml:"paths"`
	Excludes []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`
}

// File is the on-disk YAML configuration.
//
//	root: /var/backups/snapdiff
//	excludes: ["*.swp"]
//	categories:
//	  web:
//	    paths: [/etc/nginx, /var/www]
type File struct {
	Root       string               `yaml:"root,omitempty"`
	Excludes   []string             `yaml:"excludes,omitempty"`
	Categories map[string]*Category `yaml:"categories,omitempty"`
}

// Config holds the resolved category catalogue.
type Config struct {
	Root       string
	Excludes   []string
	categories map[string]*Category
}

// Default returns the built-in catalogue.
func Default() *Config {
	c := &Config{
		Root:       defaults.StoreRoot,
		Excludes:   slices.Clone(defaultExcludes),
		categories: make(map[string]*Category, len(defaultCategories)),
	}
	for name, paths := range defaultCategories {
		c.categories[name] = &Category{Name: name, Paths: slices.Clone(paths)}
	}
	c.rebuildGeneric()
	return c
}

// Load reads a YAML configuration file and merges it over the built-in
// catalogue. Categories named in the file replace built-in ones.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, fmt.Sprintf("failed to read config %q", path), err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, fmt.Sprintf("failed to parse config %q", path), err)
	}

	if f.Root != "" {
		c.Root = f.Root
	}
	if len(f.Excludes) > 0 {
		c.Excludes = f.Excludes
	}

	explicitAll := false
	for name, cat := range f.Categories {
		if err := ValidateCategory(name); err != nil {
			return nil, err
		}
		if cat == nil {
			cat = &Category{}
		}
		cat.Name = name
		for _, p := range cat.Paths {
			if !filepath.IsAbs(p) {
				return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
					"source paths must be absolute", map[string]any{"category": name, "path": p})
			}
		}
		c.categories[name] = cat
		if name == defaults.GenericCategory {
			explicitAll = true
		}
	}
	if !explicitAll {
		c.rebuildGeneric()
	}

	return c, nil
}

// rebuildGeneric makes the generic category the union of all others.
func (c *Config) rebuildGeneric() {
	seen := make(map[string]struct{})
	var paths []string
	for _, name := range c.Names() {
		if name == defaults.GenericCategory {
			continue
		}
		for _, p := range c.categories[name].Paths {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	c.categories[defaults.GenericCategory] = &Category{Name: defaults.GenericCategory, Paths: paths}
}

// Names returns the sorted category names.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Category returns the named category.
func (c *Config) Category(name string) (*Category, error) {
	if err := ValidateCategory(name); err != nil {
		return nil, err
	}
	cat, ok := c.categories[name]
	if !ok {
		return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown category %q", name), map[string]any{"known": c.Names()})
	}
	return cat, nil
}

// ValidateCategory checks that name is usable as a single path segment.
func ValidateCategory(name string) error {
	if !categoryNamePattern.MatchString(name) {
		return cerrors.New(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid category name %q: must be a single path segment without spaces", name))
	}
	return nil
}

// RunContext carries every piece of state a backup or diff invocation needs.
// Nothing below the CLI reads process-wide state.
type RunContext struct {
	// Root is the snapshot store root.
	Root string
	// Category is the category being backed up or compared.
	Category string
	// Sources are the configured source paths of Category.
	Sources []string
	// Excludes are glob patterns skipped during copy.
	Excludes []string
	// CommandTimeout bounds each introspection command.
	CommandTimeout time.Duration
	// DryRun reports the plan without writing.
	DryRun bool
	// VerifyContent compares file digests before hardlinking.
	VerifyContent bool
	// RateLimit caps files materialized per second; zero disables throttling.
	RateLimit float64
	// Now supplies the current time; nil means time.Now.
	Now func() time.Time
}

// NewRunContext builds a RunContext for category from the catalogue.
func (c *Config) NewRunContext(category string) (*RunContext, error) {
	cat, err := c.Category(category)
	if err != nil {
		return nil, err
	}
	excludes := slices.Concat(c.Excludes, cat.Excludes)
	return &RunContext{
		Root:           c.Root,
		Category:       cat.Name,
		Sources:        slices.Clone(cat.Paths),
		Excludes:       excludes,
		CommandTimeout: defaults.CommandTimeout,
	}, nil
}

// Clock returns the configured time source.
func (r *RunContext) Clock() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
