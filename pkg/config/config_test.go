package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"network", false},
		{"all", false},
		{"web-2", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{"has space", true},
		{"-leading", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategory(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultGenericIsUnion(t *testing.T) {
	c := Default()
	all, err := c.Category(defaults.GenericCategory)
	require.NoError(t, err)

	network, err := c.Category("network")
	require.NoError(t, err)
	for _, p := range network.Paths {
		assert.Contains(t, all.Paths, p)
	}
	assert.Contains(t, c.Names(), "all")
	assert.Equal(t, defaults.StoreRoot, c.Root)
}

func TestUnknownCategory(t *testing.T) {
	_, err := Default().Category("nope")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapdiff.yaml")
	content := `root: /srv/snapshots
excludes: ["*.log"]
categories:
  web:
    paths: [/srv/www]
    excludes: ["*/cache/*"]
  custom:
    paths: [/opt/app/config.yml]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/snapshots", c.Root)

	web, err := c.Category("web")
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/www"}, web.Paths)

	all, err := c.Category("all")
	require.NoError(t, err)
	assert.Contains(t, all.Paths, "/opt/app/config.yml")
	assert.NotContains(t, all.Paths, "/var/www")

	rc, err := c.NewRunContext("web")
	require.NoError(t, err)
	assert.Equal(t, []string{"*.log", "*/cache/*"}, rc.Excludes)
	assert.Equal(t, defaults.CommandTimeout, rc.CommandTimeout)
}

func TestLoadRejectsRelativePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  x:\n    paths: [etc/hosts]\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Names(), c.Names())
}

func TestRunContextClock(t *testing.T) {
	fixed := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	rc := &RunContext{Now: func() time.Time { return fixed }}
	assert.Equal(t, fixed, rc.Clock())

	rc.Now = nil
	assert.WithinDuration(t, time.Now(), rc.Clock(), time.Minute)
}
