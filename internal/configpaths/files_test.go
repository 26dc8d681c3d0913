package configpaths_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanmouse/lanmouse/internal/configpaths"
)

func TestDefaultConfigDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := configpaths.DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "lanmouse"), dir)

	p, err := configpaths.DefaultNamedConfigPath("run", "yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "lanmouse", "run.yaml"), p)
}

func TestConfigCandidatePaths(t *testing.T) {
	tests := []struct {
		name     string
		userPath string
		wantIn   func(j, y, tm []string) []string
	}{
		{name: "json", userPath: "/x/my.json", wantIn: func(j, _, _ []string) []string { return j }},
		{name: "yaml", userPath: "/x/my.yml", wantIn: func(_, y, _ []string) []string { return y }},
		{name: "toml", userPath: "/x/my.toml", wantIn: func(_, _, tm []string) []string { return tm }},
		{name: "no extension", userPath: "/x/my", wantIn: func(j, _, _ []string) []string { return j }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, y, tm := configpaths.ConfigCandidatePaths(tt.userPath)
			got := tt.wantIn(j, y, tm)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.userPath, got[0])
		})
	}

	j, _, _ := configpaths.ConfigCandidatePaths("")
	if runtime.GOOS != "windows" {
		assert.Contains(t, j, filepath.Join(configpaths.SystemDir, "run.json"))
	}
	assert.NotContains(t, j, "")
}

func TestExt(t *testing.T) {
	assert.Equal(t, "yaml", configpaths.Ext("yml"))
	assert.Equal(t, "toml", configpaths.Ext("toml"))
	assert.Equal(t, "json", configpaths.Ext("json"))
	assert.Equal(t, "json", configpaths.Ext(""))
}
