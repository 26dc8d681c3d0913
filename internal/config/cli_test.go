package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanmouse/lanmouse/internal/cmd"
	"github.com/lanmouse/lanmouse/internal/config"
)

// An edited template must reach the parsed command, nested settings included.
func TestGeneratedTemplateLoads(t *testing.T) {
	tests := []struct {
		format string
		loader kong.ConfigurationLoader
	}{
		{format: "json", loader: kong.JSON},
		{format: "yaml", loader: kongyaml.Loader},
		{format: "toml", loader: kongtoml.Loader},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			file := filepath.Join(dir, "run."+tt.format)
			require.NoError(t, (&cmd.ConfigInit{Command: "run", Format: tt.format, Output: file}).Run())

			data, err := os.ReadFile(file)
			require.NoError(t, err)
			edited := strings.NewReplacer("5s", "9s", "250ms", "999ms", "1048576", "2097152").Replace(string(data))
			require.NotEqual(t, string(data), edited)
			require.NoError(t, os.WriteFile(file, []byte(edited), 0o644))

			var cli config.CLI
			parser, err := kong.New(&cli, kong.Configuration(tt.loader, file))
			require.NoError(t, err)
			peers := filepath.Join(dir, "peers.yaml")
			_, err = parser.Parse([]string{"run", "--peers", peers})
			require.NoError(t, err)

			assert.Equal(t, 9*time.Second, cli.Run.Side.ConnectionTimeout)
			assert.Equal(t, 999*time.Millisecond, cli.Run.Session.SinkTimeout)
			assert.Equal(t, 999*time.Millisecond, cli.Run.Session.KeymapBackoff)
			assert.Equal(t, 2097152, cli.Run.Events.ReadBuffer)
			assert.Equal(t, 46, cli.Run.Events.DSCP)
			assert.Equal(t, "null", cli.Run.Backend)
			assert.Equal(t, peers, cli.Run.Peers)
			assert.Empty(t, cli.Run.KeymapFile)
			assert.Empty(t, cli.Run.CacheDir)
		})
	}
}

func TestFlagsOverrideTemplate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "run.json")
	require.NoError(t, (&cmd.ConfigInit{Command: "run", Format: "json", Output: file}).Run())

	var cli config.CLI
	parser, err := kong.New(&cli, kong.Configuration(kong.JSON, file))
	require.NoError(t, err)
	_, err = parser.Parse([]string{"run", "--peers", filepath.Join(dir, "p.json"), "--side.connection-timeout=2s"})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cli.Run.Side.ConnectionTimeout)
	assert.Equal(t, ":4242", cli.Run.Side.Addr)
}
