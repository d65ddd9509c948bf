package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewManager_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.GetConfigPath())
	assert.FileExists(t, path)

	cfg := m.Get()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.SkipUntitled)
	assert.Empty(t, cfg.ExcludeClasses)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.NoError(t, cfg.Validate())
}

func TestNewManager_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`server_port: 9000
backend: x11
poll_interval: 2s
exclude_classes:
  - ^plasmashell$
mcp:
  transport: streamable-http
  port: 9100
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "x11", cfg.Backend)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, []string{"^plasmashell$"}, cfg.ExcludeClasses)
	assert.Equal(t, MCPConfig{Transport: "streamable-http", Port: 9100}, cfg.MCP)
	// unset keys still fall back to defaults
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewManager_EnvOverride(t *testing.T) {
	t.Setenv("FOCUSSWITCH_SERVER_PORT", "7777")
	t.Setenv("FOCUSSWITCH_MCP_TRANSPORT", "streamable-http")

	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, 7777, cfg.ServerPort)
	assert.Equal(t, "streamable-http", cfg.MCP.Transport)
}

func TestManager_SetAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	m.Set("server_port", 9090)
	m.Set("poll_interval", time.Second)
	require.NoError(t, m.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]interface{}
	require.NoError(t, yaml.Unmarshal(raw, &onDisk))
	assert.Equal(t, 9090, onDisk["server_port"])
	assert.Equal(t, "1s", onDisk["poll_interval"])

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, reloaded.Get().ServerPort)
	assert.Equal(t, time.Second, reloaded.Get().PollInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.ServerPort = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "wayland" }, wantErr: true},
		{name: "tiny interval", mutate: func(c *Config) { c.PollInterval = time.Millisecond }, wantErr: true},
		{name: "bad pattern", mutate: func(c *Config) { c.ExcludeClasses = []string{"("} }, wantErr: true},
		{name: "bad transport", mutate: func(c *Config) { c.MCP.Transport = "sse" }, wantErr: true},
		{name: "kwin backend", mutate: func(c *Config) { c.Backend = "kwin" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key     string
		raw     string
		want    interface{}
		wantErr bool
	}{
		{key: "server_port", raw: "8081", want: 8081},
		{key: "server_port", raw: "70000", wantErr: true},
		{key: "mcp.port", raw: "abc", wantErr: true},
		{key: "log_level", raw: "debug", want: "debug"},
		{key: "log_level", raw: "loud", wantErr: true},
		{key: "log_pretty", raw: "true", want: true},
		{key: "skip_untitled", raw: "maybe", wantErr: true},
		{key: "backend", raw: "kwin", want: "kwin"},
		{key: "poll_interval", raw: "250ms", want: 250 * time.Millisecond},
		{key: "poll_interval", raw: "soon", wantErr: true},
		{key: "exclude_classes", raw: "krunner, plasmashell", want: []string{"krunner", "plasmashell"}},
		{key: "exclude_classes", raw: "", want: []string{}},
		{key: "mcp.transport", raw: "stdio", want: "stdio"},
		{key: "nope", raw: "1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.raw, func(t *testing.T) {
			got, err := ParseValue(tt.key, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceConfig(t *testing.T) {
	cfg := Defaults()
	cfg.ExcludeClasses = []string{"^krunner$"}

	sc, err := cfg.SourceConfig()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, sc.Interval)
	require.NotNil(t, sc.Filter)

	cfg.ExcludeClasses = []string{"["}
	_, err = cfg.SourceConfig()
	assert.Error(t, err)
}
