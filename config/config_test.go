package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisvansteen/Dashboards/errors"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_JSON(t *testing.T) {
	path := writeTempConfig(t, "board.json", `{
		"nats": {"url": "nats://broker:4222", "reconnect_wait": "5s"},
		"board": {
			"base_topic": "race",
			"delete_suffix": "/delete",
			"columns": [
				{
					"prefix": "race/",
					"order": ["Rang", "Rugnummer", "Naam"],
					"titles": {"Rang": "Positie"}
				}
			]
		},
		"http": {"port": 9000, "admin_token": "s3cret"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait.Std())
	assert.Equal(t, "race", cfg.Board.BaseTopic)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "s3cret", cfg.HTTP.AdminToken)
	require.Len(t, cfg.Board.Columns, 1)
	assert.Equal(t, []string{"Rang", "Rugnummer", "Naam"}, cfg.Board.Columns[0].Order)

	// Defaults survive for omitted sections
	assert.Equal(t, "/ws", cfg.Notify.Path)
	assert.Equal(t, 8, cfg.Notify.ClientBuffer)
}

func TestLoad_YAML(t *testing.T) {
	path := writeTempConfig(t, "board.yaml", `
nats:
  url: nats://broker:4222
  reconnect_wait: 3s
board:
  base_topic: race
  columns:
    - prefix: race/sprint
      order: [Rang, Rugnummer]
http:
  port: 8088
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.NATS.ReconnectWait.Std())
	assert.Equal(t, 8088, cfg.HTTP.Port)
	require.Len(t, cfg.Board.Columns, 1)
	assert.Equal(t, "race/sprint", cfg.Board.Columns[0].Prefix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/board.json")
	assert.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeTempConfig(t, "bad.json", `{"nats": `)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing nats url", func(c *Config) { c.NATS.URL = "" }},
		{"missing base topic", func(c *Config) { c.Board.BaseTopic = "" }},
		{"dotted base topic", func(c *Config) { c.Board.BaseTopic = "race.pass" }},
		{"bad delete suffix", func(c *Config) { c.Board.DeleteSuffix = "delete" }},
		{"empty column prefix", func(c *Config) {
			c.Board.Columns = []ColumnTable{{Prefix: "", Order: []string{"A"}}}
		}},
		{"dotted column prefix", func(c *Config) {
			c.Board.Columns = []ColumnTable{{Prefix: "race.x", Order: []string{"A"}}}
		}},
		{"empty column order", func(c *Config) {
			c.Board.Columns = []ColumnTable{{Prefix: "race/"}}
		}},
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"zero request size", func(c *Config) { c.HTTP.MaxRequestSize = 0 }},
		{"zero client buffer", func(c *Config) { c.Notify.ClientBuffer = 0 }},
		{"bad notify path", func(c *Config) { c.Notify.Path = "ws" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, time.Second, d.Std())

	assert.Error(t, d.UnmarshalJSON([]byte(`"not-a-duration"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
