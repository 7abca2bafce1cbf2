package pokebedrock

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/rank"
)

func TestReadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	conf, err := ReadConfig(path)
	require.NoError(t, err)
	assert.False(t, conf.Whitelist.Enabled)
	assert.Equal(t, rank.Moderator, conf.Whitelist.ExemptRank)
	assert.Equal(t, 30*time.Second, conf.Whitelist.CacheTTL.D())
	assert.NotEmpty(t, conf.Service.APIKey)

	again, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, conf.Service.APIKey, again.Service.APIKey, "the generated key is kept")
	assert.Equal(t, conf.Commands, again.Commands)
}

func TestWhitelistConfig(t *testing.T) {
	conf := DefaultConfig()
	conf.Whitelist.Enabled = true
	conf.Whitelist.SweepWorkers = 8

	wl := conf.WhitelistConfig()
	assert.True(t, wl.Enabled)
	assert.Equal(t, 8, wl.SweepWorkers)
	assert.Equal(t, conf.Whitelist.Reason, wl.Reason)
	assert.Equal(t, conf.Whitelist.SweepInterval.D(), wl.SweepInterval)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := map[string]func(c *Config){
		"log level":     func(c *Config) { c.PokeBedrock.LogLevel = "verbose" },
		"sweep workers": func(c *Config) { c.Whitelist.SweepWorkers = 0 },
		"reason":        func(c *Config) { c.Whitelist.Reason = "" },
		"dsn":           func(c *Config) { c.Database.DSN = "" },
		"api key":       func(c *Config) { c.Service.APIKey = "" },
		"ranks":         func(c *Config) { c.Ranks.Roles = map[string]string{"Champion": "1"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	c := DefaultConfig()
	c.Service.APIAddress, c.Service.APIKey = "", ""
	assert.NoError(t, c.Validate(), "no key is needed without the api")
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLogLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}
