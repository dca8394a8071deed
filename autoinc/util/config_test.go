package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.toml")
	require.Nil(t, os.WriteFile(path, []byte(`
[sequence]
collection = "blog_entries"
max_attempts = 7

[redis]
enabled = true
addresses = ["10.0.0.1:6379", "10.0.0.2:6379"]
`), 0644))

	config, err := LoadConfigurationFile(path)
	require.Nil(t, err)
	assert.Equal(t, "blog_entries", config.GetString("sequence.collection"))
	assert.Equal(t, 7, config.GetInt("sequence.max_attempts"))
	assert.True(t, config.GetBool("redis.enabled"))
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, config.GetStringSlice("redis.addresses"))

	config.SetDefault("sequence.durable", true)
	assert.True(t, config.GetBool("sequence.durable"))
}

func TestLoadConfigurationFileEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.toml")
	require.Nil(t, os.WriteFile(path, []byte(`
[sequence]
collection = "blog_entries"
`), 0644))
	t.Setenv("AUTOINC_SEQUENCE_COLLECTION", "invoices")
	t.Setenv("AUTOINC_REDIS_ENABLED", "true")

	config, err := LoadConfigurationFile(path)
	require.Nil(t, err)
	assert.Equal(t, "invoices", config.GetString("sequence.collection"))
	assert.True(t, config.GetBool("redis.enabled"))
}

func TestLoadConfigurationFileMissing(t *testing.T) {
	_, err := LoadConfigurationFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.NotNil(t, err)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/etc/autoinc", ResolvePath("/etc/autoinc"))

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, filepath.Join(home, "autoinc"), ResolvePath("~/autoinc"))
}
