package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestConnConfigDefaultsRoundTrip verifies that every key written by
// setDefaults is read back by NewConnConfigFromViper under the same name.
func TestConnConfigDefaultsRoundTrip(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg, err := NewConnConfigFromViper()
	require.NoError(t, err)
	assert.Equal(t, DefaultConnConfig(), cfg)

	listen, err := NewListenConfigFromViper()
	require.NoError(t, err)
	assert.Equal(t, DefaultListenConfig(), listen)
}

func TestNewConnConfigFromViper_Overrides(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("conn.curve", CurveX25519)
	viper.Set("conn.cipher", CipherChaCha20)
	viper.Set("conn.handshake_timeout", "3s")
	viper.Set("conn.symmetric_seeds", true)

	cfg, err := NewConnConfigFromViper()
	require.NoError(t, err)
	assert.Equal(t, CurveX25519, cfg.Curve)
	assert.Equal(t, CipherChaCha20, cfg.Cipher)
	assert.Equal(t, 3*time.Second, cfg.HandshakeTimeout)
	assert.True(t, cfg.SymmetricSeeds)
}

func TestConnConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ConnConfig)
	}{
		{"tiny buffer", func(c *ConnConfig) { c.ReceiveBufferSize = 1 }},
		{"negative timeout", func(c *ConnConfig) { c.HandshakeTimeout = -time.Second }},
		{"unknown curve", func(c *ConnConfig) { c.Curve = "p256" }},
		{"unknown cipher", func(c *ConnConfig) { c.Cipher = "rc4" }},
		{"negative queue", func(c *ConnConfig) { c.MaxQueuedBytes = -1 }},
		{"negative rate", func(c *ConnConfig) { c.SendRate = -1 }},
		{"rate without burst", func(c *ConnConfig) { c.SendRate = 10; c.SendBurst = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConnConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
		})
	}
	assert.NoError(t, DefaultConnConfig().Validate())
}

func TestDefaultConnConfigIsACopy(t *testing.T) {
	c := DefaultConnConfig()
	c.Curve = "mutated"
	assert.Equal(t, CurveSecp256k1, DefaultConnConfig().Curve)
}

func TestListenConfigValidate(t *testing.T) {
	l := DefaultListenConfig()
	assert.NoError(t, l.Validate())
	l.Address = ""
	assert.Error(t, l.Validate())
	l = DefaultListenConfig()
	l.MaxConnections = 0
	assert.Error(t, l.Validate())
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	CfgFile = ""

	require.NoError(t, InitConfig())
	_, err := os.Stat(filepath.Join(home, GOPEERCONN_BASE_DIR, "config.yaml"))
	assert.NoError(t, err)
}

func TestInitConfigReadsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("conn:\n  cipher: chacha20\n"), 0o600))

	viper.Reset()
	CfgFile = path
	defer func() { CfgFile = "" }()

	require.NoError(t, InitConfig())
	cfg, err := NewConnConfigFromViper()
	require.NoError(t, err)
	assert.Equal(t, CipherChaCha20, cfg.Cipher)
	assert.Equal(t, CurveSecp256k1, cfg.Curve)
}

func TestInitConfigMissingExplicitFile(t *testing.T) {
	viper.Reset()
	CfgFile = filepath.Join(t.TempDir(), "absent.yaml")
	defer func() { CfgFile = "" }()

	assert.Error(t, InitConfig())
}

func TestDumpYAML(t *testing.T) {
	viper.Reset()
	setDefaults()

	var buf bytes.Buffer
	require.NoError(t, DumpYAML(&buf))

	var doc map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "secp256k1", doc["conn"]["curve"])
	assert.Equal(t, "127.0.0.1:9876", doc["listen"]["address"])
}
