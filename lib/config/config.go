package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/go-i2p/go-peerconn/lib/util"
)

var (
	CfgFile string
	log     = logger.GetGoI2PLogger()
)

const GOPEERCONN_BASE_DIR = ".go-peerconn"

// InitConfig loads the configuration file into viper, creating the default
// file if none exists.
func InitConfig() error {
	if CfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(CfgFile)
	} else {
		viper.AddConfigPath(BuildConfigDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	return handleConfigFile()
}

func setDefaults() {
	d := defaultConnConfig
	viper.SetDefault("conn.receive_buffer_size", d.ReceiveBufferSize)
	viper.SetDefault("conn.handshake_timeout", d.HandshakeTimeout)
	viper.SetDefault("conn.curve", d.Curve)
	viper.SetDefault("conn.cipher", d.Cipher)
	viper.SetDefault("conn.symmetric_seeds", d.SymmetricSeeds)
	viper.SetDefault("conn.max_queued_bytes", d.MaxQueuedBytes)
	viper.SetDefault("conn.send_rate", d.SendRate)
	viper.SetDefault("conn.send_burst", d.SendBurst)

	l := defaultListenConfig
	viper.SetDefault("listen.address", l.Address)
	viper.SetDefault("listen.max_connections", l.MaxConnections)
}

// NewConnConfigFromViper creates a validated ConnConfig from current viper settings.
func NewConnConfigFromViper() (*ConnConfig, error) {
	c := &ConnConfig{
		ReceiveBufferSize: viper.GetInt("conn.receive_buffer_size"),
		HandshakeTimeout:  viper.GetDuration("conn.handshake_timeout"),
		Curve:             viper.GetString("conn.curve"),
		Cipher:            viper.GetString("conn.cipher"),
		SymmetricSeeds:    viper.GetBool("conn.symmetric_seeds"),
		MaxQueuedBytes:    viper.GetInt("conn.max_queued_bytes"),
		SendRate:          viper.GetInt("conn.send_rate"),
		SendBurst:         viper.GetInt("conn.send_burst"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewListenConfigFromViper creates a validated ListenConfig from current viper settings.
func NewListenConfigFromViper() (*ListenConfig, error) {
	l := &ListenConfig{
		Address:        viper.GetString("listen.address"),
		MaxConnections: viper.GetInt("listen.max_connections"),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// DumpYAML writes the effective settings to w.
func DumpYAML(w io.Writer) error {
	conn, err := NewConnConfigFromViper()
	if err != nil {
		return err
	}
	listen, err := NewListenConfigFromViper()
	if err != nil {
		return err
	}
	doc := struct {
		Conn   *ConnConfig   `yaml:"conn"`
		Listen *ListenConfig `yaml:"listen"`
	}{conn, listen}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return oops.Wrapf(err, "encoding configuration")
	}
	return enc.Close()
}

func createDefaultConfig(defaultConfigDir string) error {
	defaultConfigFile := filepath.Join(defaultConfigDir, "config.yaml")
	if err := os.MkdirAll(defaultConfigDir, 0o755); err != nil {
		return oops.Wrapf(err, "creating config directory %s", defaultConfigDir)
	}
	if err := viper.SafeWriteConfigAs(defaultConfigFile); err != nil {
		return oops.Wrapf(err, "writing default config file %s", defaultConfigFile)
	}
	log.Debugf("Created default configuration at: %s", defaultConfigFile)
	return nil
}

func handleConfigFile() error {
	err := viper.ReadInConfig()
	if err == nil {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
		return nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok && CfgFile == "" {
		return createDefaultConfig(BuildConfigDirPath())
	}
	return oops.Wrapf(err, "reading config file")
}

func BuildConfigDirPath() string {
	return filepath.Join(util.UserHome(), GOPEERCONN_BASE_DIR)
}
