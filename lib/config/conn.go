package config

import (
	"time"

	"github.com/go-i2p/logger"
)

// Supported curve and cipher names.
const (
	CurveSecp256k1 = "secp256k1"
	CurveX25519    = "x25519"

	CipherAES256CTR = "aes-256-ctr"
	CipherChaCha20  = "chacha20"
)

// ConnConfig holds the per-connection settings.
type ConnConfig struct {
	// ReceiveBufferSize is the capacity of the reusable read buffer.
	ReceiveBufferSize int `yaml:"receive_buffer_size"`
	// HandshakeTimeout bounds the key exchange; 0 disables the deadline.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	// Curve selects the key agreement scheme.
	Curve string `yaml:"curve"`
	// Cipher selects the stream cipher for both directions.
	Cipher string `yaml:"cipher"`
	// SymmetricSeeds seeds both directions from the secret alone.
	// Only for talking to peers that derive contexts that way.
	SymmetricSeeds bool `yaml:"symmetric_seeds"`
	// MaxQueuedBytes caps unsent payload bytes; 0 means unlimited.
	MaxQueuedBytes int `yaml:"max_queued_bytes"`
	// SendRate limits outgoing bytes per second; 0 means unlimited.
	SendRate int `yaml:"send_rate"`
	// SendBurst is the token bucket size used with SendRate.
	SendBurst int `yaml:"send_burst"`
}

// ListenConfig holds the demo listener settings.
type ListenConfig struct {
	Address        string `yaml:"address"`
	MaxConnections int    `yaml:"max_connections"`
}

// defaults for connections
var defaultConnConfig = ConnConfig{
	ReceiveBufferSize: 8192,
	HandshakeTimeout:  10 * time.Second,
	Curve:             CurveSecp256k1,
	Cipher:            CipherAES256CTR,
	SymmetricSeeds:    false,
	MaxQueuedBytes:    0,
	SendRate:          0,
	SendBurst:         64 * 1024,
}

var defaultListenConfig = ListenConfig{
	Address:        "127.0.0.1:9876",
	MaxConnections: 256,
}

// DefaultConnConfig returns a fresh copy of the connection defaults.
func DefaultConnConfig() *ConnConfig {
	c := defaultConnConfig
	return &c
}

// DefaultListenConfig returns a fresh copy of the listener defaults.
func DefaultListenConfig() *ListenConfig {
	c := defaultListenConfig
	return &c
}

// Validate checks that the settings are usable.
func (c *ConnConfig) Validate() error {
	log.WithFields(logger.Fields{
		"at":     "(*ConnConfig).Validate",
		"reason": "verification_requested",
	}).Debug("validating connection configuration")

	switch {
	case c.ReceiveBufferSize < 64:
		return newValidationError("conn.receive_buffer_size must be at least 64")
	case c.HandshakeTimeout < 0:
		return newValidationError("conn.handshake_timeout must not be negative")
	case c.Curve != CurveSecp256k1 && c.Curve != CurveX25519:
		return newValidationError("conn.curve must be secp256k1 or x25519, got " + c.Curve)
	case c.Cipher != CipherAES256CTR && c.Cipher != CipherChaCha20:
		return newValidationError("conn.cipher must be aes-256-ctr or chacha20, got " + c.Cipher)
	case c.MaxQueuedBytes < 0:
		return newValidationError("conn.max_queued_bytes must not be negative")
	case c.SendRate < 0:
		return newValidationError("conn.send_rate must not be negative")
	case c.SendRate > 0 && c.SendBurst < 1:
		return newValidationError("conn.send_burst must be at least 1 when conn.send_rate is set")
	}
	return nil
}

// Validate checks that the listener settings are usable.
func (l *ListenConfig) Validate() error {
	if l.Address == "" {
		return newValidationError("listen.address must not be empty")
	}
	if l.MaxConnections < 1 {
		return newValidationError("listen.max_connections must be at least 1")
	}
	return nil
}

// validationError is returned when configuration validation fails
type validationError struct {
	message string
}

func newValidationError(message string) error {
	log.WithField("reason", message).Error("Configuration validation failed")
	return &validationError{message: message}
}

func (e *validationError) Error() string {
	return "configuration validation failed: " + e.message
}
