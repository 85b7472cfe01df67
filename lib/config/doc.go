// Package config provides configuration management for go-peerconn.
//
// Settings are read with viper from $HOME/.go-peerconn/config.yaml, or from
// the file named by CfgFile. A missing default file is created from the
// built-in defaults on first start.
//
// Connection settings live under the "conn" key:
//
//	conn:
//	  receive_buffer_size: 8192
//	  handshake_timeout: 10s
//	  curve: secp256k1        # or x25519
//	  cipher: aes-256-ctr     # or chacha20
//	  symmetric_seeds: false
//	  max_queued_bytes: 0     # 0 disables the limit
//	  send_rate: 0            # bytes per second, 0 disables shaping
//	  send_burst: 65536
//
// Use NewConnConfigFromViper to obtain a validated snapshot instead of
// reading viper keys directly.
package config
