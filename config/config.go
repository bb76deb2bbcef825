// Package config resolves the knobs the original firmware fixed at
// build time. They come from the environment so one binary can serve
// several deployments.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
)

// Config carries every tunable of the server and client cores.
type Config struct {
	// ClientBufferSize is the per-connection transient/vault capacity.
	// Must be a power of two above 32.
	ClientBufferSize int `env:"PEBBLE_CLIENT_BUFFER_SIZE" envDefault:"1024"`
	// MaxClients is the fixed number of client slots (the pool holds
	// MaxClients+1 sockets, listener included).
	MaxClients int `env:"PEBBLE_MAX_CLIENTS" envDefault:"4"`
	// ClientTTL is the keep-alive budget in loop ticks.
	ClientTTL int `env:"PEBBLE_CLIENT_TTL" envDefault:"255"`
	// Port is the listening port of the demo server entry point.
	Port int `env:"PEBBLE_PORT" envDefault:"8080"`
	// UseTLSClient enables https support in the outgoing client.
	UseTLSClient bool `env:"PEBBLE_TLS_CLIENT" envDefault:"false"`
	// RFCStatusLine switches the response status line to the RFC form
	// (single CRLF before the headers). The default keeps the historic
	// form with a blank line after the status, which the original wire
	// dumps encode.
	RFCStatusLine bool `env:"PEBBLE_RFC_STATUS_LINE" envDefault:"false"`
	// ServiceName labels telemetry.
	ServiceName string `env:"PEBBLE_SERVICE_NAME" envDefault:"pebble"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints.
func (c Config) Validate() error {
	if c.ClientBufferSize <= 32 || c.ClientBufferSize&(c.ClientBufferSize-1) != 0 {
		return errors.Newf("client buffer size %d is not a power of two above 32", c.ClientBufferSize)
	}
	if c.MaxClients < 1 || c.MaxClients > 31 {
		return errors.Newf("max clients %d out of range [1,31]", c.MaxClients)
	}
	if c.ClientTTL < 1 || c.ClientTTL > 255 {
		return errors.Newf("client ttl %d out of range [1,255]", c.ClientTTL)
	}
	return nil
}
