package swapcfg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHealthCheckTimeout = 5 * time.Minute
	defaultLogLevel           = "debug"
)

// Config aggregates the model registry with the supervisor's global
// settings and serializes to the YAML document llama-swap consumes.
type Config struct {
	ListenPort         int
	HealthCheckTimeout time.Duration
	LogLevel           string

	models map[string]Model
}

// New creates a config listening on listenPort with default health-check
// timeout (5m) and log level ("debug"). The port must be a valid TCP port.
func New(listenPort int) (*Config, error) {
	if listenPort < 1 || listenPort > 65535 {
		return nil, fmt.Errorf("listen port out of range: %d", listenPort)
	}
	return &Config{
		ListenPort:         listenPort,
		HealthCheckTimeout: defaultHealthCheckTimeout,
		LogLevel:           defaultLogLevel,
		models:             make(map[string]Model),
	}, nil
}

// AddModel inserts or overwrites the entry under m.Name (last write wins)
// and returns the receiver so additions chain.
func (c *Config) AddModel(m Model) *Config {
	c.models[m.Name] = m
	return c
}

// Model looks up an entry by name.
func (c *Config) Model(name string) (Model, bool) {
	m, ok := c.models[name]
	return m, ok
}

// Len reports the number of registered models.
func (c *Config) Len() int { return len(c.models) }

// ToYAML serializes the config. The health-check timeout is emitted in whole
// seconds. Serialization is pure: same config, same document (yaml marshals
// map keys in sorted order).
func (c *Config) ToYAML() (string, error) {
	models := make(map[string]any, len(c.models))
	for name, m := range c.models {
		models[name] = m.doc()
	}
	payload := map[string]any{
		"healthCheckTimeout": int(c.HealthCheckTimeout.Seconds()),
		"logLevel":           c.LogLevel,
		"models":             models,
	}
	b, err := yaml.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal supervisor config: %w", err)
	}
	return string(b), nil
}

// WriteFile renders the document and persists it for the supervisor binary.
func (c *Config) WriteFile(path string) error {
	doc, err := c.ToYAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}

// ListenAddr formats the bind address handed to the supervisor's -listen flag.
func (c *Config) ListenAddr(host string) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, c.ListenPort)
}
