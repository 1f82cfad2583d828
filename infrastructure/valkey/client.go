package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/AzielCF/az-agent/core/config"
	valkeylib "github.com/valkey-io/valkey-go"
)

const connectTimeout = 5 * time.Second

// Config describes how to reach the Valkey server shared by all instances.
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// ConfigFrom maps the database section of the app config to a client Config.
func ConfigFrom(db coreconfig.DatabaseConfig) Config {
	return Config{
		Address:   db.ValkeyAddress,
		Password:  db.ValkeyPassword,
		DB:        db.ValkeyDB,
		KeyPrefix: db.ValkeyKeyPrefix,
	}
}

// Client carries the connection and the key namespace used for booking
// locks and websocket fanout.
type Client struct {
	inner  valkeylib.Client
	prefix string
}

// NewClient connects and pings once; a server that does not answer within
// ConnectTimeout is reported as an error so callers can fall back to local mode.
func NewClient(cfg Config) (*Client, error) {
	inner, err := valkeylib.NewClient(valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = connectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c := &Client{inner: inner, prefix: strings.TrimSuffix(cfg.KeyPrefix, ":")}
	if err := c.Ping(ctx); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey at %s: %w", cfg.Address, err)
	}
	return c, nil
}

// Inner exposes the raw client for command builders.
func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts under the configured prefix:
// Key("lock", "booking", "agent-1") -> "azagent:lock:booking:agent-1".
func (c *Client) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return strings.Join(append([]string{c.prefix}, parts...), ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsNil reports a missing key or a failed NX condition.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
