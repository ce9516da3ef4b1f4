package cache

import "time"

// Config represents the response cache configuration
type Config struct {
	TTL   time.Duration    `yaml:"ttl" json:"ttl"`
	L1    BigCacheConfig   `yaml:"l1" json:"l1"`
	L2    KeyDBConfig      `yaml:"l2" json:"l2"`
	Multi MultiCacheConfig `yaml:"multi" json:"multi"`
}

func (c *Config) ApplyDefaults() {
	if c.TTL == 0 {
		c.TTL = 60 * time.Second
	}
	c.L1.ApplyDefaults()
	c.L2.ApplyDefaults()
}

// Enabled reports whether at least one cache level is enabled
func (c *Config) Enabled() bool {
	return c.L1.Enabled || c.L2.Enabled
}

// BigCacheConfig represents BigCache (L1) configuration
type BigCacheConfig struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	Size         int  `yaml:"size" json:"size"` // MB
	MaxEntrySize int  `yaml:"max_entry_size" json:"max_entry_size"`
	Shards       int  `yaml:"shards" json:"shards"` // must be power of 2
}

func (c *BigCacheConfig) ApplyDefaults() {
	if c.Size == 0 {
		c.Size = 100
	}
	if c.MaxEntrySize == 0 {
		c.MaxEntrySize = 1048576
	}
	if c.Shards == 0 {
		c.Shards = 256
	}
}

// KeyDBConfig represents KeyDB (L2) cache configuration
type KeyDBConfig struct {
	Enabled    bool             `yaml:"enabled" json:"enabled"`
	URL        string           `yaml:"url" json:"url"`
	Connection ConnectionConfig `yaml:"connection" json:"connection"`
	Keepalive  KeepaliveConfig  `yaml:"keepalive" json:"keepalive"`
}

func (c *KeyDBConfig) ApplyDefaults() {
	if c.URL == "" {
		c.URL = "redis://localhost:6379/0"
	}
	if c.Connection.ConnectTimeout == 0 {
		c.Connection.ConnectTimeout = 1000 * time.Millisecond
	}
	if c.Connection.SendTimeout == 0 {
		c.Connection.SendTimeout = 1000 * time.Millisecond
	}
	if c.Connection.ReadTimeout == 0 {
		c.Connection.ReadTimeout = 1000 * time.Millisecond
	}

	if c.Keepalive.PoolSize == 0 {
		c.Keepalive.PoolSize = 10
	}
	if c.Keepalive.MaxIdleTimeout == 0 {
		c.Keepalive.MaxIdleTimeout = 10000 * time.Millisecond
	}
}

type ConnectionConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	SendTimeout    time.Duration `yaml:"send_timeout" json:"send_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
}

// KeepaliveConfig represents connection pool settings
type KeepaliveConfig struct {
	PoolSize       int           `yaml:"pool_size" json:"pool_size"`
	MaxIdleTimeout time.Duration `yaml:"max_idle_timeout" json:"max_idle_timeout"`
}

type MultiCacheConfig struct {
	EnablePropagation bool `yaml:"enable_propagation" json:"enable_propagation"`
}
