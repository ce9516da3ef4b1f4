package l2

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/status-im/proxy-chain/cache"
	"github.com/status-im/proxy-chain/logging"
)

// Ensure RedisKeyDbClient implements cache.KeyDbClient
var _ cache.KeyDbClient = (*RedisKeyDbClient)(nil)

// RedisKeyDbClient wraps redis.Client to implement KeyDbClient interface
type RedisKeyDbClient struct {
	client *redis.Client
	logger logging.Logger
}

// ClientOption is a functional option for configuring RedisKeyDbClient
type ClientOption func(*RedisKeyDbClient)

// WithClientLogger sets the logger for RedisKeyDbClient
func WithClientLogger(logger logging.Logger) ClientOption {
	return func(r *RedisKeyDbClient) {
		r.logger = logger
	}
}

// NewRedisKeyDbClient connects to the KeyDB instance at cfg.URL and pings it
func NewRedisKeyDbClient(cfg *cache.KeyDBConfig, opts ...ClientOption) (*RedisKeyDbClient, error) {
	cfg.ApplyDefaults()

	redisOpts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOpts)

	r := &RedisKeyDbClient{
		client: client,
		logger: logging.NoopLogger{},
	}

	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Connection.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to KeyDB at %s: %w", redisOpts.Addr, err)
	}

	r.logger.Info("Connected to KeyDB",
		"address", redisOpts.Addr,
		"connect_timeout", cfg.Connection.ConnectTimeout,
		"pool_size", cfg.Keepalive.PoolSize)

	return r, nil
}

// redisOptions translates a redis://[:password@]host[:port][/db] URL and pool settings
func redisOptions(cfg *cache.KeyDBConfig) (*redis.Options, error) {
	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KeyDB URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return nil, fmt.Errorf("KeyDB URL %q has no host", cfg.URL)
	}

	port := parsedURL.Port()
	if port == "" {
		port = "6379"
	}

	redisOpts := &redis.Options{
		Addr:         net.JoinHostPort(parsedURL.Hostname(), port),
		DialTimeout:  cfg.Connection.ConnectTimeout,
		ReadTimeout:  cfg.Connection.ReadTimeout,
		WriteTimeout: cfg.Connection.SendTimeout,
		PoolSize:     cfg.Keepalive.PoolSize,
		IdleTimeout:  cfg.Keepalive.MaxIdleTimeout,
	}

	if parsedURL.User != nil {
		if password, ok := parsedURL.User.Password(); ok {
			redisOpts.Password = password
		}
	}

	if len(parsedURL.Path) > 1 {
		db, err := strconv.Atoi(parsedURL.Path[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid KeyDB database %q: %w", parsedURL.Path[1:], err)
		}
		redisOpts.DB = db
	}

	return redisOpts, nil
}

func (r *RedisKeyDbClient) Get(ctx context.Context, key string) *redis.StringCmd {
	return r.client.Get(ctx, key)
}

func (r *RedisKeyDbClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return r.client.Set(ctx, key, value, expiration)
}

func (r *RedisKeyDbClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return r.client.Del(ctx, keys...)
}

func (r *RedisKeyDbClient) Ping(ctx context.Context) *redis.StatusCmd {
	return r.client.Ping(ctx)
}

func (r *RedisKeyDbClient) Close() error {
	return r.client.Close()
}
