package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"farm_store/internal/cart"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("redis: key not found")

type Client struct {
	rdb *redis.Client
}

type SessionData struct {
	AdminID   uint      `json:"admin_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func Initialize(redisURL string) (*Client, error) {
	// Parse connection URL
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing go-redis client.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Admin session management
func (c *Client) SetSession(ctx context.Context, token string, data *SessionData, ttl time.Duration) error {
	return c.SetJSON(ctx, "session:"+token, data, ttl)
}

func (c *Client) GetSession(ctx context.Context, token string) (*SessionData, error) {
	var session SessionData
	if err := c.GetJSON(ctx, "session:"+token, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) DeleteSession(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, "session:"+token).Err()
}

// JSON values (catalog cache)
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, jsonData, ttl).Err()
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Cart storage

// CartStore keeps shopper carts as JSON documents that expire after ttl of
// inactivity.
type CartStore struct {
	client *Client
	ttl    time.Duration
}

var _ cart.Store = (*CartStore)(nil)

func NewCartStore(client *Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(cartID string) string {
	return "cart:" + cartID
}

func (s *CartStore) Load(ctx context.Context, cartID string) (*cart.Cart, error) {
	// Missing or expired carts start empty
	c := cart.New()
	err := s.client.GetJSON(ctx, cartKey(cartID), c)
	if errors.Is(err, ErrNotFound) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return c, nil
}

func (s *CartStore) Save(ctx context.Context, cartID string, c *cart.Cart) error {
	return s.client.SetJSON(ctx, cartKey(cartID), c, s.ttl)
}

func (s *CartStore) Delete(ctx context.Context, cartID string) error {
	return s.client.Delete(ctx, cartKey(cartID))
}
