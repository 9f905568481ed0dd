package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maisonarome/storefront/models"
)

// CartStore abstracts cart persistence. The cart service selects a store by
// session kind: guest carts are keyed by session token with a short TTL,
// user carts by user ID with a long one.
type CartStore interface {
	Get(ctx context.Context, ownerKey string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, ownerKey string) error
}

// RedisCartStore stores each cart as a JSON blob under a prefixed key.
type RedisCartStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewGuestCartStore returns the store for anonymous session carts.
func NewGuestCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, prefix: "cart:guest:", ttl: ttl}
}

// NewUserCartStore returns the store for authenticated user carts.
func NewUserCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, prefix: "cart:user:", ttl: ttl}
}

func (r *RedisCartStore) key(ownerKey string) string {
	return r.prefix + ownerKey
}

// Get returns the cart for ownerKey, or (nil, nil) when none exists.
func (r *RedisCartStore) Get(ctx context.Context, ownerKey string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.key(ownerKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

// Save writes the cart back with a refreshed TTL.
func (r *RedisCartStore) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, r.key(cart.OwnerKey), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the cart entirely.
func (r *RedisCartStore) Delete(ctx context.Context, ownerKey string) error {
	if err := r.client.Del(ctx, r.key(ownerKey)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
