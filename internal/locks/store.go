package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const redisLockScope = "product"

// Store holds one expiring lock per product.
type Store interface {
	TryAcquire(ctx context.Context, productID uuid.UUID, token string, ttl time.Duration, now time.Time) (bool, error)
	Release(ctx context.Context, productID uuid.UUID, token string) error
}

// GormStore keeps lock records in the inventory_locks table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) (*GormStore, error) {
	if conn == nil {
		return nil, errors.New("db required for lock store")
	}
	return &GormStore{db: conn}, nil
}

// TryAcquire clears an expired record for the product, then inserts a fresh
// one. The primary key makes the insert the point of mutual exclusion.
func (s *GormStore) TryAcquire(ctx context.Context, productID uuid.UUID, token string, ttl time.Duration, now time.Time) (bool, error) {
	conn := s.db.WithContext(ctx)
	err := conn.
		Where("product_id = ? AND expires_at <= ?", productID, now).
		Delete(&models.InventoryLock{}).Error
	if err != nil {
		return false, fmt.Errorf("clear expired lock: %w", err)
	}

	res := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.InventoryLock{
		ProductID: productID,
		LockToken: token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if res.Error != nil {
		return false, fmt.Errorf("insert lock: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) Release(ctx context.Context, productID uuid.UUID, token string) error {
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND lock_token = ?", productID, token).
		Delete(&models.InventoryLock{}).Error
	if err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

// PurgeExpired removes lock rows whose holders never released them.
func (s *GormStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.InventoryLock{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired locks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RedisStore keeps locks as expiring keys.
type RedisStore struct {
	client redis.LockStore
}

func NewRedisStore(client redis.LockStore) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock store")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) TryAcquire(ctx context.Context, productID uuid.UUID, token string, ttl time.Duration, _ time.Time) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.client.LockKey(redisLockScope, productID.String()), token, ttl)
	if err != nil {
		return false, fmt.Errorf("setnx lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, productID uuid.UUID, token string) error {
	if _, err := s.client.CompareAndDelete(ctx, s.client.LockKey(redisLockScope, productID.String()), token); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
