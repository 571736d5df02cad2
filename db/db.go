package db

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The queries object for interacting with database and cache
type Queries struct {
	DB    *gorm.DB
	Cache *redis.Client
}

// Constructor for Queries
func NewQueries() *Queries {
	return &Queries{}
}

// Connect to Postgres
func (queries *Queries) ConnectDB(connStr string) error {
	conn, err := gorm.Open(postgres.Open(connStr))
	if err != nil {
		return err
	}

	queries.DB = conn
	return nil
}

// UniqActiveBooking is the partial unique index that backstops the
// one-active-booking-per-session invariant at the storage layer. The
// application check in the admission transaction is the fast path; this
// index is the authority under concurrent inserts.
const UniqActiveBooking = "uniq_bookings_active_session"

// Run postgres database auto migration, then the partial index gorm cannot
// express through tags.
func (queries *Queries) AutoMigration() error {
	err := queries.DB.AutoMigrate(
		&User{},
		&PricingRule{},
		&Location{},
		&Quest{},
		&QuestSession{},
		&Booking{},
	)
	if err != nil {
		return err
	}

	return queries.DB.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + UniqActiveBooking +
			` ON bookings (quest_session_id) WHERE status IN ('pending', 'confirmed')`,
	).Error
}

// Connect to Redis
func (queries *Queries) ConnectRedis(ctx context.Context, opt *redis.Options) error {
	queries.Cache = redis.NewClient(opt)
	_, err := queries.Cache.Ping(ctx).Result()
	if err != nil {
		return err
	}
	return nil
}

// Set cache value. If expired = 0, it will set the expiration time to 1 hour instead of no expiration
func (queries *Queries) SetCache(ctx context.Context, key string, val string, expired time.Duration) {
	if expired == 0 {
		expired = time.Hour
	}
	queries.Cache.Set(ctx, key, val, expired)
}

type ErrorCacheMiss struct {
	Message string
}

func (e *ErrorCacheMiss) Error() string {
	return "cache miss"
}

// IsCacheMiss reports whether err is a cache miss rather than a Redis failure
func (queries *Queries) IsCacheMiss(err error) bool {
	var miss *ErrorCacheMiss
	return errors.As(err, &miss)
}

// Get cache value
func (queries *Queries) GetCache(ctx context.Context, key string) (string, error) {
	val, err := queries.Cache.Get(ctx, key).Result()

	// If actually found value, return the val
	if err == nil {
		return val, nil
	}

	// If redis error
	if err != redis.Nil {
		return "", err
	}

	// If the value of the key simply don't exists, or expired
	return "", &ErrorCacheMiss{Message: "cache miss"}
}

// Delete cache value. Used for one-shot tokens that must not be replayable.
func (queries *Queries) DeleteCache(ctx context.Context, key string) {
	queries.Cache.Del(ctx, key)
}
