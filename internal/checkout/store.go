// internal/checkout/store.go
package checkout

import (
	"context"
	stderrors "errors"
	"time"

	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix      = "checkout:session:"
	DefaultSessionTTL     = 24 * time.Hour
	DefaultMaxSaveRetries = 3
)

type StoreOptions struct {
	KeyPrefix      string
	TTL            time.Duration
	MaxSaveRetries int
	Logger         logger.Logger
}

// Store keeps one versioned document per checkout session. Every write is
// checked against the version the caller read, so concurrent tabs surface
// as SESSION_VERSION_CONFLICT instead of overwriting each other.
type Store struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	maxRetries int
	logger     logger.Logger
	now        func() time.Time
}

func NewStore(client redis.UniversalClient, opts StoreOptions) *Store {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.MaxSaveRetries <= 0 {
		opts.MaxSaveRetries = DefaultMaxSaveRetries
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Store{
		client:     client,
		prefix:     opts.KeyPrefix,
		ttl:        opts.TTL,
		maxRetries: opts.MaxSaveRetries,
		logger:     opts.Logger,
		now:        time.Now,
	}
}

func (st *Store) key(id string) string {
	return st.prefix + id
}

// Create stores a new session at version 1, assigning an id when it has
// none.
func (st *Store) Create(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return st.Save(ctx, s, 0)
}

func (st *Store) Load(ctx context.Context, id string) (*Session, error) {
	data, err := st.client.Get(ctx, st.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.NewSessionNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	s, err := DecodeSession(data)
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	return s, nil
}

// Save writes s if the stored version still equals expectedVersion (0 means
// the session must not exist yet). On success s carries the new version.
func (st *Store) Save(ctx context.Context, s *Session, expectedVersion int64) error {
	key := st.key(s.ID)

	err := st.client.Watch(ctx, func(tx *redis.Tx) error {
		actual, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if actual != expectedVersion {
			if actual == 0 {
				return errors.NewSessionNotFoundError(s.ID)
			}
			return errors.NewSessionVersionConflictError(s.ID, expectedVersion, actual)
		}

		next := *s
		next.Version = expectedVersion + 1
		next.UpdatedAt = st.now().UTC()
		data, err := next.Encode()
		if err != nil {
			return errors.NewInternalError(err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, st.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		s.Version = next.Version
		s.SchemaVersion = next.SchemaVersion
		s.UpdatedAt = next.UpdatedAt
		return nil
	}, key)

	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, redis.TxFailedErr):
		// Another writer committed between WATCH and EXEC.
		metrics.CheckoutSessionConflicts.Inc()
		return errors.NewSessionVersionConflictError(s.ID, expectedVersion, -1)
	case errors.HasCode(err, errors.ErrCodeSessionVersionConflict):
		metrics.CheckoutSessionConflicts.Inc()
		return err
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewSessionStoreFailedError(err)
}

func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	current, err := DecodeSession(data)
	if err != nil {
		return 0, err
	}
	return current.Version, nil
}

// Update loads the session, applies fn and saves it, retrying from a fresh
// read when another writer got there first. An error from fn aborts without
// writing.
func (st *Store) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	var lastErr error
	for attempt := 1; attempt <= st.maxRetries; attempt++ {
		s, err := st.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := s.Version
		if err := fn(s); err != nil {
			return nil, err
		}

		err = st.Save(ctx, s, expected)
		if err == nil {
			return s, nil
		}
		if !errors.HasCode(err, errors.ErrCodeSessionVersionConflict) {
			return nil, err
		}

		lastErr = err
		st.logger.Warn("checkout session changed concurrently, retrying", map[string]interface{}{
			"sessionId": id,
			"attempt":   attempt,
		})
	}
	return nil, lastErr
}

func (st *Store) Delete(ctx context.Context, id string) error {
	if err := st.client.Del(ctx, st.key(id)).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

// TTL returns the remaining lifetime of a stored session.
func (st *Store) TTL(ctx context.Context, id string) (time.Duration, error) {
	d, err := st.client.TTL(ctx, st.key(id)).Result()
	if err != nil {
		return 0, errors.NewSessionStoreFailedError(err)
	}
	if d < 0 {
		return 0, errors.NewSessionNotFoundError(id)
	}
	return d, nil
}
