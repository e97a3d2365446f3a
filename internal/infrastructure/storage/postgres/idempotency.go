package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"rtoflow/internal/core/apperror"
)

const idempotencyTable = "sys_idempotency"

// staleAfter is how long a pending key may sit before another request reclaims it.
const staleAfter = 2 * time.Minute

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// IdempotencyRecord stores the result of an idempotent operation.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  *int              `db:"response_status"`
	ContentType *string           `db:"response_content_type"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	ExpiresAt   time.Time         `db:"expires_at"`
	Inserted    bool              `db:"inserted"`
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IdempotencyStore manages idempotency keys for batch submissions.
// Opening a return is not idempotent on the platform, so a retried request must replay.
type IdempotencyStore struct {
	db      DB
	builder squirrel.StatementBuilderType
	ttl     time.Duration
	now     func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(db DB, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var recordColumns = []string{
	"idempotency_key", "operation", "status", "request_hash", "response",
	"response_status", "response_content_type", "created_at", "updated_at", "expires_at",
}

func (s *IdempotencyStore) acquireQuery(key, operation, requestHash string, now time.Time) squirrel.InsertBuilder {
	return s.builder.
		Insert(idempotencyTable).
		Columns("idempotency_key", "operation", "status", "request_hash", "created_at", "updated_at", "expires_at").
		Values(key, operation, IdempotencyStatusPending, requestHash, now, now, now.Add(s.ttl)).
		// The no-op update makes RETURNING yield the existing row; xmax = 0 only for a fresh insert.
		Suffix("ON CONFLICT (idempotency_key) DO UPDATE SET expires_at = GREATEST(" +
			idempotencyTable + ".expires_at, EXCLUDED.expires_at) RETURNING " +
			strings.Join(recordColumns, ", ") + ", (xmax = 0) AS inserted")
}

// AcquireKey attempts to acquire an idempotency key.
// Returns:
//   - (nil, nil) if key acquired successfully
//   - (replay, nil) if the operation already finished
//   - (nil, error) if the key is in flight or was used for a different request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()

	sql, args, err := s.acquireQuery(key, operation, requestHash, now).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build acquire query: %w", err)
	}

	var record IdempotencyRecord
	if err := pgxscan.Get(ctx, s.db, &record, sql, args...); err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if record.Inserted {
		return nil, nil
	}

	if record.Operation != operation || record.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", record.Operation).
			WithDetail("request_operation", operation)
	}

	switch record.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return record.replay(), nil

	case IdempotencyStatusPending:
		if now.Sub(record.UpdatedAt) <= staleAfter {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		reclaimed, err := s.reclaim(ctx, key, record.UpdatedAt, now)
		if err != nil {
			return nil, err
		}
		if !reclaimed {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		return nil, nil
	}

	return nil, fmt.Errorf("idempotency key %s has unknown status %q", key, record.Status)
}

func (s *IdempotencyStore) reclaimQuery(key string, seenUpdatedAt, now time.Time) squirrel.UpdateBuilder {
	return s.builder.
		Update(idempotencyTable).
		Set("updated_at", now).
		Where(squirrel.Eq{
			"idempotency_key": key,
			"status":          IdempotencyStatusPending,
			"updated_at":      seenUpdatedAt,
		})
}

// reclaim takes over a stale pending key. Only one concurrent caller wins.
func (s *IdempotencyStore) reclaim(ctx context.Context, key string, seenUpdatedAt, now time.Time) (bool, error) {
	sql, args, err := s.reclaimQuery(key, seenUpdatedAt, now).ToSql()
	if err != nil {
		return false, fmt.Errorf("build reclaim query: %w", err)
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("reclaim stale key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *IdempotencyStore) finishQuery(key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) squirrel.UpdateBuilder {
	return s.builder.
		Update(idempotencyTable).
		SetMap(map[string]any{
			"status":                status,
			"response":              body,
			"response_status":       statusCode,
			"response_content_type": contentType,
			"updated_at":            s.now(),
		}).
		Where(squirrel.Eq{"idempotency_key": key})
}

// CompleteKey stores a successful response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := marshalResponse(response)
	if err != nil {
		return err
	}
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// FailKey stores an error response for replay.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := marshalResponse(response)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	sql, args, err := s.finishQuery(key, status, statusCode, contentType, body).ToSql()
	if err != nil {
		return fmt.Errorf("build finish query: %w", err)
	}
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) cleanupQuery(now time.Time) squirrel.DeleteBuilder {
	return s.builder.
		Delete(idempotencyTable).
		Where(squirrel.Lt{"expires_at": now})
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	sql, args, err := s.cleanupQuery(s.now()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup query: %w", err)
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *IdempotencyRecord) replay() *IdempotencyReplay {
	replay := &IdempotencyReplay{StatusCode: 200, ContentType: "application/json", Body: r.Response}
	if r.StatusCode != nil && *r.StatusCode != 0 {
		replay.StatusCode = *r.StatusCode
	}
	if r.ContentType != nil && *r.ContentType != "" {
		replay.ContentType = *r.ContentType
	}
	return replay
}

func marshalResponse(response any) ([]byte, error) {
	if response == nil {
		return nil, nil
	}
	b, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return b, nil
}
