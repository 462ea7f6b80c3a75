package registry

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/repositories"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// DefaultRedisHashKey is the hash holding every record, one field per patient key
const DefaultRedisHashKey = "triage:patients"

// RedisRegistry stores records as JSON values of a single Redis hash, so
// every replica of the API sees the same registry.
type RedisRegistry struct {
	client  redis.Cmdable
	hashKey string
}

// NewRedisRegistry creates a registry backed by the given Redis client
func NewRedisRegistry(client redis.Cmdable, hashKey string) repositories.PatientRepository {
	if hashKey == "" {
		hashKey = DefaultRedisHashKey
	}
	return &RedisRegistry{client: client, hashKey: hashKey}
}

// Upsert writes the record into the hash field named by its key
func (r *RedisRegistry) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewSerializationError("failed to encode patient record "+record.Key, err)
	}
	if err := r.client.HSet(ctx, r.hashKey, record.Key, data).Err(); err != nil {
		return apperrors.NewExternalError("failed to store patient record", err)
	}
	return nil
}

// List decodes every hash field; entries that fail to decode are logged and skipped
func (r *RedisRegistry) List(ctx context.Context) ([]*entities.PatientRecord, error) {
	values, err := r.client.HGetAll(ctx, r.hashKey).Result()
	if err != nil {
		return nil, apperrors.NewExternalError("failed to list patient records", err)
	}

	out := make([]*entities.PatientRecord, 0, len(values))
	for key, raw := range values {
		var rec entities.PatientRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(apperrors.NewSerializationError("undecodable patient record", err)).
				Str("patient_key", key).
				Msg("Skipping patient record")
			continue
		}
		out = append(out, &rec)
	}

	sortForDashboard(out)
	return out, nil
}

// Clear deletes the whole hash
func (r *RedisRegistry) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.hashKey).Err(); err != nil {
		return apperrors.NewExternalError("failed to clear patient records", err)
	}
	return nil
}

// Count returns the number of hash fields
func (r *RedisRegistry) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.hashKey).Result()
	if err != nil {
		return 0, apperrors.NewExternalError("failed to count patient records", err)
	}
	return int(n), nil
}
