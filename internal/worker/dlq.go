package worker

// Failed generation jobs are copied to dlq:{queue} for manual inspection. The
// authoritative FAILED state lives on the job row.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

type DLQEntry struct {
	OriginalQueue string    `json:"original_queue"`
	JobID         uuid.UUID `json:"job_id"`
	Reason        string    `json:"reason"`
	FailedAt      string    `json:"failed_at"` // RFC 3339
}

// SendToDLQ records a failed job. Without Redis the failure is only logged.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobID uuid.UUID, reason string) {
	logger := log.Warn().Str("queue", queue).Str("job_id", jobID.String()).Str("reason", reason)
	if rdb == nil {
		logger.Msg("dlq: job failed")
		return
	}

	data, err := json.Marshal(DLQEntry{
		OriginalQueue: queue,
		JobID:         jobID,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}
	logger.Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
