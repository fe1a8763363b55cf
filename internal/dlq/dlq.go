package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dpe27/esk-upload/config"
	"github.com/dpe27/esk-upload/internal/job"
	"github.com/dpe27/esk-upload/pkg/log"
	"github.com/dpe27/esk-upload/pkg/utils"
)

const queueKey = "esk-upload:dlq"

var ErrEmpty = errors.New("dead letter queue is empty")

type DLQJob struct {
	ID         string        `json:"id"`
	FailedJob  job.UploadJob `json:"failed_job"`
	Error      string        `json:"error"`
	RetryCount int           `json:"retry_count"`
	LastTried  time.Time     `json:"last_tried"`
}

// NewDLQJob records a failed upload. It will be replayed MaxRetries+1 times
// at most before it is dropped.
func NewDLQJob(failed job.UploadJob, err error, lastTried time.Time) DLQJob {
	return DLQJob{
		ID:         uuid.NewString(),
		FailedJob:  failed,
		Error:      err.Error(),
		RetryCount: failed.MaxRetries,
		LastTried:  lastTried,
	}
}

type DeadLetterQueue interface {
	Push(ctx context.Context, job DLQJob) error
	// Pop waits for the next job and returns ErrEmpty when none arrived
	// within the poll timeout.
	Pop(ctx context.Context) (DLQJob, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context)
}

type redisDLQ struct {
	logger      *log.Logger
	client      *redis.Client
	pollTimeout time.Duration
}

func NewDeadLetterQueue(cfg *config.Config) DeadLetterQueue {
	logger := log.With("service", "dlq")
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password:        cfg.Redis.Password,
		ClientName:      cfg.Redis.ClientName,
		Username:        cfg.Redis.Username,
		MaxRetries:      cfg.Redis.MaxRetries,
		PoolSize:        cfg.Redis.PoolSize,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxActiveConns,
		ConnMaxIdleTime: time.Duration(cfg.Redis.MaxIdleTime) * time.Minute,
		ConnMaxLifetime: time.Duration(cfg.Redis.MaxLifeTime) * time.Minute,
	})

	return &redisDLQ{
		logger:      logger,
		client:      client,
		pollTimeout: cfg.Upload.DLQPollTimeout,
	}
}

func (r *redisDLQ) Push(ctx context.Context, job DLQJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		r.logger.Error(ctx, utils.ErrorMarshalJobBody, "error", err)
		return err
	}

	r.logger.Info(ctx, "Pushing job to DLQ", "job_id", job.ID, "name", job.FailedJob.Name)
	if err := r.client.LPush(ctx, queueKey, data).Err(); err != nil {
		r.logger.Error(ctx, "Failed to push job to DLQ", "error", err)
		return err
	}
	return nil
}

func (r *redisDLQ) Pop(ctx context.Context) (DLQJob, error) {
	var job DLQJob

	// BRPOP replies with [key, value]
	res, err := r.client.BRPop(ctx, r.pollTimeout, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return job, ErrEmpty
		}
		r.logger.Error(ctx, "Failed to pop job from DLQ", "error", err)
		return job, err
	}

	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		r.logger.Error(ctx, utils.ErrorUnmarshalJobBody, "error", err)
		return job, err
	}

	r.logger.Info(ctx, "Popped job from DLQ", "job_id", job.ID)
	return job, nil
}

func (r *redisDLQ) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisDLQ) Close(ctx context.Context) {
	if err := r.client.Close(); err != nil {
		r.logger.Error(ctx, "Failed to close Redis connection", "error", err)
	} else {
		r.logger.Info(ctx, "Redis connection closed successfully")
	}
}
