package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueMealPlan = "queue:meal_plan"

	jobTypeGenerate = "meal_plan.generate"
	popTimeout      = 5 * time.Second
)

// JobProcessor runs one generation job. Losing the claim to another runner is
// not an error.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID uuid.UUID) error
}

// Job is the envelope pushed onto the queue.
type Job struct {
	Type  string    `json:"type"`
	JobID uuid.UUID `json:"job_id"`
}

// Dispatcher hands freshly created jobs to the worker pool. Without Redis it runs
// them in a goroutine instead.
type Dispatcher struct {
	rdb *redis.Client

	mu        sync.RWMutex
	processor JobProcessor
	inflight  sync.WaitGroup
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Bind sets the processor used by the in-process fallback. The meal plan service
// both enqueues and processes jobs, so it is bound after construction.
func (d *Dispatcher) Bind(p JobProcessor) {
	d.mu.Lock()
	d.processor = p
	d.mu.Unlock()
}

func (d *Dispatcher) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	if d.rdb != nil {
		encoded, err := json.Marshal(Job{Type: jobTypeGenerate, JobID: jobID})
		if err != nil {
			return err
		}
		return d.rdb.LPush(ctx, QueueMealPlan, encoded).Err()
	}

	d.mu.RLock()
	p := d.processor
	d.mu.RUnlock()
	if p == nil {
		// nothing bound yet; the poller will find the job
		return nil
	}
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		// the request that created the job may be gone already
		runJob(context.Background(), nil, p, jobID)
	}()
	return nil
}

// Wait blocks until in-process jobs started by Enqueue have finished.
func (d *Dispatcher) Wait() { d.inflight.Wait() }

// StartWorkerPool launches numWorkers goroutines consuming QueueMealPlan.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, p JobProcessor, numWorkers int) {
	if rdb == nil {
		log.Info().Msg("worker pool: redis not configured, relying on in-process dispatch and the poller")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, p, i)
	}
	log.Info().Int("workers", numWorkers).Msg("worker pool: started")
}

func runWorker(ctx context.Context, rdb *redis.Client, p JobProcessor, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker pool: shutting down")
			return
		default:
		}

		result, err := rdb.BRPop(ctx, popTimeout, QueueMealPlan).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("worker pool: pop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		handleMessage(ctx, rdb, p, result[1])
	}
}

func handleMessage(ctx context.Context, rdb *redis.Client, p JobProcessor, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Str("queue", QueueMealPlan).Msg("worker pool: failed to unmarshal job")
		return
	}
	if job.Type != jobTypeGenerate {
		log.Warn().Str("type", job.Type).Msg("worker pool: unknown job type")
		return
	}
	runJob(ctx, rdb, p, job.JobID)
}

// runJob processes a job and parks failures in the dead letter queue. The job row
// itself already carries the FAILED state.
func runJob(ctx context.Context, rdb *redis.Client, p JobProcessor, jobID uuid.UUID) {
	if err := p.ProcessJob(ctx, jobID); err != nil {
		SendToDLQ(ctx, rdb, QueueMealPlan, jobID, err.Error())
	}
}
