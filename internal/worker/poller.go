package worker

import (
	"context"
	"sync"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultPollInterval = 5 * time.Second
	pollBatchSize       = 5
)

// PendingJobs is what the poller needs from the meal plan service.
type PendingJobs interface {
	JobProcessor
	NextPendingJob(ctx context.Context) (uuid.UUID, bool, error)
}

type PollerConfig struct {
	Jobs     PendingJobs
	Interval time.Duration
	// Breaker, when set, pauses polling while the model is failing fast.
	Breaker *infra.CircuitBreaker
	RDB     *redis.Client
}

// Poller picks up PENDING jobs that never reached a worker, e.g. because the
// enqueue failed or the process restarted.
type Poller struct {
	cfg PollerConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	return &Poller{cfg: cfg}
}

// Start launches the polling goroutine. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", p.cfg.Interval).Msg("poller: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("poller: shutting down")
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the running tick to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) tick(ctx context.Context) {
	for i := 0; i < pollBatchSize; i++ {
		ran, err := p.PollOnce(ctx)
		if err != nil {
			log.Error().Err(err).Msg("poller: failed to fetch pending job")
			return
		}
		if !ran {
			return
		}
	}
}

// PollOnce runs the oldest PENDING job, if any, and reports whether one was found.
// A job that fails is recorded on its row and in the DLQ; that is not an error here.
func (p *Poller) PollOnce(ctx context.Context) (bool, error) {
	if p.cfg.Breaker != nil && p.cfg.Breaker.State() == infra.CBOpen {
		log.Debug().Msg("poller: circuit breaker is open, skipping tick")
		return false, nil
	}
	id, ok, err := p.cfg.Jobs.NextPendingJob(ctx)
	if err != nil || !ok {
		return false, err
	}
	log.Info().Str("job_id", id.String()).Msg("poller: picked up pending job")
	runJob(ctx, p.cfg.RDB, p.cfg.Jobs, id)
	return true, nil
}
