package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"blog-backend/internal/mail"
	"blog-backend/internal/metrics"
	"blog-backend/internal/model"
)

// LocalEmailQueue delivers verification mail from in-process goroutines. It is
// the dispatcher when RabbitMQ is disabled. Jobs are lost on crash.
type LocalEmailQueue struct {
	jobs    chan model.EmailJob
	sender  mail.Sender
	metrics *metrics.Metrics
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalEmailQueue(sender mail.Sender, workers, capacity int, m *metrics.Metrics, log *zap.Logger) *LocalEmailQueue {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = 64
	}
	q := &LocalEmailQueue{
		jobs:    make(chan model.EmailJob, capacity),
		sender:  sender,
		metrics: m,
		log:     log.Named("email_queue"),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

// Dispatch enqueues job without blocking. A full or closed queue drops it.
func (q *LocalEmailQueue) Dispatch(_ context.Context, job model.EmailJob) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(job, "queue closed")
		return
	}
	select {
	case q.jobs <- job:
	default:
		q.drop(job, "queue full")
	}
}

func (q *LocalEmailQueue) drop(job model.EmailJob, reason string) {
	q.log.Warn("email job dropped", zap.String("email", job.Email), zap.String("reason", reason))
	q.metrics.EmailOutcome(metrics.OutcomeDropped)
}

func (q *LocalEmailQueue) run() {
	defer q.wg.Done()
	for job := range q.jobs {
		_ = deliver(context.Background(), q.sender, job, q.metrics, q.log)
	}
}

// Close stops accepting jobs and waits until the queued ones are sent.
func (q *LocalEmailQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
