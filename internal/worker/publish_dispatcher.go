package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"blog-backend/internal/metrics"
	"blog-backend/internal/model"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	Publish(ctx context.Context, job model.EmailJob) error
}

// PublishDispatcher hands jobs to a broker from background goroutines so the
// request path never waits on the broker.
type PublishDispatcher struct {
	publisher Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewPublishDispatcher(publisher Publisher, m *metrics.Metrics, log *zap.Logger) *PublishDispatcher {
	return &PublishDispatcher{
		publisher: publisher,
		metrics:   m,
		log:       log.Named("email_publisher"),
	}
}

func (d *PublishDispatcher) Dispatch(ctx context.Context, job model.EmailJob) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := d.publisher.Publish(pubCtx, job); err != nil {
			d.log.Error("publish email job failed", zap.String("email", job.Email), zap.Error(err))
			d.metrics.EmailOutcome(metrics.OutcomeFailure)
		}
	}()
}

// Close waits for in-flight publishes.
func (d *PublishDispatcher) Close() {
	d.wg.Wait()
}
