package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"blog-backend/internal/mail"
	"blog-backend/internal/metrics"
	"blog-backend/internal/model"
	"blog-backend/internal/platform/rabbitmq"
)

const sendTimeout = 30 * time.Second

// EmailWorker consumes verification mail jobs from RabbitMQ. Failed jobs are
// dropped, never requeued: the user can ask for a new code.
type EmailWorker struct {
	conn      *amqp.Connection
	sender    mail.Sender
	queueName string
	metrics   *metrics.Metrics
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEmailWorker(conn *amqp.Connection, sender mail.Sender, queueName string, m *metrics.Metrics, log *zap.Logger) *EmailWorker {
	return &EmailWorker{
		conn:      conn,
		sender:    sender,
		queueName: queueName,
		metrics:   m,
		log:       log.Named("email_worker"),
	}
}

func (w *EmailWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.log.Info("email worker started", zap.String("queue", w.queueName))
	return nil
}

func (w *EmailWorker) handle(ctx context.Context, body []byte) error {
	var job model.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.log.Error("decode email job failed", zap.Error(err))
		w.metrics.EmailOutcome(metrics.OutcomeFailure)
		return err
	}
	return deliver(ctx, w.sender, job, w.metrics, w.log)
}

func (w *EmailWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func deliver(ctx context.Context, sender mail.Sender, job model.EmailJob, m *metrics.Metrics, log *zap.Logger) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, job); err != nil {
		log.Error("send verification email failed", zap.String("email", job.Email), zap.Error(err))
		m.EmailOutcome(metrics.OutcomeFailure)
		return err
	}
	m.EmailOutcome(metrics.OutcomeSuccess)
	return nil
}
