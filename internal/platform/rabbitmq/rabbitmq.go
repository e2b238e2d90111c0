package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"blog-backend/internal/config"
)

const probeTimeout = 3 * time.Second

// New dials the broker and declares the email queue. A broker that accepts the
// connection but cannot declare the queue within probeTimeout is treated as down.
func New(ctx context.Context, cfg config.RabbitMQConfig, log *zap.Logger) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	done := make(chan error, 1)
	go func() {
		_, declareErr := DeclareQueue(ch, cfg.EmailQueue)
		done <- declareErr
	}()

	select {
	case <-probeCtx.Done():
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq probe timeout: %w", probeCtx.Err())
	case err := <-done:
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	log.Info("rabbitmq connected", zap.String("queue", cfg.EmailQueue))
	return conn, nil
}
