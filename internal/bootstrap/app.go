package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appsvc "blog-backend/internal/app"
	"blog-backend/internal/config"
	"blog-backend/internal/mail"
	"blog-backend/internal/metrics"
	"blog-backend/internal/pkg/logger"
	mysqlClient "blog-backend/internal/platform/mysql"
	rabbitmqClient "blog-backend/internal/platform/rabbitmq"
	redisClient "blog-backend/internal/platform/redis"
	sqliteClient "blog-backend/internal/platform/sqlite"
	"blog-backend/internal/repository"
	"blog-backend/internal/worker"
)

const (
	localEmailWorkers  = 2
	localEmailCapacity = 128
)

type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Mailer      appsvc.EmailDispatcher
	EmailWorker *worker.EmailWorker

	// dispatcherClose drains whichever dispatcher Mailer is.
	dispatcherClose func()

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Name, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	a := &App{
		Config:    cfg,
		Logger:    log,
		Metrics:   metrics.New(),
		StartedAt: time.Now(),
	}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := openDatabase(ctx, cfg, a.Logger)
	if err != nil {
		return err
	}
	a.DB = db
	if err := repository.Migrate(db); err != nil {
		return err
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis, a.Logger)
		if err != nil {
			return err
		}
		a.Redis = redisCli
	}

	sender := mail.NewSender(cfg.SMTP, a.Logger)
	if !cfg.RabbitMQ.Enabled {
		queue := worker.NewLocalEmailQueue(sender, localEmailWorkers, localEmailCapacity, a.Metrics, a.Logger)
		a.Mailer = queue
		a.dispatcherClose = queue.Close
		a.Logger.Info("email dispatch via in-process queue")
		return nil
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ, a.Logger)
	if err != nil {
		return err
	}
	a.MQConn = mqConn

	emailWorker := worker.NewEmailWorker(mqConn, sender, cfg.RabbitMQ.EmailQueue, a.Metrics, a.Logger)
	if err := emailWorker.Start(ctx); err != nil {
		return fmt.Errorf("start email worker failed: %w", err)
	}
	a.EmailWorker = emailWorker

	dispatcher := worker.NewPublishDispatcher(
		rabbitmqClient.NewEmailPublisher(mqConn, cfg.RabbitMQ.EmailQueue),
		a.Metrics,
		a.Logger,
	)
	a.Mailer = dispatcher
	a.dispatcherClose = dispatcher.Close
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		log.Info("using sqlite store", zap.String("path", cfg.Database.SQLitePath))
		return sqliteClient.New(ctx, cfg.Database.SQLitePath, log)
	default:
		return mysqlClient.New(ctx, cfg.MySQLDSN(), log)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.dispatcherClose != nil {
		a.dispatcherClose()
	}
	if a.EmailWorker != nil {
		a.EmailWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
