package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookhive/lending-service/config"
	"github.com/bookhive/lending-service/internal/catalog"
	"github.com/bookhive/lending-service/internal/handler"
	"github.com/bookhive/lending-service/internal/repository"
	"github.com/bookhive/lending-service/internal/server"
	"github.com/bookhive/lending-service/internal/service"
	"github.com/bookhive/lending-service/migrations"
	"github.com/bookhive/lending-service/pkg/kafka"
	"github.com/bookhive/lending-service/pkg/logger"
	"github.com/bookhive/lending-service/pkg/postgres"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "lending")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}

	userRepo, err := repository.NewUserRepository(db, log)
	if err != nil {
		log.Fatal("user repo", zap.Error(err))
	}
	loanRepo, err := repository.NewLoanRepository(db, log)
	if err != nil {
		log.Fatal("loan repo", zap.Error(err))
	}

	var books catalog.Store
	books, err = catalog.NewStore(db, log)
	if err != nil {
		log.Fatal("catalog store", zap.Error(err))
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		books = catalog.NewCachedStore(books, rdb, cfg.Redis.CacheTTL, log)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatal("kafka.NewProducer", zap.Error(err))
	}
	enqueuer := kafka.NewEnqueuer(producer)

	catalogSvc := service.NewCatalogService(books, loanRepo, log)
	identitySvc := service.NewIdentityService(userRepo, cfg.Auth, log)
	loanSvc := service.NewLoanService(loanRepo, userRepo, books, enqueuer, log)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.CatalogConsumerGroup)
	if err != nil {
		log.Fatal("kafka.NewConsumer", zap.Error(err))
	}
	go kafka.Consume(consumer, handler.NewConsumer(catalogSvc.SetBookStatus, log), kafka.CatalogTopic)

	h := handler.New(loanSvc, catalogSvc, identitySvc, cfg.Auth, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err := consumer.Close(); err != nil {
		log.Error("consumer.Close", zap.Error(err))
	}
	if err := producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
