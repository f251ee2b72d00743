package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trayledger/internal/config"
	"trayledger/internal/ledger"
	"trayledger/internal/logger"
	"trayledger/internal/model"
	"trayledger/internal/queue"
	"trayledger/internal/router"
	"trayledger/internal/sale"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// busy_timeout keeps concurrent terminals from surfacing raw SQLITE_BUSY;
	// the coordinator still owns the bounded retry policy on top.
	db, err := gorm.Open(sqlite.Open(cfg.DBPath+"?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&model.Inventory{},
		&model.Promotion{},
		&model.PriceSetting{},
		&model.Sale{},
		&model.DailyReport{},
		&model.ReportedSale{},
	); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer rdb.Close()

	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	outbox := queue.NewOutbox(rdb, cfg.SaleEventStream)
	led := ledger.New(db)
	coord := sale.NewCoordinator(db, log, outbox, cfg.SellMaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay := queue.NewRelay(rdb, producer, log, cfg.SaleEventStream, cfg.SaleEventGroup, cfg.SaleEventConsumer)
	go relay.Run(ctx)

	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db, log)
	defer consumer.Close()
	go consumer.Run(ctx)

	r := gin.Default()
	router.Setup(r, db, rdb, coord, led, log, cfg)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}
