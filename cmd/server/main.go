package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/staffing/internal/adapters/grpc/handler"
	"github.com/ogurasousui/staffing/internal/adapters/repository/postgres"
	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/integrity"
	"github.com/ogurasousui/staffing/internal/core/job"
	"github.com/ogurasousui/staffing/internal/core/lifecycle"
	"github.com/ogurasousui/staffing/internal/core/worker"
	"github.com/ogurasousui/staffing/internal/platform/config"
	pg "github.com/ogurasousui/staffing/internal/platform/db/postgres"
	"github.com/ogurasousui/staffing/internal/platform/logger"
	"github.com/ogurasousui/staffing/internal/platform/metrics"
	"github.com/ogurasousui/staffing/internal/platform/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to initialize database pool", zap.Error(err))
		return err
	}
	defer dbPool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricCollectors, err := metrics.New(reg)
	if err != nil {
		return err
	}

	txManager := pg.NewTransactionManager(dbPool)
	employerRepo := postgres.NewEmployerRepository(dbPool)
	jobRepo := postgres.NewJobRepository(dbPool)
	workerRepo := postgres.NewWorkerRepository(dbPool)
	historyRepo := postgres.NewHistoryRepository(dbPool)

	validator := integrity.NewValidator(employerRepo, jobRepo)
	workerSvc := worker.NewService(workerRepo, historyRepo, validator, jobRepo,
		worker.WithTransactionManager(txManager),
		worker.WithObserver(metricCollectors),
		worker.WithLogger(log.Named("worker")),
	)
	rules := lifecycle.NewRules(jobRepo, workerSvc, log.Named("lifecycle"))
	employerSvc := employer.NewService(employerRepo, rules, nil, txManager)
	jobSvc := job.NewService(jobRepo, validator, rules, nil, txManager)

	grpcServer := server.New(
		cfg.Server.ListenAddr,
		handler.NewStaffingHandler(employerSvc, jobSvc, workerSvc),
		handler.NewHealthHandler(dbPool),
		grpc.ChainUnaryInterceptor(
			handler.LoggingInterceptor(log.Named("grpc")),
			handler.MetricsInterceptor(metricCollectors),
			handler.AuthInterceptor(cfg.Auth.Token),
		),
	)

	if cfg.Server.MetricsAddr != "" {
		go func() {
			log.Info("metrics server listening", zap.String("addr", cfg.Server.MetricsAddr))
			if err := metricCollectors.Serve(ctx, cfg.Server.MetricsAddr); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Auth.Token == "" {
		log.Warn("auth token is empty; requests are not authenticated")
	}
	log.Info("gRPC server listening", zap.String("addr", cfg.Server.ListenAddr))

	if err := grpcServer.Run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}

	log.Info("server stopped")
	return nil
}
