// Package app wires configuration, storage, the game engine and the TCP
// server into a runnable application.
package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lucasnhandang/TheMillionaireGame/internal/auth"
	"github.com/lucasnhandang/TheMillionaireGame/internal/config"
	"github.com/lucasnhandang/TheMillionaireGame/internal/game"
	"github.com/lucasnhandang/TheMillionaireGame/internal/handler"
	"github.com/lucasnhandang/TheMillionaireGame/internal/repository"
	"github.com/lucasnhandang/TheMillionaireGame/internal/server"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/database"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/logger"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/monitoring"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/tracing"
)

const shutdownGrace = 10 * time.Second

type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	server   *server.Server
	registry *session.Registry
	tracer   *sdktrace.TracerProvider
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Log.Level, cfg.Log.File)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, caching disabled", zap.Error(err))
		rdb = nil
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("millionaire-game", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Warn("tracing init failed", zap.Error(err))
			tp = nil
		}
	}

	if cfg.Metrics.Enabled {
		monitoring.StartMetricsServer(cfg.Metrics.Port, logger.Log)
	}

	st := &store.Store{
		Users:       repository.NewUserRepository(db),
		Questions:   repository.NewQuestionRepository(db),
		Games:       repository.NewGameRepository(db),
		Friends:     repository.NewFriendshipRepository(db, rdb),
		Chats:       repository.NewChatRepository(db),
		Leaderboard: repository.NewLeaderboardRepository(db, rdb),
	}

	registry := session.NewRegistry()
	gate := auth.NewGate()
	engine := game.NewEngine(
		st.Games, st.Questions, st.Leaderboard, registry,
		game.NewTimer(cfg.QuestionTimeout()),
		game.NewOracle(),
		cfg.SaveTTL(),
		logger.Log,
	)

	router := handler.NewRouter(gate, registry, engine, st, logger.Log)
	srv := server.New(cfg.Server, router, registry, gate, engine, logger.Log)
	router.SetPusher(srv)

	return &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		server:   srv,
		registry: registry,
		tracer:   tp,
	}
}

// Run serves until SIGINT/SIGTERM, then drains connected clients.
func (a *App) Run() {
	go func() {
		if err := a.server.ListenAndServe(); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		logger.Log.Warn("shutdown incomplete", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("tracer shutdown failed", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
}
