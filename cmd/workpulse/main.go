package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/workpulse/workpulse/internal/app"
	"github.com/workpulse/workpulse/internal/attendance"
	"github.com/workpulse/workpulse/internal/auth"
	"github.com/workpulse/workpulse/internal/observability"
	"github.com/workpulse/workpulse/internal/org"
	"github.com/workpulse/workpulse/internal/platform/cache"
	"github.com/workpulse/workpulse/internal/platform/db"
	"github.com/workpulse/workpulse/internal/realtime"
	"github.com/workpulse/workpulse/internal/shared"
	"github.com/workpulse/workpulse/internal/token"
	"github.com/workpulse/workpulse/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	authority := token.NewAuthority(cfg.JWTSecret, cfg.JWTTTL)
	authMiddleware := auth.Middleware{Authority: authority, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, authority)

	orgRepo := org.NewRepository(dbpool)
	orgService := org.NewService(orgRepo)
	orgHandler := org.NewHandler(logger, orgService, authMiddleware.RequireRole(shared.RoleAdmin))

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, orgRepo)
	attendanceHandler := attendance.NewHandler(logger, attendanceService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, authMiddleware.RequireRole(shared.RoleAdmin))

	metrics := observability.NewMetrics()

	hub := realtime.NewHub()
	broadcaster := realtime.NewBroadcaster(redisClient, logger)
	relay := realtime.NewRelay(redisClient, hub, logger)
	channelHandler := realtime.NewChannelHandler(logger, authority, attendanceService, broadcaster, hub, metrics, cfg.WSAllowedOrigins)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthMiddleware:    authMiddleware,
		AuthHandler:       authHandler,
		AttendanceHandler: attendanceHandler,
		OrgHandler:        orgHandler,
		UsersHandler:      usersHandler,
		ChannelHandler:    channelHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return relay.Run(groupCtx)
	})

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("runtime", slog.Any("error", err))
		os.Exit(1)
	}
}
