package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/records/internal/config"
	"github.com/Skotchmaster/records/internal/db"
	"github.com/Skotchmaster/records/internal/directory"
	"github.com/Skotchmaster/records/internal/events"
	"github.com/Skotchmaster/records/internal/guard"
	"github.com/Skotchmaster/records/internal/hash"
	"github.com/Skotchmaster/records/internal/httpserver"
	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/policy"
	"github.com/Skotchmaster/records/internal/repo"
	"github.com/Skotchmaster/records/internal/service"
	"github.com/Skotchmaster/records/internal/tokens"
)

func main() {
	cfg := config.Load(".env")
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(initCtx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	r := repo.New(gdb)

	issuer, err := tokens.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}

	deps := service.NewDeps(r, hash.NewBcrypt(cfg.BcryptCost))

	var (
		checker tokens.RevocationChecker = tokens.NoRevocation{}
		rdb     *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		revocations := tokens.NewRedisRevocations(rdb, "", issuer.TTL())
		checker = revocations
		deps.Revoker = revocations
	} else {
		logger.Warn("token revocation disabled", "reason", "REDIS_ADDR not set")
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		deps.Events = producer
	}

	if cfg.ESURL != "" {
		es, err := directory.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("es init error: %v", err)
		}
		deps.Directory = directory.NewES(es, cfg.ESIndex)
	}

	pipeline, err := policy.Pipeline(guard.StoreResolvers(r))
	if err != nil {
		log.Fatalf("policy catalog: %v", err)
	}

	auth := service.NewAuthService(deps, issuer)
	students := service.NewStudentService(deps)
	staffs := service.NewStaffService(deps)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())

	httpserver.Register(e, &httpserver.Deps{
		Auth:          &httpserver.AuthHTTP{Svc: auth, Students: students, Staffs: staffs},
		Users:         &httpserver.UsersHTTP{Svc: service.NewUserService(deps), Auth: auth},
		Students:      &httpserver.StudentsHTTP{Svc: students},
		Staffs:        &httpserver.StaffsHTTP{Svc: staffs},
		Authenticator: tokens.NewAuthenticator(issuer, checker),
		Pipeline:      pipeline,
		Logger:        logger,
		Ready: func(ctx context.Context) error {
			if err := r.Ping(ctx); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(ctx).Err()
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
