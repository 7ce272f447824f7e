package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpctx "github.com/classfolio/classfolio-server/internal/api/http/context"
	"github.com/classfolio/classfolio-server/internal/api/http/handler"
	"github.com/classfolio/classfolio-server/internal/api/http/middleware"
	"github.com/classfolio/classfolio-server/internal/api/http/router"
	"github.com/classfolio/classfolio-server/internal/config"
	"github.com/classfolio/classfolio-server/internal/logger"
	"github.com/classfolio/classfolio-server/internal/model"
	"github.com/classfolio/classfolio-server/internal/password"
	"github.com/classfolio/classfolio-server/internal/ratelimit"
	"github.com/classfolio/classfolio-server/internal/repository/postgres"
	"github.com/classfolio/classfolio-server/internal/server"
	"github.com/classfolio/classfolio-server/internal/service"
	"github.com/classfolio/classfolio-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	hasher := password.NewBcrypt(cfg.Password.Cost)

	tokenService := service.NewTokenService(tokenManager, userRepo, logger)
	authService := service.NewAuth(userRepo, hasher, tokenService, logger)

	ctxMgr := httpctx.NewManager()
	authHandler := handler.NewAuth(authService, tokenService, ctxMgr, logger)

	authenticate := middleware.NewAuthenticate(tokenService, ctxMgr, logger)
	authorize := middleware.NewAuthorize(ctxMgr)
	logging := middleware.NewLogging(logger)
	apiLimit := middleware.NewRateLimit(ratelimit.New(cfg.RateLimit.APIPoints, cfg.RateLimit.APIWindow))
	authLimit := middleware.NewRateLimit(ratelimit.New(cfg.RateLimit.AuthPoints, cfg.RateLimit.AuthWindow))
	createLimit := middleware.NewRateLimit(ratelimit.New(cfg.RateLimit.CreatePoints, cfg.RateLimit.CreateWindow))

	r := router.New(authHandler, authenticate, authorize, logging, apiLimit, authLimit, createLimit)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
