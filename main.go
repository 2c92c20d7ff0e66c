package main

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/fuchsia74/openai-limiter/common"
	"github.com/fuchsia74/openai-limiter/common/client"
	"github.com/fuchsia74/openai-limiter/common/config"
	"github.com/fuchsia74/openai-limiter/common/graceful"
	"github.com/fuchsia74/openai-limiter/common/logger"
	"github.com/fuchsia74/openai-limiter/relay/cot"
	"github.com/fuchsia74/openai-limiter/relay/token"
	"github.com/fuchsia74/openai-limiter/router"
)

func main() {
	common.Init()
	logger.SetupLogger()

	logger.Logger.Info("openai-limiter started", zap.String("version", common.Version))

	if config.BackendAddr == "" {
		logger.Logger.Fatal("BACKEND must be set to the backend base URL")
	}
	if config.CotParser != "" {
		if _, err := cot.ForDialect(config.CotParser); err != nil {
			logger.Logger.Fatal("invalid COT_PARSER", zap.Error(err))
		}
		logger.Logger.Info("chain-of-thought extraction enabled",
			zap.String("dialect", config.CotParser))
	}
	if config.InputMaxToken > 0 {
		logger.Logger.Info("input token budget enabled",
			zap.Int("max_token", config.InputMaxToken))
		token.InitTokenEncoder()
	}

	client.Init()

	if config.GinMode != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
	)
	// Do not add gzip here, it breaks SSE.

	router.SetRouter(server)

	port := config.ServerPort
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: server,
	}

	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://localhost:"+port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	logger.Logger.Info("shutting down",
		zap.Duration("timeout", config.ShutdownTimeout()))
	graceful.StartDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http server shutdown", zap.Error(err))
	}
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Error("drain in-flight requests", zap.Error(err))
	}

	logger.Logger.Info("bye")
}
