package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/storefront-api/internal/config"
	"github.com/storefront-api/internal/infrastructure/awsconf"
	"github.com/storefront-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/storefront-api/internal/infrastructure/jwt"
	"github.com/storefront-api/internal/infrastructure/memory"
	s3infra "github.com/storefront-api/internal/infrastructure/s3"
	"github.com/storefront-api/internal/infrastructure/smtp"
	"github.com/storefront-api/internal/infrastructure/sns"
	transporthttp "github.com/storefront-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		fatal("dependencies", err)
	}
	deps.JWTProvider = jwtProvider

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreBackend, "notifier", cfg.Notifier)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("server", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("forced shutdown", err)
	}
	slog.Info("server stopped")
}

// buildDeps selects the store and notifier backends named in cfg.
func buildDeps(ctx context.Context, cfg *config.Config) (*transporthttp.Deps, error) {
	deps := &transporthttp.Deps{}

	switch cfg.StoreBackend {
	case "memory":
		slog.Warn("using in-memory store, data is lost on restart")
		deps.UserRepo = memory.NewUserRepo()
		deps.ProductRepo = memory.NewProductRepo()
		deps.OrderRepo = memory.NewOrderRepo()
		deps.Images = memory.NewImageStore()
	case "dynamo":
		awsCfg, err := awsconf.Load(ctx, cfg, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
		deps.UserRepo = dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
		deps.ProductRepo = dynamo.NewProductRepo(dynamoClient, cfg.DynamoTables.Products)
		deps.OrderRepo = dynamo.NewOrderRepo(dynamoClient, cfg.DynamoTables.Orders)
		deps.Images = s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.S3PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.Notifier {
	case "smtp":
		deps.Notifier = smtp.NewMailer(cfg)
	case "sns":
		snsCfg, err := awsconf.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			return nil, err
		}
		publisher, err := sns.NewEmailPublisher(snsCfg, cfg.SNSTopicARN)
		if err != nil {
			return nil, err
		}
		deps.Notifier = publisher
	default:
		return nil, fmt.Errorf("unknown NOTIFIER %q", cfg.Notifier)
	}

	return deps, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.AppEnv == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fatal(what string, err error) {
	slog.Error(what, "err", err)
	os.Exit(1)
}
