package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"

	"github.com/absmach/fedkit/pkg/artifact"
	"github.com/absmach/fedkit/pkg/mqtt"
	"github.com/absmach/fedkit/pkg/storage"
	"github.com/absmach/fedkit/train"
	"github.com/absmach/fedkit/train/api"
	"github.com/absmach/fedkit/train/middleware"
	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName           = "fedkit"
	defHTTPPort       = "9099"
	envPrefix         = "FEDKIT_"
	envPrefixHTTP     = "FEDKIT_HTTP_"
	envPrefixArtifact = "FEDKIT_ARTIFACT_"
	envPrefixMQTT     = "FEDKIT_MQTT_"
	pathEnv           = ".env"
)

type envConfig struct {
	LogLevel       string  `env:"FEDKIT_LOG_LEVEL"       envDefault:"info"`
	InstanceID     string  `env:"FEDKIT_INSTANCE_ID"`
	ReaperSchedule string  `env:"FEDKIT_REAPER_SCHEDULE" envDefault:"@every 1m"`
	OTELURL        url.URL `env:"FEDKIT_OTEL_URL"`
	TraceRatio     float64 `env:"FEDKIT_TRACE_RATIO"     envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	storageCfg := storage.Config{}
	if err := env.ParseWithOptions(&storageCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Error("failed to load storage configuration", slog.String("error", err.Error()))

		return
	}
	repos, err := storage.NewRepositories(storageCfg)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("type", storageCfg.Type), slog.String("error", err.Error()))

		return
	}
	if repos.Closer != nil {
		defer func() {
			if err := repos.Closer.Close(); err != nil {
				logger.Error("failed to close storage", slog.Any("error", err))
			}
		}()
	}

	artifactCfg := artifact.Config{}
	if err := env.ParseWithOptions(&artifactCfg, env.Options{Prefix: envPrefixArtifact}); err != nil {
		logger.Error("failed to load artifact configuration", slog.String("error", err.Error()))

		return
	}
	artifacts, err := artifact.New(artifactCfg)
	if err != nil {
		logger.Error("failed to initialize artifact store", slog.String("type", artifactCfg.Type), slog.String("error", err.Error()))

		return
	}

	mqttCfg := mqtt.Config{}
	if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
		logger.Error("failed to load mqtt configuration", slog.String("error", err.Error()))

		return
	}
	pubsub, err := newPubSub(mqttCfg, cfg.InstanceID, logger)
	if err != nil {
		logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

		return
	}
	defer func() {
		if err := pubsub.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect mqtt pubsub", slog.Any("error", err))
		}
	}()

	trainCfg := train.Config{}
	if err := env.ParseWithOptions(&trainCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Error("failed to load session configuration", slog.String("error", err.Error()))

		return
	}
	trainCfg.TopicPrefix = mqttCfg.TopicPrefix

	svc := train.NewService(repos.Models, repos.Sessions, artifacts, pubsub, trainCfg)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return train.RunReaper(ctx, svc, cfg.ReaperSchedule, logger)
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}

func newPubSub(cfg mqtt.Config, instanceID string, logger *slog.Logger) (mqtt.PubSub, error) {
	if cfg.Address == "" {
		logger.Info("no MQTT address configured, session events will not be published")

		return mqtt.NewNoopPubSub(logger), nil
	}

	return mqtt.NewPubSub(cfg.Address, cfg.QoS, svcName+"-"+instanceID, cfg.Username, cfg.Password, cfg.TopicPrefix, cfg.Timeout, logger)
}
