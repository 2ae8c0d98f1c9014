package di

import (
	"context"
	"fmt"
	"time"

	"VolServe/internal/domain/repository"
	domsvc "VolServe/internal/domain/service"
	"VolServe/internal/handler/api"
	internalrepo "VolServe/internal/repository"
	"VolServe/internal/scheduler"
	"VolServe/internal/service/alphavantage"
	"VolServe/internal/service/ratelimit"
	"VolServe/internal/services/garch"
	"VolServe/internal/usecase"
	"VolServe/pkg/cache"
	pkgch "VolServe/pkg/clickhouse"
	"VolServe/pkg/config"
	xhttp "VolServe/pkg/http"
	pkgkafka "VolServe/pkg/kafka"
	applogger "VolServe/pkg/logger"
	"VolServe/pkg/metrics"
	"VolServe/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the root logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics registers the pipeline collectors on the default registry,
// which is what /metrics serves.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(nil)
}

// ProvidePriceStore opens the configured backend and ensures its schema.
func ProvidePriceStore(cfg *config.Config, l *applogger.Logger) (repository.PriceStore, func(), error) {
	switch cfg.Backend.Type {
	case "clickhouse":
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()

		client, err := pkgch.NewClient(ctx,
			pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store, err := internalrepo.NewClickHousePriceStore(client.DB(), cfg.ClickHouse.Table)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		if err := client.InitSchema(ctx, store.Schema()); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		l.Info("price store ready",
			applogger.String("backend", "clickhouse"),
			applogger.String("database", cfg.ClickHouse.Database),
			applogger.String("table", cfg.ClickHouse.Table),
		)
		return store, func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}, nil

	case "sqlite", "":
		store, err := internalrepo.NewSQLitePriceStore(cfg.Database.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		l.Info("price store ready",
			applogger.String("backend", "sqlite"),
			applogger.String("path", cfg.Database.Name),
		)
		return store, func() {
			if err := store.Close(); err != nil {
				l.Warn("sqlite close error", applogger.Error(err))
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend.Type)
	}
}

// ProvidePriceProvider builds the Alpha Vantage client with its own HTTP
// client and per-host limiter.
func ProvidePriceProvider(cfg *config.Config, l *applogger.Logger) repository.PriceProvider {
	av := cfg.AlphaVantage
	return alphavantage.New(
		alphavantage.Config{
			APIKey:            av.APIKey,
			BaseURL:           av.BaseURL,
			Timeout:           av.Timeout,
			RequestsPerMinute: av.RequestsPerMinute,
		},
		xhttp.NewClient(xhttp.WithTimeout(av.Timeout), xhttp.WithUserAgent(av.UserAgent)),
		ratelimit.New(),
		l,
	)
}

// ProvideModelStore opens the model directory.
func ProvideModelStore(cfg *config.Config) (repository.ModelStore, error) {
	s, err := internalrepo.NewFileModelStore(cfg.Model.Path, cfg.Model.Extension)
	if err != nil {
		return nil, fmt.Errorf("model store: %w", err)
	}
	return s, nil
}

// ProvideFitter builds the GARCH fitter from the garch section.
func ProvideFitter(cfg *config.Config) domsvc.VolatilityFitter {
	return garch.NewFitter(garch.Config{
		MaxIterations: cfg.Garch.MaxIterations,
		Tolerance:     cfg.Garch.Tolerance,
		Restarts:      cfg.Garch.Restarts,
	})
}

// ProvideForecastCache returns memory, memory over Redis, or a no-op cache.
func ProvideForecastCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	cc := cfg.Cache
	if !cc.Enabled {
		return cache.Noop{}, func() {}, nil
	}

	var svc cache.Service
	if cc.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx,
			cache.WithRedisServer(cc.Redis.Addr, cc.Redis.Password, cc.Redis.DB),
			cache.WithRedisPrefix(cc.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("forecast cache: %w", err)
		}
		svc = cache.NewLayeredCache(rc, cache.WithLayeredMemory(cc.Memory.MaxSize, cc.TTL))
		l.Info("forecast cache ready", applogger.String("kind", "layered"), applogger.String("redis", cc.Redis.Addr))
	} else {
		svc = cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cc.Memory.MaxSize),
			cache.WithMemoryCleanup(cc.Memory.CleanupInterval),
		)
		l.Info("forecast cache ready", applogger.String("kind", "memory"))
	}

	return svc, func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvideEventPublisher publishes model.trained to Kafka when enabled.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (repository.EventPublisher, func(), error) {
	kc := cfg.Kafka
	if !kc.Enabled {
		return internalrepo.NoopEventPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(kc.Brokers),
		pkgkafka.WithDelivery(kc.RequiredAcks, kc.Producer.MaxAttempts, kc.Compression),
		pkgkafka.WithBatching(kc.Producer.BatchSize, kc.Producer.BatchBytes, kc.Producer.Linger),
		pkgkafka.WithTimeouts(kc.Producer.WriteTimeout, kc.Producer.ReadTimeout),
		pkgkafka.WithAsync(kc.Producer.Async),
		pkgkafka.WithClientID("volserve"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, kc.Topic)
	l.Info("event publisher ready", applogger.Strings("brokers", kc.Brokers), applogger.String("topic", kc.Topic))
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideReturnPreparer creates the data preparation step.
func ProvideReturnPreparer(
	provider repository.PriceProvider,
	store repository.PriceStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ReturnPreparer {
	return usecase.NewReturnPreparer(provider, store, m, l, cfg.AlphaVantage.OutputSize)
}

// ProvideVolatilityPipeline creates the train/forecast orchestrator.
func ProvideVolatilityPipeline(
	preparer *usecase.ReturnPreparer,
	fitter domsvc.VolatilityFitter,
	store repository.ModelStore,
	events repository.EventPublisher,
	forecastCache cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.VolatilityPipeline {
	return usecase.NewVolatilityPipeline(preparer, fitter, store, events, forecastCache, cfg.Cache.TTL, m, l)
}

// ProvideHTTPHandler exposes the pipeline over HTTP.
func ProvideHTTPHandler(l *applogger.Logger, p *usecase.VolatilityPipeline) xhttp.Handler {
	return api.NewVolatilityEchoHandler(l, p)
}

// ProvideHTTPServer builds the echo server from the server and metrics
// sections.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, l,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetrics(metricsPath, nil),
	)
}

// ProvideScheduler returns nil when scheduled retraining is disabled.
func ProvideScheduler(cfg *config.Config, p *usecase.VolatilityPipeline, l *applogger.Logger) (*scheduler.Scheduler, error) {
	sc := cfg.Scheduler
	if !sc.Enabled {
		return nil, nil
	}
	s, err := scheduler.New(scheduler.RetrainConfig{
		Spec:    sc.Spec,
		Tickers: sc.Tickers,
		Refresh: sc.Refresh,
		NPoints: sc.NPoints,
		P:       sc.P,
		Q:       sc.Q,
	}, p, l)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return s, nil
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, sched *scheduler.Scheduler) *server.App {
	app := server.New(cfg, l, srv)
	if sched != nil {
		app.AddBackground(sched)
	}
	return app
}
