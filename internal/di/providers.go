package di

import (
	"context"
	"fmt"
	"time"

	domrepo "CandleScope/internal/domain/repository"
	"CandleScope/internal/handler/api"
	"CandleScope/internal/handler/web"
	"CandleScope/internal/handler/ws"
	internalrepo "CandleScope/internal/repository"
	"CandleScope/internal/service/analysis"
	icache "CandleScope/internal/service/cache"
	svcmetrics "CandleScope/internal/service/metrics"
	"CandleScope/internal/service/ratelimit"
	"CandleScope/internal/service/render"
	"CandleScope/internal/service/warmer"
	"CandleScope/internal/usecase"
	"CandleScope/pkg/cache"
	pkgch "CandleScope/pkg/clickhouse"
	"CandleScope/pkg/config"
	xhttp "CandleScope/pkg/http"
	"CandleScope/pkg/http/middleware"
	pkgkafka "CandleScope/pkg/kafka"
	applogger "CandleScope/pkg/logger"
	"CandleScope/pkg/metrics"
	"CandleScope/pkg/queue"
	"CandleScope/pkg/server"

	goredis "github.com/redis/go-redis/v9"
)

const logFlushInterval = 30 * time.Second

// ProvideLogger creates the application logger from the log section.
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	svcmetrics.Register()
	return metrics.New()
}

// ProvideRatesCache creates the rates cache selected by cache.backend. The
// "none" backend yields a nil Service and rates are always fetched.
func ProvideRatesCache(cfg *config.Config) (cache.Service, error) {
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
			cache.WithMemoryCleanup(time.Minute),
		)
	}
	redis := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch cfg.Cache.Backend {
	case "memory":
		return memory(), nil
	case "redis":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "layered":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc, cache.WithLayeredMemory(cfg.Cache.MaxEntries, cfg.Cache.TTL)), nil
	default:
		return nil, nil
	}
}

// ProvideAnalysisClient creates the analysis service client.
func ProvideAnalysisClient(cfg *config.Config, rec *metrics.Recorder) *analysis.Client {
	return analysis.NewClient(cfg, rec)
}

// ProvideCachedRates puts the rates cache in front of the analysis service.
func ProvideCachedRates(cfg *config.Config, client *analysis.Client, c cache.Service, l *applogger.Logger) *usecase.CachedRates {
	return usecase.NewCachedRates(client, c, cfg.Cache.TTL, l)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideJournal creates the analysis journal selected by journal.backend.
// The kafka and redis journals also carry aggregated error logs when
// log.collect_topic is set.
func ProvideJournal(cfg *config.Config, l *applogger.Logger) (domrepo.Journal, error) {
	switch cfg.Journal.Backend {
	case "kafka":
		producer, err := ProvideKafkaProducer(cfg)
		if err != nil {
			return nil, err
		}
		j := internalrepo.NewKafkaJournal(producer, cfg.Kafka.Topic)
		attachLogCollector(cfg, l, j)
		return j, nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		pub, err := queue.NewRedisPublisher(context.Background(), client,
			queue.WithKeyPrefix(cfg.Journal.Prefix),
			queue.WithMaxLen(cfg.Journal.MaxLen),
		)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis journal: %w", err)
		}
		j := internalrepo.NewRedisJournal(pub)
		attachLogCollector(cfg, l, j)
		return j, nil
	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, err
		}
		j := internalrepo.NewCHJournal(client, cfg.Journal.Table, l)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.Init(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return j, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		j, err := internalrepo.OpenPGJournal(ctx, internalrepo.PGParams{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
		}, cfg.Journal.Table, l)
		if err != nil {
			return nil, fmt.Errorf("postgres journal: %w", err)
		}
		return j, nil
	default:
		return internalrepo.NopJournal{}, nil
	}
}

func attachLogCollector(cfg *config.Config, l *applogger.Logger, pub applogger.Publisher) {
	if cfg.Log.CollectTopic == "" {
		return
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   logFlushInterval,
		CountThreshold: 100,
		Topic:          cfg.Log.CollectTopic,
		Publisher:      pub,
	})
}

// ProvideHub creates the websocket hub. Its session source is attached by
// ProvideSessionManager.
func ProvideHub(rec *metrics.Recorder, l *applogger.Logger) *ws.Hub {
	return ws.NewHub(nil, rec, l)
}

// ProvideSessionManager creates the session registry and attaches it to the
// hub it publishes through.
func ProvideSessionManager(
	cfg *config.Config,
	rates *usecase.CachedRates,
	client *analysis.Client,
	journal domrepo.Journal,
	hub *ws.Hub,
	rec *metrics.Recorder,
	l *applogger.Logger,
) (*usecase.SessionManager, error) {
	m, err := usecase.NewSessionManager(cfg, icache.NewTTLCache[*usecase.Session](), usecase.SessionDeps{
		Rates:     rates,
		Analyzer:  client,
		Journal:   journal,
		Publisher: hub,
		Metrics:   rec,
		Logger:    l,
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	hub.SetSessions(m)
	return m, nil
}

// ProvideLimiter creates the per-client limiter, nil when disabled.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideWarmer creates the cache warmer, nil when disabled or when there
// is no cache to warm.
func ProvideWarmer(cfg *config.Config, rates *usecase.CachedRates, c cache.Service, l *applogger.Logger) *warmer.Warmer {
	if !cfg.Warmer.Enabled || c == nil {
		return nil
	}
	return warmer.New(rates, c, cfg.Warmer.Schedule, cfg.Warmer.LockTTL, l)
}

// ProvideHTTPHandler combines the page, the JSON API and the websocket hub.
func ProvideHTTPHandler(
	l *applogger.Logger,
	sessions *usecase.SessionManager,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
) xhttp.Handler {
	var allower middleware.Allower
	if limiter != nil {
		allower = limiter
	}
	return xhttp.Handlers{
		web.NewPageHandler(l, sessions),
		api.NewDashboardEchoHandler(l, sessions, render.NewPNGRenderer(), allower),
		hub,
	}
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(metricsPath, cfg.Server.SlowRequest),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	sessions *usecase.SessionManager,
	w *warmer.Warmer,
	limiter *ratelimit.Limiter,
	journal domrepo.Journal,
	c cache.Service,
) *server.App {
	app := server.New(cfg, l, srv, sessions, w, limiter)
	if c != nil {
		app.OnClose("rates cache", c)
	}
	app.OnClose("journal", journal)
	return app
}
