package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"CandleScope/internal/service/ratelimit"
	"CandleScope/internal/service/warmer"
	"CandleScope/internal/usecase"
	"CandleScope/pkg/config"
	xhttp "CandleScope/pkg/http"
	applogger "CandleScope/pkg/logger"
)

const limiterIdle = 10 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	sessions   *usecase.SessionManager
	warmer     *warmer.Warmer
	limiter    *ratelimit.Limiter
	closers    []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// New creates a new App instance with all dependencies. warmer and limiter
// may be nil when disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sessions *usecase.SessionManager,
	w *warmer.Warmer,
	limiter *ratelimit.Limiter,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: httpServer,
		sessions:   sessions,
		warmer:     w,
		limiter:    limiter,
	}
}

// OnClose registers a resource released on shutdown, in reverse order of
// registration.
func (a *App) OnClose(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sessions.Run(bgCtx, a.cfg.Session.SweepInterval)
	}()
	a.log.Info("session janitor started",
		applogger.Duration("idle_ttl", a.cfg.Session.IdleTTL),
		applogger.Duration("interval", a.cfg.Session.SweepInterval))

	if a.limiter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.sweepLimiter(bgCtx)
		}()
	}

	if a.warmer != nil {
		if err := a.warmer.Start(); err != nil {
			cancel()
			wg.Wait()
			return err
		}
		a.log.Info("cache warmer started", applogger.String("schedule", a.cfg.Warmer.Schedule))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		wg.Wait()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	cancel()
	wg.Wait()
	return a.shutdown()
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(limiterIdle); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("clients", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	if a.warmer != nil {
		a.warmer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// the collector may publish through a closer below
	a.log.RemoveCollector()

	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
