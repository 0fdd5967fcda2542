// Package core wires configuration, the Telegram adapter, storage, and the
// ingestion pipeline into one runnable app.
package core

import (
	"context"
	"fmt"
	"time"

	"flashwire/internal/adapters/telegram"
	"flashwire/internal/feed"
	"flashwire/internal/kit"
	"flashwire/internal/news"
	"flashwire/internal/pipeline"
	"flashwire/internal/services/broadcast"
	"flashwire/internal/services/poller"
	"flashwire/internal/storage"
	"flashwire/pkg/logx"
)

type App struct {
	cfgm *ConfigManager

	log  logx.Logger
	logs *logx.Service

	adapter  kit.Adapter
	store    storage.Store
	fetcher  *feed.Fetcher
	dispatch *broadcast.Service
	pipe     *pipeline.Pipeline
	poll     *poller.Service
	router   *Router

	updates chan kit.Update

	runCancel context.CancelFunc
	done      chan struct{}
}

func NewApp(cfgPath string) (*App, error) {
	bootLog := logx.NewConsole("info")

	cfgm := NewConfigManager(cfgPath, bootLog.With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ad, err := telegram.New(telegram.Config{
		Token:       cfg.ResolveToken(),
		PollTimeout: durationOrDefault(cfg.Telegram.PollTimeout, 10*time.Second),
	}, bootLog.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}, ad)
	if cfg.Telegram.OperatorChatID != 0 {
		logSvc.SetTelegramTarget(cfg.Telegram.OperatorChatID)
	}
	log = log.With(logx.String("comp", "app"))

	st, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: durationOrDefault(cfg.Storage.BusyTimeout, 5*time.Second),
	}, logSvc.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	fetcher, err := feed.NewFetcher(feedConfig(cfg), logSvc.Logger().With(logx.String("comp", "feed")))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	dispatch := broadcast.New(broadcast.Config{
		Workers:    cfg.Broadcast.Workers,
		RatePerSec: cfg.Broadcast.RatePerSec,
		RetryMax:   cfg.Broadcast.RetryMax,
	}, ad, logSvc.Logger().With(logx.String("comp", "broadcast")))

	pipe := pipeline.New(fetcher, st, dispatch, logSvc.Logger().With(logx.String("comp", "pipeline")))

	sessions := news.NewSessions(durationOrDefault(cfg.Session.TTL, 0))
	handler := news.NewHandler(fetcher, st, sessions, ad, logSvc.Logger().With(logx.String("comp", "news")))
	router := NewRouter(handler, ad, logSvc.Logger().With(logx.String("comp", "router")))

	poll := poller.New(pollerConfig(cfg), func(ctx context.Context) {
		pipe.Pass(ctx)
	}, logSvc.Logger().With(logx.String("comp", "poller")))

	return &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		adapter:  ad,
		store:    st,
		fetcher:  fetcher,
		dispatch: dispatch,
		pipe:     pipe,
		poll:     poll,
		router:   router,
		updates:  make(chan kit.Update, 256),
		done:     make(chan struct{}),
	}, nil
}

func feedConfig(cfg *Config) feed.Config {
	return feed.Config{
		URL:          cfg.Feed.URL,
		MaxItems:     cfg.Feed.MaxItems,
		Timeout:      durationOrDefault(cfg.Feed.Timeout, 0),
		UserAgent:    cfg.Feed.UserAgent,
		SnapshotFile: cfg.Feed.SnapshotFile,
	}
}

func pollerConfig(cfg *Config) poller.Config {
	return poller.Config{
		Interval:     durationOrDefault(cfg.Poll.Interval, 0),
		InitialDelay: durationOrDefault(cfg.Poll.InitialDelay, 10*time.Second),
	}
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}

	a.dispatch.Start(runCtx)
	a.poll.Start(runCtx)

	go func() {
		_ = a.router.DispatchLoop(runCtx, a.updates)
	}()

	// Advertise the command menu; best-effort.
	if menu, ok := a.adapter.(kit.CommandMenuUpdater); ok {
		go func() {
			mctx, mcancel := context.WithTimeout(runCtx, 10*time.Second)
			defer mcancel()
			if err := menu.UpdateMenuCommands(mctx, a.router.Commands()); err != nil {
				a.log.Warn("menu command update failed", logx.Err(err))
			}
		}()
	}

	// Hot reload fan-out.
	sub := a.cfgm.Subscribe(8)
	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(newCfg)
			}
		}
	}()
	go func() {
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch ended", logx.Err(err))
		}
	}()

	a.log.Info("app started")
	return nil
}

func (a *App) applyConfig(cfg *Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	})
	a.logs.SetTelegramTarget(cfg.Telegram.OperatorChatID)

	a.fetcher.Apply(feedConfig(cfg))
	a.poll.Apply(pollerConfig(cfg))
	a.dispatch.Apply(broadcast.Config{
		Workers:    cfg.Broadcast.Workers,
		RatePerSec: cfg.Broadcast.RatePerSec,
		RetryMax:   cfg.Broadcast.RetryMax,
	})

	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")
	if a.runCancel != nil {
		a.runCancel()
	}

	// One component must never stall the whole stop; each step gets a cap.
	step := func(name string, max time.Duration, fn func(context.Context)) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			fn(stepCtx)
		}()
		select {
		case <-done:
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	step("poller", 2*time.Second, func(c context.Context) { a.poll.Stop(c) })
	step("dispatcher", 3*time.Second, func(c context.Context) { a.dispatch.Stop(c) })
	step("adapter", 2*time.Second, func(c context.Context) { _ = a.adapter.Stop(c) })
	step("storage", time.Second, func(context.Context) { _ = a.store.Close() })

	_ = a.logs.Close()
	a.log.Info("stopped")
	return nil
}
