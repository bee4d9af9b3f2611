// Package app assembles the bot: config, logging, storage, the Telegram
// adapter, the content pipeline and its periodic jobs, and the update
// dispatch loop. NewApp builds everything, Start brings it up, Stop tears
// it down in reverse.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"racebot/internal/admin"
	"racebot/internal/bingo"
	"racebot/internal/bot"
	"racebot/internal/calendar"
	"racebot/internal/config"
	"racebot/internal/content"
	"racebot/internal/fanout"
	"racebot/internal/llm"
	"racebot/internal/news"
	"racebot/internal/scheduler"
	"racebot/internal/storage"
	"racebot/internal/transport"
	"racebot/internal/transport/telegram"
	"racebot/pkg/logx"
)

const (
	defaultPreCheckEvery  = 10 * time.Minute
	defaultPostCheckEvery = 30 * time.Minute
	defaultRefreshEvery   = 6 * time.Hour
	defaultLLMTimeout     = 30 * time.Second
	defaultNewsTimeout    = 10 * time.Second
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	store    *storage.Store
	adapter  *telegram.Adapter
	sched    *scheduler.Service
	source   *calendar.Source
	router   *bot.Router
	notifier *bot.Notifier
	gateway  *admin.Gateway

	updates chan transport.Update

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// NewApp loads config from path and wires every component. Nothing runs
// until Start.
func NewApp(path string) (*App, error) {
	cfgm := config.NewManager(path)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	a, err := build(cfgm, cfg, logs, log)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	return a, nil
}

func build(cfgm *config.Manager, cfg *config.Config, logs *logx.Service, log logx.Logger) (*App, error) {
	durs, err := parseDurations(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: durs.busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: durs.pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	client, err := llm.New(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: durs.llmTimeout,
	}, log.With(logx.String("comp", "llm")))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("llm client: %w", err)
	}

	fetcher := news.New(news.Config{
		Feeds:   cfg.News.Feeds,
		Limit:   cfg.News.Limit,
		Timeout: defaultNewsTimeout,
	}, log.With(logx.String("comp", "news")))

	source := calendar.New(calendar.Config{
		SourceURL: cfg.Calendar.SourceURL,
	}, store, log.With(logx.String("comp", "calendar")))

	notifier := bot.NewNotifier(cfg.Telegram.AdminUserIDs, adapter,
		log.With(logx.String("comp", "notifier")))

	fan := fanout.New(fanout.Config{}, adapter, store, bot.BroadcastMarkup,
		log.With(logx.String("comp", "fanout")))

	pipeline := content.NewPipeline(store, client, fan,
		log.With(logx.String("comp", "content")))

	jobs := content.NewJobs(store, pipeline, fetcher, notifier,
		cfg.Content.LanguagesOrDefault(),
		log.With(logx.String("comp", "jobs")))

	gateway := admin.New(cfg.Telegram.AdminUserIDs, pipeline, jobs,
		cfg.Content.PageSizeOrDefault(),
		log.With(logx.String("comp", "admin")))

	engine := bingo.NewEngine(store, client,
		log.With(logx.String("comp", "bingo")))

	router := bot.NewRouter(adapter, store, store, pipeline, gateway, engine,
		log.With(logx.String("comp", "bot")))

	sched := scheduler.New(scheduler.Config{
		Timezone: cfg.Content.Timezone,
	}, log.With(logx.String("comp", "scheduler")))

	schedJobs := []scheduler.Job{
		{Name: "content.pre_race", Every: durs.preCheckEvery, Run: jobs.PreRace},
		{Name: "content.post_race", Every: durs.postCheckEvery, Run: jobs.PostRace},
	}
	if strings.TrimSpace(cfg.Calendar.SourceURL) != "" {
		schedJobs = append(schedJobs, scheduler.Job{
			Name:  "calendar.sync",
			Every: durs.refreshEvery,
			Run:   source.Sync,
		})
	}
	for _, j := range schedJobs {
		if err := sched.AddInterval(j); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("register job %s: %w", j.Name, err)
		}
	}

	return &App{
		cfgm:     cfgm,
		logs:     logs,
		log:      log.With(logx.String("comp", "app")),
		store:    store,
		adapter:  adapter,
		sched:    sched,
		source:   source,
		router:   router,
		notifier: notifier,
		gateway:  gateway,
		updates:  make(chan transport.Update, 256),
	}, nil
}

type durations struct {
	pollTimeout    time.Duration
	busyTimeout    time.Duration
	llmTimeout     time.Duration
	preCheckEvery  time.Duration
	postCheckEvery time.Duration
	refreshEvery   time.Duration
}

func parseDurations(cfg *config.Config) (durations, error) {
	var d durations
	var err error
	if d.pollTimeout, err = config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 0); err != nil {
		return d, err
	}
	if d.busyTimeout, err = config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0); err != nil {
		return d, err
	}
	if d.llmTimeout, err = config.ParseDurationOrDefault("llm.timeout", cfg.LLM.Timeout, defaultLLMTimeout); err != nil {
		return d, err
	}
	if d.preCheckEvery, err = config.ParseDurationOrDefault("content.pre_check_every", cfg.Content.PreCheckEvery, defaultPreCheckEvery); err != nil {
		return d, err
	}
	if d.postCheckEvery, err = config.ParseDurationOrDefault("content.post_check_every", cfg.Content.PostCheckEvery, defaultPostCheckEvery); err != nil {
		return d, err
	}
	if d.refreshEvery, err = config.ParseDurationOrDefault("calendar.refresh_every", cfg.Calendar.RefreshEvery, defaultRefreshEvery); err != nil {
		return d, err
	}
	return d, nil
}

// validateConfig rejects reloads that would break running components.
// Structural settings (storage path, telegram token) cannot change live;
// a changed value is an error rather than a silent ignore.
func validateConfig(prev, next *config.Config) error {
	if strings.TrimSpace(next.Telegram.Token) == "" {
		return errors.New("telegram.token is empty")
	}
	if next.Telegram.Token != prev.Telegram.Token {
		return errors.New("telegram.token cannot change at runtime")
	}
	if next.Storage.Path != prev.Storage.Path {
		return errors.New("storage.path cannot change at runtime")
	}
	if _, err := parseDurations(next); err != nil {
		return err
	}
	return nil
}

func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return errors.New("app already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	prev := a.cfgm.Get()
	a.cfgm.SetValidator(func(_ context.Context, next *config.Config) error {
		return validateConfig(prev, next)
	})

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return fmt.Errorf("start telegram adapter: %w", err)
	}
	if err := a.router.PublishCommandMenu(runCtx); err != nil {
		a.log.Warn("command menu update failed", logx.Err(err))
	}
	a.sched.Start(runCtx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.router.DispatchLoop(runCtx, a.updates)
	}()

	// Prime the calendar before the first scheduled sync so the menu has
	// events right after boot. Failures are retried by the scheduler.
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		syncCtx, syncCancel := context.WithTimeout(runCtx, 30*time.Second)
		defer syncCancel()
		if err := a.source.Sync(syncCtx); err != nil && runCtx.Err() == nil {
			a.log.Warn("initial calendar sync failed", logx.Err(err))
		}
	}()

	sub := a.cfgm.Subscribe(4)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil && runCtx.Err() == nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	a.started = true
	a.log.Info("app started")
	return nil
}

// applyReload propagates the live-tunable parts of a validated config:
// logging level/sinks and the admin allow-list. Everything else takes
// effect on restart.
func (a *App) applyReload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a.gateway.SetAdmins(cfg.Telegram.AdminUserIDs)
	a.notifier.SetAdmins(cfg.Telegram.AdminUserIDs)
	a.log.Info("config applied", logx.Int("admins", len(cfg.Telegram.AdminUserIDs)))
}

func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	a.log.Info("stopping")

	a.sched.Stop(ctx)
	if err := a.adapter.Stop(ctx); err != nil {
		a.log.Warn("adapter stop", logx.Err(err))
	}
	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("stop timed out waiting for background loops")
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close", logx.Err(err))
	}
	a.started = false
	a.log.Info("stopped")
	return a.logs.Close()
}
