package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"household-planner/internal/bot"
	"household-planner/internal/config"
	"household-planner/internal/logx"
	"household-planner/internal/metrics"
	"household-planner/internal/repository"
	"household-planner/internal/service"
)

// app holds the wired dependency graph shared by every subcommand.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	templates   *repository.TemplateRepository
	occurrences *repository.OccurrenceRepository
	members     *repository.MemberRepository

	schedule     *service.ScheduleService
	materializer *service.Materializer
	rotation     *service.RotationService
	sweeper      *service.Sweeper
	bot          *bot.Bot
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logx.New(cfg.Log.Level, cfg.Log.Format)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	overflow, err := cfg.Overflow()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.DSN, logx.Component(log, "db"))
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	a := &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		registry:    registry,
		metrics:     m,
		templates:   repository.NewTemplateRepository(db),
		occurrences: repository.NewOccurrenceRepository(db),
		members:     repository.NewMemberRepository(db),
	}
	assignments := repository.NewAssignmentRepository(db)
	rooms := repository.NewRoomRepository(db)

	a.schedule = service.NewScheduleService(a.templates, a.occurrences, rooms, logx.Component(log, "schedule"))
	a.materializer = service.NewMaterializer(a.templates, a.occurrences, service.MaterializerConfig{
		Location:             loc,
		Overflow:             overflow,
		NextOccurrenceWindow: cfg.Horizon.NextOccurrence,
	}, m, logx.Component(log, "materializer"))
	a.rotation = service.NewRotationService(a.templates, assignments, a.members, loc, m, logx.Component(log, "rotation"))

	var notifier service.Notifier = service.LogNotifier{Log: logx.Component(log, "notify")}
	if cfg.Telegram.Token != "" {
		a.bot, err = bot.New(cfg.Telegram.Token, a.members, a.rotation, a.templates, loc, logx.Component(log, "bot"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("bot: %w", err)
		}
		notifier = service.MultiNotifier{
			notifier,
			bot.NewTelegramNotifier(a.bot.API(), a.members, cfg.Telegram.RatePerSec, loc, logx.Component(log, "telegram")),
		}
	}

	a.sweeper = service.NewSweeper(a.templates, a.occurrences, a.members, notifier, a.materializer, service.SweeperConfig{
		DueSoonWindow:     cfg.Horizon.DueSoon,
		GenerationHorizon: cfg.Horizon.Generation,
		DedupeDueSoon:     cfg.Notify.DedupeDueSoon,
	}, m, logx.Component(log, "sweeper"))

	return a, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
