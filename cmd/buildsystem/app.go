package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/buildsystem/server/internal/config"
	"github.com/buildsystem/server/internal/core/event"
	coresys "github.com/buildsystem/server/internal/core/system"
	"github.com/buildsystem/server/internal/data"
	"github.com/buildsystem/server/internal/handler"
	"github.com/buildsystem/server/internal/host"
	"github.com/buildsystem/server/internal/identity"
	"github.com/buildsystem/server/internal/persist"
	"github.com/buildsystem/server/internal/scripting"
	"github.com/buildsystem/server/internal/system"
	"github.com/buildsystem/server/internal/world"
	"go.uber.org/zap"
)

// app is everything serve and exec share.
type app struct {
	cfg *config.Config
	log *zap.Logger

	db         *persist.DB
	playerRepo *persist.PlayerRepo

	bus         *event.Bus
	identity    *identity.Cache
	scripts     *scripting.Engine
	runner      *coresys.Runner
	persistence *system.PersistenceSystem
	history     *system.HistorySystem
	deps        *handler.Deps

	// async tracks command work running off the tick goroutine.
	async sync.WaitGroup
}

func bootstrap(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("Database")

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(ctx, db.Pool, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("Migrations applied (schema v%d)", version))
	fmt.Println()

	a := &app{cfg: cfg, log: log, db: db, bus: event.NewBus()}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg, log := a.cfg, a.log
	worldRepo := persist.NewWorldRepo(a.db)
	historyRepo := persist.NewHistoryRepo(a.db)
	a.playerRepo = persist.NewPlayerRepo(a.db)

	// 4. Load data
	printSection("Data")

	messages, err := data.LoadMessageTable(cfg.Data.Messages)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	printStat("Messages", messages.Count())

	a.scripts, err = scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	a.scripts.Subscribe(a.bus)
	printOK("Lua hooks loaded")

	// 5. Identity cache, warmed from known players
	svc := identity.NewHTTPService(&http.Client{Timeout: cfg.Identity.Timeout}, cfg.Identity.ProfileURL, cfg.Identity.NamesURL)
	a.identity = identity.NewCache(svc, cfg.Identity.Timeout, log)
	players, err := a.playerRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	for _, p := range players {
		a.identity.CacheUser(p.ID, p.Name)
	}
	printStat("Known players", a.identity.Len())

	// 6. Registry, in creation order
	hp := host.NewDirProvider(cfg.Worlds.Container, cfg.Worlds.MarkerFile)
	registry := world.NewRegistry()
	records, err := worldRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load worlds: %w", err)
	}
	for _, rec := range records {
		rec.Loaded = hp.IsWorldResident(rec.Name)
		if err := registry.Register(world.FromRecord(rec)); err != nil {
			log.Warn("skip stored world", zap.String("world", rec.Name), zap.Error(err))
		}
	}
	printStat("Build worlds", registry.Len())

	gen, err := world.ParseGenerator(cfg.Worlds.DefaultGenerator)
	if err != nil {
		log.Warn("invalid default generator, using VOID", zap.String("generator", cfg.Worlds.DefaultGenerator))
		gen = world.DefaultGenerator
	}
	fmt.Println()

	// 7. Systems
	status := system.NewStatusEngine(a.bus, log)
	a.persistence = system.NewPersistenceSystem(registry, worldRepo, a.bus, cfg.Persist.SaveInterval, log)
	a.history = system.NewHistorySystem(historyRepo, a.bus, cfg.Persist.SaveInterval, log)

	a.runner = coresys.NewRunner()
	a.runner.Register(system.NewEventDispatchSystem(a.bus))
	a.runner.Register(system.NewResidencySystem(registry, hp, cfg.Worlds.ResidencyRefresh))
	a.runner.Register(a.persistence)
	a.runner.Register(a.history)

	a.deps = &handler.Deps{
		Registry:   registry,
		Importer:   system.NewImporter(registry, hp, a.identity, a.bus, gen, log),
		Unimporter: system.NewUnimporter(registry, hp, a.bus, log),
		Status:     status,
		Identity:   a.identity,
		Messages:   messages,
		Host:       hp,
		History:    historyRepo,
		Log:        log,
	}
	return nil
}

// goAsync runs fn on its own goroutine and tracks it for shutdown.
func (a *app) goAsync(fn func()) {
	a.async.Add(1)
	go func() {
		defer a.async.Done()
		fn()
	}()
}

// shutdown waits for in-flight commands, delivers their events and writes
// everything to the database.
func (a *app) shutdown() {
	a.async.Wait()
	a.runner.TickPhase(coresys.PhaseEvents, 0)
	a.history.Flush()
	a.persistence.SaveAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	entries := a.identity.Entries()
	rows := make([]persist.PlayerRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, persist.PlayerRow{ID: e.ID, Name: e.Name})
	}
	if err := a.playerRepo.SaveAll(ctx, rows); err != nil {
		a.log.Error("save known players", zap.Error(err))
	}
}

func (a *app) close() {
	if a.scripts != nil {
		a.scripts.Close()
	}
	a.db.Close()
	_ = a.log.Sync()
}
