package main

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/config"
	"github.com/greggjuri/chaos-dungeon/internal/content"
	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/engine"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
	"github.com/greggjuri/chaos-dungeon/internal/gameserver"
	"github.com/greggjuri/chaos-dungeon/internal/narrator"
	"github.com/greggjuri/chaos-dungeon/internal/observability"
	"github.com/greggjuri/chaos-dungeon/internal/scripting"
	"github.com/greggjuri/chaos-dungeon/internal/storage/postgres"
	"github.com/greggjuri/chaos-dungeon/internal/storage/sqlite"
)

// App is the assembled runtime for one chaosd process.
type App struct {
	Logger *zap.Logger
	Turns  *gameserver.TurnService
	// MetricsServer is nil when metrics.addr is empty.
	MetricsServer *observability.Server
}

// Storage is the selected session store and its audit sink.
type Storage struct {
	Store session.Store
	Audit gameserver.AuditSink
}

var providerSet = wire.NewSet(
	provideLogger,
	provideContent,
	provideEngine,
	provideHostilityScript,
	provideNarrator,
	provideStorage,
	provideMetricsServer,
	provideMetrics,
	provideTurnService,
	wire.Struct(new(App), "*"),
)

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideContent(cfg config.Config, logger *zap.Logger) (*content.Library, error) {
	return content.Load(content.Dirs{
		Bestiary:        cfg.Content.BestiaryDir,
		Items:           cfg.Content.ItemsDir,
		Loot:            cfg.Content.LootDir,
		HostilityScript: cfg.Content.HostilityScript,
	}, logger)
}

func provideEngine(cfg config.Config, lib *content.Library, logger *zap.Logger) *engine.Engine {
	return engine.New(lib.Bestiary, lib.Items, lib.Loot, engine.Options{
		Rules: combat.Rules{
			FleeDifficulty:    cfg.Rules.FleeDifficulty,
			DefendACBonus:     cfg.Rules.DefendACBonus,
			NaturalTwentyCrit: cfg.Rules.NaturalTwentyCrit,
		},
		ConfirmNonHostile: cfg.Rules.ConfirmNonHostile,
	}, logger)
}

func provideHostilityScript(cfg config.Config, lib *content.Library, logger *zap.Logger) (*scripting.HostilityScript, func(), error) {
	script, err := scripting.NewHostilityScript(lib.HostilityScript, cfg.Content.InstructionLimit, logger)
	if err != nil {
		return nil, nil, err
	}
	return script, script.Close, nil
}

func provideNarrator(ctx context.Context, cfg config.Config, logger *zap.Logger) (narrator.Narrator, func(), error) {
	n := cfg.Narrator
	opts := narrator.LLMOptions{MaxTokens: n.MaxTokens, Retries: n.Retries, RetryBase: n.RetryBase}
	switch n.Provider {
	case "anthropic":
		llm, err := narrator.NewLLM(narrator.NewAnthropic(n.APIKey, n.Model), opts, logger)
		if err != nil {
			return nil, nil, err
		}
		return llm, func() {}, nil
	case "gemini":
		g, err := narrator.NewGemini(ctx, n.APIKey, n.Model)
		if err != nil {
			return nil, nil, oops.Code("NARRATOR_UNAVAILABLE").With("provider", n.Provider).Wrap(err)
		}
		llm, err := narrator.NewLLM(g, opts, logger)
		if err != nil {
			_ = g.Close()
			return nil, nil, err
		}
		return llm, func() { _ = g.Close() }, nil
	default:
		return narrator.NewStatic(), func() {}, nil
	}
}

func provideStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (Storage, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return Storage{}, nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
		}
		return Storage{
			Store: pool.Sessions(),
			Audit: pool.Audit(),
		}, pool.Close, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return Storage{}, nil, oops.Code("DB_CONNECT_FAILED").With("path", cfg.Store.SQLitePath).Wrap(err)
		}
		return Storage{Store: store, Audit: store}, func() { _ = store.Close() }, nil
	default:
		return Storage{
			Store: session.NewMemoryStore(),
			Audit: gameserver.NewLogAuditSink(logger),
		}, func() {}, nil
	}
}

func provideMetricsServer(cfg config.Config, logger *zap.Logger) *observability.Server {
	if cfg.Metrics.Addr == "" {
		return nil
	}
	return observability.NewServer(cfg.Metrics.Addr, logger)
}

// provideMetrics returns the server's collectors, or collectors on a private
// registry when the endpoint is disabled.
func provideMetrics(srv *observability.Server) *observability.Metrics {
	if srv == nil {
		return observability.NewMetrics(prometheus.NewRegistry())
	}
	return srv.Metrics()
}

func provideTurnService(
	cfg config.Config,
	eng *engine.Engine,
	storage Storage,
	n narrator.Narrator,
	script *scripting.HostilityScript,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *gameserver.TurnService {
	return gameserver.NewTurnService(gameserver.Deps{
		Engine:         eng,
		Store:          storage.Store,
		Narrator:       n,
		Hostility:      script,
		Audit:          storage.Audit,
		Metrics:        metrics,
		NarrateTimeout: cfg.Narrator.Timeout,
		StartingGold:   cfg.Rules.StartingGold,
		Now:            time.Now,
		Logger:         logger,
	})
}
