package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/commands"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/commands/admin"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/commands/gacha"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/commands/system"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/repositories"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/handlers"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/logger"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/claim"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/collection"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/spawn"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	// until the config is read, log with defaults
	slog.SetDefault(slog.New(logger.NewHandler(os.Stdout, logger.Options{Level: slog.LevelInfo})))

	cfg, err := cardcaptor.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}
	setupLogger(cfg.Log)

	slog.Info("Starting CardCaptor",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbStartTime := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.String("driver", cfg.DB.Driver),
			slog.Any("error", err),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("type", "db"),
		slog.String("driver", db.Driver()),
		slog.Duration("took", time.Since(dbStartTime)))

	b := cardcaptor.New(*cfg, version, commit)
	if err := wire(ctx, b, db); err != nil {
		slog.Error("Failed to initialize services", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}

	if added, err := services.SyncCatalog(ctx, b.ArtStore, b.Catalog); err != nil {
		slog.Warn("Failed to sync art into the catalog",
			slog.String("type", "sys"),
			slog.Int("added", added),
			slog.Any("error", err))
	}

	h := handler.New()
	registerHandlers(h, b)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"))
		os.Exit(-1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"))
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"))
		os.Exit(-1)
	}

	if interval := cfg.Spawn.ScheduleInterval(); interval > 0 {
		scheduler, err := services.NewSpawnScheduler(gacha.NewSpawnPoster(b), cfg.Spawn.ChannelID, interval,
			config.RenderTimeout+config.DefaultQueryTimeout)
		if err != nil {
			slog.Error("Failed to start scheduled spawns", slog.String("type", "sys"), slog.Any("error", err))
		} else {
			b.Scheduler = scheduler
			b.Scheduler.Start()
			defer func() {
				if err := b.Scheduler.Shutdown(); err != nil {
					slog.Warn("Scheduler shutdown failed", slog.String("type", "sys"), slog.Any("error", err))
				}
			}()
		}
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...", slog.String("type", "sys"))
}

func setupLogger(cfg cardcaptor.LogConfig) {
	if strings.EqualFold(cfg.Format, "json") {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
		})))
		return
	}
	slog.SetDefault(slog.New(logger.NewHandler(os.Stdout, logger.Options{
		Level:     cfg.Level,
		NoColor:   cfg.NoColor,
		AddSource: cfg.AddSource,
	})))
}

// wire builds repositories, domain services and storage on top of db.
func wire(ctx context.Context, b *cardcaptor.Bot, db *database.DB) error {
	b.DB = db
	bunDB := db.BunDB()

	b.CardRepository = repositories.NewCardRepository(bunDB)
	b.Spawns = repositories.NewSpawnRepository(bunDB)
	ownership := repositories.NewOwnershipRepository(bunDB)

	b.Catalog = cards.NewCatalog(b.CardRepository)
	b.Collection = collection.NewService(ownership)

	policy, err := rarity.NewPolicy(b.Cfg.Rarity.Weights(), nil)
	if err != nil {
		return fmt.Errorf("rarity policy: %w", err)
	}
	b.Spawner = spawn.NewEngine(b.Catalog, b.Collection, b.Spawns, policy,
		spawn.WithMode(b.Cfg.Spawn.ParsedMode()))
	b.Arbitrator = claim.NewArbitrator(repositories.NewClaimStore(bunDB),
		claim.WithRetry(config.MaxRetries, 50*time.Millisecond),
		claim.WithTxTimeout(config.ClaimTimeout))

	art, err := cardcaptor.NewArtStore(ctx, b.Cfg)
	if err != nil {
		return err
	}
	b.ArtStore = art

	b.Renderer, err = services.NewCardImageService(art, services.CardImageOptions{
		ChromePath:  b.Cfg.Render.ChromePath,
		Concurrency: b.Cfg.Render.Concurrency,
		CacheSize:   b.Cfg.Render.CacheSize,
		Timeout:     config.RenderTimeout,
	})
	if err != nil {
		return err
	}
	b.Downloader = services.NewDownloader(config.MaxUploadSize, config.DownloadTimeout)
	return nil
}

func registerHandlers(h *handler.Mux, b *cardcaptor.Bot) {
	// Gacha
	h.Command("/spawn", handlers.WrapWithLogging("spawn", gacha.SpawnHandler(b)))
	h.Component("/claim/", handlers.WrapComponentWithLogging("claim", gacha.ClaimButtonHandler(b)))
	mycards := collection.NewCommands(b.Collection, b.Paginator)
	h.Command("/mycards", handlers.WrapWithLogging("mycards", mycards.MyCards))

	// Admin
	h.Command("/upload_card", handlers.WrapWithLogging("upload_card", admin.UploadCardHandler(b)))
	h.Command("/list_cards", handlers.WrapWithLogging("list_cards", admin.ListCardsHandler(b)))
	h.Command("/delete_card", handlers.WrapWithLogging("delete_card", admin.DeleteCardHandler(b)))
	h.Autocomplete("/delete_card", handlers.WrapAutocompleteWithLogging("delete_card", admin.DeleteCardAutocomplete(b)))
	h.Command("/card_info", handlers.WrapWithLogging("card_info", admin.CardInfoHandler(b)))

	// System
	h.Command("/version", system.VersionHandler(b))
}
