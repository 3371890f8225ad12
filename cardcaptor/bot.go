package cardcaptor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/repositories"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/claim"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/collection"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/spawn"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

// Bot holds everything command handlers need.
type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	DB             *database.DB
	CardRepository *repositories.CardRepository
	Spawns         *repositories.SpawnRepository

	Catalog    *cards.Catalog
	Collection *collection.Service
	Spawner    *spawn.Engine
	Arbitrator *claim.Arbitrator

	ArtStore   services.ArtStore
	Renderer   *services.CardImageService
	Downloader *services.Downloader
	Scheduler  *services.SpawnScheduler
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("CardCaptor is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("for cards to claim"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "sys"), slog.Any("error", err))
	}
}

// NewArtStore opens the storage backend selected by cfg.Art.Storage.
func NewArtStore(ctx context.Context, cfg Config) (services.ArtStore, error) {
	if cfg.Art.Storage == ArtStorageSpaces {
		return services.NewSpacesArtStore(ctx,
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.CardRoot)
	}
	return services.NewDiskArtStore(cfg.Art.Dir)
}
