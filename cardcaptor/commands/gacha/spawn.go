package gacha

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/utils"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
)

var Spawn = discord.SlashCommandCreate{
	Name:        "spawn",
	Description: "Spawn random cards to claim",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "count",
			Description: "How many cards to spawn",
			Required:    false,
			MinValue:    intPtr(config.MinSpawnCount),
			MaxValue:    intPtr(config.MaxSpawnCount),
		},
	},
}

func intPtr(v int) *int { return &v }

// spawnMessage is a spawn ready to be sent either as a new message or as the
// edit of a deferred response.
type spawnMessage struct {
	content    string
	embeds     []discord.Embed
	components []discord.ContainerComponent
	files      []*discord.File
	units      []cards.SpawnedUnit
}

func (m spawnMessage) create() discord.MessageCreate {
	return discord.MessageCreate{
		Content:    m.content,
		Embeds:     m.embeds,
		Components: m.components,
		Files:      m.files,
	}
}

func (m spawnMessage) update() discord.MessageUpdate {
	return discord.MessageUpdate{
		Content:    &m.content,
		Embeds:     &m.embeds,
		Components: &m.components,
		Files:      m.files,
	}
}

// buildSpawn opens a spawn and renders it. A render failure still yields a
// claimable message, just without the image.
func buildSpawn(ctx context.Context, b *cardcaptor.Bot, count int) (spawnMessage, error) {
	units, err := b.Spawner.OpenSpawn(ctx, count)
	if err != nil {
		return spawnMessage{}, err
	}
	if len(units) == 0 {
		return spawnMessage{content: utils.ExhaustedMessage}, nil
	}

	renderCards := make([]services.RenderCard, len(units))
	for i, u := range units {
		renderCards[i] = services.RenderCard{Name: u.CardName, Rarity: u.Rarity, ArtRef: u.ArtRef}
	}

	msg := spawnMessage{
		components: utils.SpawnComponents(units),
		units:      units,
	}

	renderCtx, cancel := context.WithTimeout(ctx, config.RenderTimeout)
	defer cancel()
	img, err := b.Renderer.Render(renderCtx, renderCards)
	if err != nil {
		slog.Warn("Sending spawn without image",
			slog.String("type", "sys"),
			slog.String("session_id", units[0].SessionID),
			slog.Any("error", err))
	} else {
		msg.files = []*discord.File{discord.NewFile(utils.SpawnImageName, "", bytes.NewReader(img))}
	}
	msg.embeds = []discord.Embed{utils.SpawnEmbed(units, err == nil)}
	return msg, nil
}

func SpawnHandler(b *cardcaptor.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		count := b.Cfg.Spawn.Count
		if v, ok := e.SlashCommandInteractionData().OptInt("count"); ok {
			count = v
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer spawn: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.RenderTimeout+config.DefaultQueryTimeout)
		defer cancel()

		msg, err := buildSpawn(ctx, b, count)
		if err != nil {
			slog.Error("Failed to spawn cards",
				slog.String("type", "cmd"),
				slog.String("user_id", e.User().ID.String()),
				slog.Any("error", err))
			return utils.EH.UpdateWithError(e, err)
		}

		_, err = e.UpdateInteractionResponse(msg.update())
		if err != nil {
			return fmt.Errorf("failed to send spawn: %w", err)
		}

		slog.Info("Cards spawned",
			slog.String("type", "cmd"),
			slog.String("user_id", e.User().ID.String()),
			slog.Int("units", len(msg.units)))
		return nil
	}
}

// SpawnPoster posts spawns into a channel outside of any interaction.
type SpawnPoster struct {
	b *cardcaptor.Bot
}

func NewSpawnPoster(b *cardcaptor.Bot) *SpawnPoster {
	return &SpawnPoster{b: b}
}

func (p *SpawnPoster) PostSpawn(ctx context.Context, channelID snowflake.ID) error {
	msg, err := buildSpawn(ctx, p.b, p.b.Cfg.Spawn.Count)
	if err != nil {
		return err
	}
	// an exhausted pool is not worth a message every interval
	if len(msg.units) == 0 {
		slog.Debug("Skipping scheduled spawn, pool exhausted", slog.String("type", "sys"))
		return nil
	}

	if _, err := p.b.Client.Rest().CreateMessage(channelID, msg.create()); err != nil {
		return fmt.Errorf("failed to post spawn: %w", err)
	}
	return nil
}
