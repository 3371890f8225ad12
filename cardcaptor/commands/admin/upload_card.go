package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/utils"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var UploadCard = discord.SlashCommandCreate{
	Name:        "upload_card",
	Description: "[ADMIN] Upload a new card image",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionAttachment{
			Name:        "image",
			Description: "The image file to upload",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "name",
			Description: "Optional custom name for the card",
			Required:    false,
			MaxLength:   intPtr(64),
		},
	},
}

func intPtr(v int) *int { return &v }

// validateUpload checks the attachment before anything is downloaded.
func validateUpload(filename string, size int) error {
	if !services.IsAllowedArt(filename) {
		return services.ErrUnsupportedArt
	}
	if size > config.MaxUploadSize {
		return services.ErrTooLarge
	}
	return nil
}

func UploadCardHandler(b *cardcaptor.Bot) handler.CommandHandler {
	return requireAdmin(func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		attachment := data.Attachment("image")

		if err := validateUpload(attachment.Filename, attachment.Size); err != nil {
			return utils.EH.HandleError(e, err)
		}

		name := strings.TrimSpace(data.String("name"))
		if name == "" {
			name = cards.NameFromFilename(attachment.Filename)
		}
		key, err := services.ArtKey(name, attachment.Filename)
		if err != nil {
			return utils.EH.HandleError(e, err)
		}

		if err := e.DeferCreateMessage(true); err != nil {
			return fmt.Errorf("failed to defer upload: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DownloadTimeout+config.DefaultQueryTimeout)
		defer cancel()

		exists, err := b.ArtStore.Exists(ctx, key)
		if err != nil {
			slog.Error("Failed to check art", slog.String("type", "cmd"), slog.String("key", key), slog.Any("error", err))
			return utils.EH.UpdateWithError(e, err)
		}
		if exists {
			return updateEmbed(e, discord.Embed{
				Description: fmt.Sprintf("❌ A card with the name '%s' already exists.", key),
				Color:       config.ErrorColor,
			})
		}

		img, err := b.Downloader.Download(ctx, attachment.URL)
		if err != nil {
			slog.Error("Failed to download upload", slog.String("type", "cmd"), slog.String("key", key), slog.Any("error", err))
			return utils.EH.UpdateWithError(e, err)
		}

		if err := b.ArtStore.Put(ctx, key, img); err != nil {
			slog.Error("Failed to store art", slog.String("type", "cmd"), slog.String("key", key), slog.Any("error", err))
			return utils.EH.UpdateWithError(e, err)
		}
		b.Renderer.Invalidate(key)

		template, err := b.Catalog.AddTemplate(ctx, name, key)
		if err != nil {
			// a template without art already points at key; the upload just restored it
			if !errors.Is(err, cards.ErrDuplicateReference) {
				if derr := b.ArtStore.Delete(context.WithoutCancel(ctx), key); derr != nil {
					slog.Warn("Failed to roll back art", slog.String("type", "cmd"), slog.String("key", key), slog.Any("error", derr))
				}
			}
			return utils.EH.UpdateWithError(e, err)
		}

		slog.Info("Card uploaded",
			slog.String("type", "cmd"),
			slog.String("key", key),
			slog.Int64("card_id", template.ID),
			slog.String("user", e.User().Username))

		return updateEmbed(e, discord.Embed{
			Title: "✅ Card Uploaded Successfully",
			Description: fmt.Sprintf("**Name:** %s\n**Filename:** %s\n**Size:** %.1f KB",
				template.Name, key, float64(len(img))/1024),
			Color: config.SuccessColor,
			Image: &discord.EmbedResource{URL: attachment.URL},
		})
	})
}

func updateEmbed(e *handler.CommandEvent, embed discord.Embed) error {
	_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{embed},
	})
	return err
}
