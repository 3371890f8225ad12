package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/utils"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var DeleteCard = discord.SlashCommandCreate{
	Name:        "delete_card",
	Description: "[ADMIN] Delete a card image",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "filename",
			Description:  "The filename of the card to delete",
			Required:     true,
			Autocomplete: true,
		},
	},
}

const (
	deletedColor      = 0xFF9900
	maxAutocomplete   = 25
	autocompleteLabel = 100
)

func DeleteCardHandler(b *cardcaptor.Bot) handler.CommandHandler {
	return requireAdmin(func(e *handler.CommandEvent) error {
		key := e.SlashCommandInteractionData().String("filename")

		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		if err := deleteCard(ctx, b, key); err != nil {
			if errors.Is(err, cards.ErrTemplateNotFound) {
				return updateEmbed(e, discord.Embed{
					Description: fmt.Sprintf("❌ Card '%s' not found.", key),
					Color:       config.ErrorColor,
				})
			}
			if !errors.Is(err, cards.ErrTemplateInUse) {
				slog.Error("Failed to delete card", slog.String("type", "cmd"), slog.String("key", key), slog.Any("error", err))
			}
			return utils.EH.UpdateWithError(e, err)
		}

		slog.Info("Card deleted",
			slog.String("type", "cmd"),
			slog.String("key", key),
			slog.String("user", e.User().Username))

		return updateEmbed(e, discord.Embed{
			Title:       "🗑️ Card Deleted",
			Description: fmt.Sprintf("**%s** has been deleted successfully.", key),
			Color:       deletedColor,
		})
	})
}

// deleteCard removes the template first so a spawned card never loses its art.
// Art with no template is still removable.
func deleteCard(ctx context.Context, b *cardcaptor.Bot, key string) error {
	templateErr := b.Catalog.RemoveTemplate(ctx, key)
	if templateErr != nil && !errors.Is(templateErr, cards.ErrTemplateNotFound) {
		return templateErr
	}

	artErr := b.ArtStore.Delete(ctx, key)
	b.Renderer.Invalidate(key)

	switch {
	case artErr == nil:
		return nil
	case errors.Is(artErr, services.ErrArtNotFound):
		// nothing on either side
		if templateErr != nil {
			return templateErr
		}
		return nil
	default:
		return artErr
	}
}

// DeleteCardAutocomplete suggests registered cards by fuzzy name match.
func DeleteCardAutocomplete(b *cardcaptor.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		if !isAdminMember(e.Member()) {
			return e.AutocompleteResult(nil)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		matches, err := b.Catalog.FindByName(ctx, e.Data.String("filename"), maxAutocomplete)
		if err != nil {
			slog.Error("Failed to search cards", slog.String("type", "cmd"), slog.Any("error", err))
			return e.AutocompleteResult(nil)
		}

		choices := make([]discord.AutocompleteChoice, 0, len(matches))
		for _, t := range matches {
			label := fmt.Sprintf("%s (%s)", t.Name, t.ArtRef)
			if r := []rune(label); len(r) > autocompleteLabel {
				label = string(r[:autocompleteLabel])
			}
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  label,
				Value: t.ArtRef,
			})
		}
		return e.AutocompleteResult(choices)
	}
}
