package admin

import (
	"context"
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

var ListCards = discord.SlashCommandCreate{
	Name:        "list_cards",
	Description: "[ADMIN] List all available card images",
}

const (
	listColor      = 0x0099FF
	maxFieldText   = 1000
	maxInvalidShow = 10
)

func ListCardsHandler(b *cardcaptor.Bot) handler.CommandHandler {
	return requireAdmin(func(e *handler.CommandEvent) error {
		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultQueryTimeout)
		defer cancel()

		objects, err := b.ArtStore.List(ctx)
		if err != nil {
			slog.Error("Failed to list art", slog.String("type", "cmd"), slog.Any("error", err))
			return utils.EH.UpdateWithError(e, err)
		}
		templates, err := b.Catalog.ListTemplates(ctx)
		if err != nil {
			slog.Error("Failed to list templates", slog.String("type", "cmd"), slog.Any("error", err))
			return utils.EH.UpdateWithError(e, err)
		}

		return updateEmbed(e, listEmbed(objects, templates))
	})
}

func listEmbed(objects []services.ArtObject, templates []cards.CardTemplate) discord.Embed {
	registered := make(map[string]struct{}, len(templates))
	for _, t := range templates {
		registered[t.ArtRef] = struct{}{}
	}

	var valid, invalid, unregistered []string
	for _, obj := range objects {
		switch {
		case !obj.Valid:
			invalid = append(invalid, obj.Key)
		default:
			valid = append(valid, obj.Key)
			if _, ok := registered[obj.Key]; !ok {
				unregistered = append(unregistered, obj.Key)
			}
		}
	}

	embed := discord.Embed{
		Title: "📁 Card Images",
		Color: listColor,
	}
	if len(objects) == 0 {
		embed.Description = "No card images found."
		return embed
	}

	if len(valid) > 0 {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  fmt.Sprintf("Valid Images (%d)", len(valid)),
			Value: codeBlock(truncateList(valid, maxFieldText)),
		})
	}
	if len(invalid) > 0 {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  fmt.Sprintf("Invalid Files (%d)", len(invalid)),
			Value: codeBlock(strings.Join(invalid[:min(len(invalid), maxInvalidShow)], "\n")),
		})
	}
	if len(unregistered) > 0 {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  fmt.Sprintf("Not Spawnable Yet (%d)", len(unregistered)),
			Value: codeBlock(truncateList(unregistered, maxFieldText/2)),
		})
	}
	return embed
}

// truncateList joins items by newline, stopping before limit characters and
// noting how many were left out.
func truncateList(items []string, limit int) string {
	var sb strings.Builder
	for i, item := range items {
		if sb.Len()+len(item)+1 > limit {
			fmt.Fprintf(&sb, "... and %d more", len(items)-i)
			break
		}
		sb.WriteString(item)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func codeBlock(s string) string {
	return "```" + s + "```"
}
