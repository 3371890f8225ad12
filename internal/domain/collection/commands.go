package collection

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

const (
	RecordsPerPage  = 10
	collectionColor = 0x0099FF
	emptyColor      = 0xFF0000
)

var MyCards = discord.SlashCommandCreate{
	Name:        "mycards",
	Description: "View your claimed cards",
}

type Commands struct {
	svc       *Service
	paginator *paginator.Manager
}

func NewCommands(svc *Service, paginator *paginator.Manager) *Commands {
	return &Commands{
		svc:       svc,
		paginator: paginator,
	}
}

func (c *Commands) MyCards(event *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := c.svc.RecordsFor(ctx, event.User().ID.String())
	if err != nil {
		slog.Error("Failed to fetch user cards",
			slog.String("type", "cmd"),
			slog.String("user_id", event.User().ID.String()),
			slog.Any("error", err))
		return event.CreateMessage(discord.MessageCreate{
			Content: "An error occurred while fetching your cards.",
			Flags:   discord.MessageFlagEphemeral,
		})
	}

	if len(records) == 0 {
		return event.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "Your Cards",
				Description: "You haven't claimed any cards yet!",
				Color:       emptyColor,
			}},
			Flags: discord.MessageFlagEphemeral,
		})
	}

	stats := Summarize(records)
	pages := int(math.Ceil(float64(len(records)) / float64(RecordsPerPage)))

	return c.paginator.Create(event.Respond, paginator.Pages{
		ID:      event.ID().String(),
		Creator: event.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			startIdx := page * RecordsPerPage
			endIdx := min(startIdx+RecordsPerPage, len(records))

			embed.
				SetTitle(fmt.Sprintf("Your Cards (%d)", len(records))).
				SetDescription(FormatStats(stats) + "\n\n" + formatRecords(records[startIdx:endIdx])).
				SetColor(collectionColor).
				SetFooter(fmt.Sprintf("Page %d/%d", page+1, pages), "")
		},
		Pages:      pages,
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, true)
}

// FormatRecord renders one owned card as "⚪ **Fireball** (Common)".
func FormatRecord(r cards.OwnershipRecord) string {
	name := r.CardName
	if name == "" {
		name = "Unknown Card"
	}
	meta, err := rarity.Metadata(r.Rarity)
	if err != nil {
		meta, _ = rarity.Metadata(rarity.Common)
	}
	return fmt.Sprintf("%s **%s** (%s)", meta.Emoji, name, meta.Label)
}

func FormatStats(stats Stats) string {
	parts := make([]string, 0, len(rarity.All))
	for _, t := range rarity.All {
		meta, _ := rarity.Metadata(t)
		parts = append(parts, fmt.Sprintf("%s %d", meta.Emoji, stats.ByTier[t]))
	}
	return strings.Join(parts, " · ")
}

func formatRecords(records []cards.OwnershipRecord) string {
	var description strings.Builder
	for _, r := range records {
		description.WriteString(FormatRecord(r))
		description.WriteString("\n")
	}
	return strings.TrimSuffix(description.String(), "\n")
}
