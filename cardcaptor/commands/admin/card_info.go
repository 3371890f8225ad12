package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/repositories"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var CardInfo = discord.SlashCommandCreate{
	Name:        "card_info",
	Description: "[ADMIN] Get information about the art folder",
}

const infoColor = 0x9932CC

type artInfo struct {
	location   string
	exists     bool
	valid      int
	invalid    int
	validBytes int64
}

func summarizeArt(store services.ArtStore, objects []services.ArtObject) artInfo {
	info := artInfo{location: store.Location(), exists: true}
	if disk, ok := store.(interface{ DirExists() bool }); ok {
		info.exists = disk.DirExists()
	}
	for _, obj := range objects {
		if obj.Valid {
			info.valid++
			info.validBytes += obj.Size
		} else {
			info.invalid++
		}
	}
	return info
}

func infoEmbed(art artInfo, counts repositories.CatalogCounts, driver string) discord.Embed {
	exists := "❌ No"
	if art.exists {
		exists = "✅ Yes"
	}
	inline := true

	return discord.Embed{
		Title: "📊 Art Folder Information",
		Color: infoColor,
		Fields: []discord.EmbedField{
			{Name: "Folder Exists", Value: exists, Inline: &inline},
			{Name: "Valid Images", Value: strconv.Itoa(art.valid), Inline: &inline},
			{Name: "Invalid Files", Value: strconv.Itoa(art.invalid), Inline: &inline},
			{Name: "Total Size", Value: fmt.Sprintf("%.1f MB", float64(art.validBytes)/(1024*1024)), Inline: &inline},
			{Name: "Registered Cards", Value: strconv.Itoa(counts.Templates), Inline: &inline},
			{Name: "Spawned / Claimed", Value: fmt.Sprintf("%d / %d", counts.Spawned, counts.Claimed), Inline: &inline},
			{Name: "Collectors", Value: strconv.Itoa(counts.Owners), Inline: &inline},
			{Name: "Storage", Value: "`" + art.location + "`", Inline: &inline},
			{Name: "Database", Value: driver, Inline: &inline},
		},
	}
}

func CardInfoHandler(b *cardcaptor.Bot) handler.CommandHandler {
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
		counts, err := b.CardRepository.Counts(ctx)
		if err != nil {
			slog.Error("Failed to count catalog", slog.String("type", "cmd"), slog.Any("error", err))
			return utils.EH.UpdateWithError(e, err)
		}

		return updateEmbed(e, infoEmbed(summarizeArt(b.ArtStore, objects), counts, b.DB.Driver()))
	})
}
