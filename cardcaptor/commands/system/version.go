package system

import (
	"fmt"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Version = discord.SlashCommandCreate{
	Name:        "version",
	Description: "Show the running CardCaptor version",
}

func VersionHandler(b *cardcaptor.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		content := fmt.Sprintf("Version: %s\nCommit: %s\nSpawn mode: %s", b.Version, b.Commit, b.Spawner.Mode())
		return e.CreateMessage(discord.MessageCreate{
			Content: content,
			Flags:   discord.MessageFlagEphemeral,
		})
	}
}
