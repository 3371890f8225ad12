package gacha

import (
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/collection"
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{
	Spawn,
	collection.MyCards,
}
