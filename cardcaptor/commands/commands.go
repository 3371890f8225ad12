package commands

import (
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/commands/admin"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/commands/gacha"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/commands/system"
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{}

func init() {
	Commands = append(Commands, gacha.Commands...)
	Commands = append(Commands, admin.Commands...)
	Commands = append(Commands, system.Commands...)
}
