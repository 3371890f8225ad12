package admin

import (
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Commands = []discord.ApplicationCommandCreate{
	UploadCard,
	ListCards,
	DeleteCard,
	CardInfo,
}

const permissionDenied = "You need administrator permissions to use this command."

func isAdminMember(member *discord.ResolvedMember) bool {
	return member != nil && member.Permissions.Has(discord.PermissionAdministrator)
}

// requireAdmin wraps a handler so non-administrators get an ephemeral refusal.
func requireAdmin(h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !isAdminMember(e.Member()) {
			return utils.EH.CreatePermissionError(e, permissionDenied)
		}
		return h(e)
	}
}
