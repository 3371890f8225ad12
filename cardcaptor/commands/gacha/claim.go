package gacha

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/utils"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/claim"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

// ClaimButtonHandler resolves a press on a spawn's claim button.
func ClaimButtonHandler(b *cardcaptor.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		spawnID, err := utils.ParseClaimButtonID(e.Data.CustomID())
		if err != nil {
			return utils.EH.CreateClassifiedError(e, utils.UserError, "That claim button is not valid.")
		}

		if err := e.DeferUpdateMessage(); err != nil {
			return fmt.Errorf("failed to defer claim: %w", err)
		}

		user := e.User()
		ctx, cancel := context.WithTimeout(context.Background(), config.ClaimTimeout+config.DefaultQueryTimeout)
		defer cancel()

		result, err := b.Arbitrator.Claim(ctx, spawnID, user.ID.String(), user.Username)
		if err != nil {
			if !errors.Is(err, claim.ErrNotFound) {
				slog.Error("Claim failed",
					slog.String("type", "component"),
					slog.Int64("spawn_id", spawnID),
					slog.String("user_id", user.ID.String()),
					slog.Any("error", err))
			}
			return utils.EH.FollowupError(e, err)
		}

		switch result.Outcome {
		case claim.AlreadyClaimed:
			refreshButtons(ctx, b, e, result.Unit.SessionID)
			return utils.EH.FollowupEphemeral(e, utils.AlreadyClaimedMessage(result.Unit.CardName))
		case claim.UserAlreadyOwns:
			return utils.EH.FollowupEphemeral(e, utils.UserOwnsMessage(result.Unit.CardName, result.Unit.Rarity))
		}

		refreshButtons(ctx, b, e, result.Unit.SessionID)

		_, err = e.CreateFollowupMessage(discord.MessageCreate{
			Embeds: []discord.Embed{utils.ClaimedEmbed(user.Mention(), *result.Record, user.EffectiveAvatarURL())},
		})
		return err
	}
}

// refreshButtons redraws the spawn's buttons from stored state so every claimed
// unit shows as disabled, including ones claimed by concurrent presses.
func refreshButtons(ctx context.Context, b *cardcaptor.Bot, e *handler.ComponentEvent, sessionID string) {
	units, err := b.Spawns.Session(ctx, sessionID)
	if err != nil || len(units) == 0 {
		if err != nil {
			slog.Warn("Failed to load spawn session",
				slog.String("type", "component"),
				slog.String("session_id", sessionID),
				slog.Any("error", err))
		}
		return
	}

	components := utils.SpawnComponents(units)
	if _, err := e.UpdateInteractionResponse(discord.MessageUpdate{Components: &components}); err != nil {
		slog.Warn("Failed to update claim buttons",
			slog.String("type", "component"),
			slog.String("message_id", e.Message.ID.String()),
			slog.Any("error", err))
	}
}
