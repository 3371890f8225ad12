package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/disgoorg/disgo/discord"
)

const (
	SpawnImageName = "cards.png"

	ExhaustedMessage = "⚠️ **All unique cards have been claimed!** There are no new cards to spawn right now."

	buttonsPerRow  = 5
	maxButtonLabel = 80
)

var ErrInvalidClaimID = errors.New("invalid claim button id")

func ClaimButtonID(spawnID int64) string {
	return config.ClaimButtonPrefix + strconv.FormatInt(spawnID, 10)
}

// ParseClaimButtonID accepts the full custom id or the part after the prefix.
func ParseClaimButtonID(customID string) (int64, error) {
	raw := strings.TrimPrefix(customID, config.ClaimButtonPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClaimID, customID)
	}
	return id, nil
}

func tierMeta(t rarity.Tier) rarity.Meta {
	meta, err := rarity.Metadata(t)
	if err != nil {
		meta, _ = rarity.Metadata(rarity.Common)
	}
	return meta
}

func claimLabel(name string) string {
	label := "Claim " + name
	if r := []rune(label); len(r) > maxButtonLabel {
		label = string(r[:maxButtonLabel-1]) + "…"
	}
	return label
}

// SpawnComponents builds one claim button per unit. Claimed units stay visible but disabled.
func SpawnComponents(units []cards.SpawnedUnit) []discord.ContainerComponent {
	var rows []discord.ContainerComponent
	var buttons []discord.InteractiveComponent

	for _, u := range units {
		meta := tierMeta(u.Rarity)
		var button discord.ButtonComponent
		if u.Claimed() {
			button = discord.NewSecondaryButton(claimLabel(u.CardName), ClaimButtonID(u.ID)).WithDisabled(true)
		} else {
			button = discord.NewPrimaryButton(claimLabel(u.CardName), ClaimButtonID(u.ID))
		}
		buttons = append(buttons, button.WithEmoji(discord.ComponentEmoji{Name: meta.Emoji}))

		if len(buttons) == buttonsPerRow {
			rows = append(rows, discord.NewActionRow(buttons...))
			buttons = nil
		}
	}
	if len(buttons) > 0 {
		rows = append(rows, discord.NewActionRow(buttons...))
	}
	return rows
}

// SpawnEmbed lists the spawned units and points at the rendered attachment.
func SpawnEmbed(units []cards.SpawnedUnit, withImage bool) discord.Embed {
	lines := make([]string, 0, len(units))
	highest := rarity.Common
	for _, u := range units {
		meta := tierMeta(u.Rarity)
		lines = append(lines, fmt.Sprintf("%s **%s** (%s)", meta.Emoji, u.CardName, meta.Label))
		if u.Rarity.Valid() && u.Rarity.Rank() > highest.Rank() {
			highest = u.Rarity
		}
	}

	embed := discord.Embed{
		Title:       config.SpawnTitle,
		Description: config.SpawnDescription + "\n\n" + strings.Join(lines, "\n"),
		Color:       tierMeta(highest).Color,
	}
	if withImage {
		embed.Image = &discord.EmbedResource{URL: "attachment://" + SpawnImageName}
	}
	return embed
}

// ClaimedEmbed is the public announcement after a successful claim.
func ClaimedEmbed(userMention string, record cards.OwnershipRecord, avatarURL string) discord.Embed {
	meta := tierMeta(record.Rarity)
	return discord.Embed{
		Title:       config.ClaimedTitle,
		Description: fmt.Sprintf("%s claimed %s **%s** (%s)!", userMention, meta.Emoji, record.CardName, meta.Label),
		Color:       meta.Color,
		Footer: &discord.EmbedFooter{
			Text:    "First come, first served",
			IconURL: avatarURL,
		},
	}
}

func AlreadyClaimedMessage(name string) string {
	return fmt.Sprintf("❌ **%s** has already been claimed by someone else!", name)
}

func UserOwnsMessage(name string, tier rarity.Tier) string {
	return fmt.Sprintf("❌ You already own a **%s** version of **%s**!", tierMeta(tier).Label, name)
}
