package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/claim"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/spawn"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
)

// ResponseHandler provides standardized response methods for commands and components
type ResponseHandler struct{}

var EH = &ResponseHandler{}

type ErrorType int

const (
	// UserError - bad input, unsupported files
	UserError ErrorType = iota
	// SystemError - database, storage or rendering failures
	SystemError
	NotFoundError
	PermissionError
	// BusinessLogicError - the action is valid but the game state forbids it
	BusinessLogicError
)

const genericSystemMessage = "Something went wrong. Please try again later."

// Responder is satisfied by command and component events.
type Responder interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
}

// Followuper is satisfied by events that were deferred.
type Followuper interface {
	CreateFollowupMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

func getErrorPrefix(errorType ErrorType) string {
	switch errorType {
	case UserError:
		return "⚠️"
	case SystemError:
		return "🔧"
	case NotFoundError:
		return "🔍"
	case PermissionError:
		return "🚫"
	case BusinessLogicError:
		return "❌"
	default:
		return "❌"
	}
}

func getErrorColor(errorType ErrorType) int {
	switch errorType {
	case UserError, BusinessLogicError:
		return config.WarningColor
	case NotFoundError:
		return config.InfoColor
	default:
		return config.ErrorColor
	}
}

// ClassifyError maps a domain error to an error type and a message that is safe to
// show to users. Unknown errors never leak their text.
func ClassifyError(err error) (ErrorType, string) {
	switch {
	case err == nil:
		return SystemError, genericSystemMessage
	case errors.Is(err, claim.ErrNotFound):
		return NotFoundError, "This card spawn no longer exists."
	case errors.Is(err, claim.ErrStoreUnavailable):
		return SystemError, "The card vault is busy right now. Please try again in a moment."
	case errors.Is(err, cards.ErrDuplicateReference):
		return UserError, "A card with that name already exists."
	case errors.Is(err, cards.ErrInvalidTemplate):
		return UserError, "That card name is not valid."
	case errors.Is(err, cards.ErrTemplateNotFound), errors.Is(err, services.ErrArtNotFound):
		return NotFoundError, "That card could not be found."
	case errors.Is(err, cards.ErrTemplateInUse):
		return BusinessLogicError, "That card has already been spawned and can no longer be deleted."
	case errors.Is(err, services.ErrUnsupportedArt):
		return UserError, "Invalid file type. Supported formats: PNG, JPG, JPEG, GIF, WEBP, BMP"
	case errors.Is(err, services.ErrTooLarge):
		return UserError, "File too large. Maximum size is 10MB."
	case errors.Is(err, services.ErrInvalidArtKey):
		return UserError, "That card name cannot be used as a file name."
	case errors.Is(err, spawn.ErrInvalidCount):
		return UserError, fmt.Sprintf("You can spawn between %d and %d cards.", config.MinSpawnCount, config.MaxSpawnCount)
	case errors.Is(err, context.DeadlineExceeded):
		return SystemError, "That took too long. Please try again."
	default:
		return SystemError, genericSystemMessage
	}
}

// Updater is satisfied by events whose deferred response can be edited.
type Updater interface {
	UpdateInteractionResponse(messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt) (*discord.Message, error)
}

func (h *ResponseHandler) classifiedEmbed(errorType ErrorType, message string) discord.Embed {
	return discord.Embed{
		Description: getErrorPrefix(errorType) + " " + message,
		Color:       getErrorColor(errorType),
	}
}

// CreateClassifiedError responds ephemerally with a categorized error embed.
func (h *ResponseHandler) CreateClassifiedError(event Responder, errorType ErrorType, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{h.classifiedEmbed(errorType, message)},
		Flags:  discord.MessageFlagEphemeral,
	})
}

func (h *ResponseHandler) CreateUserError(event Responder, message string) error {
	return h.CreateClassifiedError(event, UserError, message)
}

func (h *ResponseHandler) CreatePermissionError(event Responder, message string) error {
	return h.CreateClassifiedError(event, PermissionError, message)
}

func (h *ResponseHandler) CreateNotFoundError(event Responder, resource, identifier string) error {
	return h.CreateClassifiedError(event, NotFoundError, fmt.Sprintf("%s '%s' not found", resource, identifier))
}

// HandleError classifies err and responds with the user-safe message.
func (h *ResponseHandler) HandleError(event Responder, err error) error {
	errorType, message := ClassifyError(err)
	return h.CreateClassifiedError(event, errorType, message)
}

// FollowupError is HandleError for interactions that were already deferred.
func (h *ResponseHandler) FollowupError(event Followuper, err error) error {
	errorType, message := ClassifyError(err)
	return h.FollowupClassified(event, errorType, message)
}

func (h *ResponseHandler) FollowupClassified(event Followuper, errorType ErrorType, message string) error {
	_, err := event.CreateFollowupMessage(discord.MessageCreate{
		Embeds: []discord.Embed{h.classifiedEmbed(errorType, message)},
		Flags:  discord.MessageFlagEphemeral,
	})
	return err
}

// FollowupEphemeral sends plain ephemeral text after a deferred response.
func (h *ResponseHandler) FollowupEphemeral(event Followuper, content string) error {
	_, err := event.CreateFollowupMessage(discord.MessageCreate{
		Content: content,
		Flags:   discord.MessageFlagEphemeral,
	})
	return err
}

// UpdateWithError replaces a deferred response with the classified error.
func (h *ResponseHandler) UpdateWithError(event Updater, err error) error {
	errorType, message := ClassifyError(err)
	_, uerr := event.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{h.classifiedEmbed(errorType, message)},
	})
	return uerr
}

func (h *ResponseHandler) CreateSuccessEmbed(event Responder, title, description string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       title,
			Description: description,
			Color:       config.SuccessColor,
		}},
	})
}
