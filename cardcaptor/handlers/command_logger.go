package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
)

var (
	SlowThreshold = config.SlowCommandThreshold
	Timeout       = config.CommandExecutionTimeout
)

type interaction interface {
	User() discord.User
	GuildID() *snowflake.ID
	ChannelID() snowflake.ID
}

// WrapWithLogging logs start, completion, slowness and timeouts of a slash command.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return run("cmd", "Command", name, e, func() error { return h(e) })
	}
}

// WrapComponentWithLogging does the same for button interactions.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return run("component", "Component interaction", name, e, func() error { return h(e) })
	}
}

func WrapAutocompleteWithLogging(name string, h handler.AutocompleteHandler) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		err := h(e)
		if err != nil {
			slog.Error("Autocomplete failed",
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.Any("error", err))
		}
		return err
	}
}

func run(kind, label, name string, e interaction, fn func() error) error {
	start := time.Now()
	user := e.User()

	guildID := "dm"
	if id := e.GuildID(); id != nil {
		guildID = id.String()
	}

	slog.Debug(label+" started",
		slog.String("type", kind),
		slog.String("name", name),
		slog.String("user_id", user.ID.String()),
		slog.String("user_name", user.Username),
		slog.String("guild_id", guildID),
		slog.String("channel_id", e.ChannelID().String()),
	)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		took := time.Since(start)
		attrs := []any{
			slog.String("type", kind),
			slog.String("name", name),
			slog.String("user_id", user.ID.String()),
			slog.String("user_name", user.Username),
			slog.Duration("took", took),
		}

		switch {
		case err != nil:
			slog.Error(label+" failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		case took > SlowThreshold:
			slog.Warn(label+" executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		default:
			slog.Info(label+" completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-timer.C:
		slog.Error(label+" timed out",
			slog.String("type", kind),
			slog.String("name", name),
			slog.String("user_id", user.ID.String()),
			slog.String("user_name", user.Username),
			slog.String("status", "timeout"),
			slog.Duration("timeout", Timeout),
		)
		return fmt.Errorf("%s %s timed out after %s", label, name, Timeout)
	}
}
