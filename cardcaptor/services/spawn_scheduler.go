package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/go-co-op/gocron/v2"
)

// SpawnPoster opens a spawn and posts it into a channel.
type SpawnPoster interface {
	PostSpawn(ctx context.Context, channelID snowflake.ID) error
}

// SpawnScheduler posts a spawn into one channel on a fixed interval.
type SpawnScheduler struct {
	sched     gocron.Scheduler
	poster    SpawnPoster
	channelID snowflake.ID
	interval  time.Duration
	timeout   time.Duration
}

func NewSpawnScheduler(poster SpawnPoster, channelID snowflake.ID, interval, timeout time.Duration) (*SpawnScheduler, error) {
	if interval <= 0 {
		return nil, errors.New("spawn interval must be positive")
	}
	if channelID == 0 {
		return nil, errors.New("spawn channel is required")
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &SpawnScheduler{
		sched:     sched,
		poster:    poster,
		channelID: channelID,
		interval:  interval,
		timeout:   timeout,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.tick),
		gocron.WithName("scheduled-spawn"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule spawns: %w", err)
	}
	return s, nil
}

func (s *SpawnScheduler) Start() {
	s.sched.Start()
	slog.Info("Scheduled spawns enabled",
		slog.String("type", "sys"),
		slog.String("channel_id", s.channelID.String()),
		slog.Duration("interval", s.interval))
}

func (s *SpawnScheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *SpawnScheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.poster.PostSpawn(ctx, s.channelID); err != nil {
		slog.Error("Scheduled spawn failed",
			slog.String("type", "sys"),
			slog.String("channel_id", s.channelID.String()),
			slog.Any("error", err))
	}
}
