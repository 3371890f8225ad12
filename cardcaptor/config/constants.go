package config

import "time"

// UI and Display Constants
const (
	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00
	ClaimedColor = 0x00FF00

	SpawnTitle        = "🎴 Cards Spawned!"
	SpawnDescription  = "Click the buttons below to claim cards! First come, first served."
	ClaimedTitle      = "🎉 Card Claimed!"
	ClaimButtonPrefix = "/claim/"
)

// Spawn limits
const (
	DefaultSpawnCount = 3
	MinSpawnCount     = 1
	// one button per unit, and Discord allows five per row
	MaxSpawnCount = 5
)

// Upload limits
const (
	MaxUploadSize = 10 * 1024 * 1024
)

var AllowedArtExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}

// Database and Performance Constants
const (
	DefaultQueryTimeout     = 30 * time.Second
	SlowQueryThreshold      = 500 * time.Millisecond
	CommandExecutionTimeout = 10 * time.Second
	SlowCommandThreshold    = 2 * time.Second
	ClaimTimeout            = 5 * time.Second
	DownloadTimeout         = 30 * time.Second
	RenderTimeout           = 20 * time.Second

	NetworkDialTimeout = 5 * time.Second
	MaxRetries         = 3
	RetryInterval      = time.Second

	// Cache settings
	ArtCacheSize = 256
	MaxRenders   = 2
)
