package bot

import (
	"time"

	"github.com/example/vocabsrs/internal/excel"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Number of cards per review session
	ReviewBatchSize int
	// Column layout for uploaded decks
	Import excel.ImportConfig
	// Largest accepted upload
	MaxUploadSize int
	// Timeout for downloading uploads from Telegram
	DownloadTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		ReviewBatchSize: 20,
		Import:          excel.DefaultImportConfig(),
		MaxUploadSize:   5 * 1024 * 1024, // 5MB
		DownloadTimeout: 30 * time.Second,
	}
}
