package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	TranscriberWhisper = "whisper"
	TranscriberGemini  = "gemini"

	SinkNotion   = "notion"
	SinkPostgres = "postgres"
)

type Config struct {
	TelegramToken         string
	TelegramWebhookSecret string

	Transcriber string
	OpenAIKey   string
	GeminiKey   string

	RecordSink         string
	NotionToken        string
	NotionDatabaseID   string
	NotionParentPageID string
	DatabaseURL        string

	InvocationBudget time.Duration
	RetryBackoff     time.Duration
}

// Load reads .env, config.yaml, and the environment, then validates
// that every credential the selected providers need is present.
// Missing credentials are a startup failure, never a per-message one.
func Load() (*Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	viper.SetDefault("TRANSCRIBER", TranscriberWhisper)
	viper.SetDefault("RECORD_SINK", SinkNotion)
	viper.SetDefault("INVOCATION_BUDGET", "25s")
	viper.SetDefault("RETRY_BACKOFF", "2s")

	cfg := &Config{
		TelegramToken:         viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookSecret: viper.GetString("TELEGRAM_WEBHOOK_SECRET"),
		Transcriber:           viper.GetString("TRANSCRIBER"),
		OpenAIKey:             viper.GetString("OPENAI_API_KEY"),
		GeminiKey:             viper.GetString("GEMINI_API_KEY"),
		RecordSink:            viper.GetString("RECORD_SINK"),
		NotionToken:           viper.GetString("NOTION_TOKEN"),
		NotionDatabaseID:      viper.GetString("NOTION_DATABASE_ID"),
		NotionParentPageID:    viper.GetString("NOTION_PARENT_PAGE_ID"),
		DatabaseURL:           viper.GetString("DATABASE_URL"),
		InvocationBudget:      viper.GetDuration("INVOCATION_BUDGET"),
		RetryBackoff:          viper.GetDuration("RETRY_BACKOFF"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	switch c.Transcriber {
	case TranscriberWhisper:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the whisper transcriber")
		}
	case TranscriberGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini transcriber")
		}
	default:
		return fmt.Errorf("unknown transcriber %q", c.Transcriber)
	}

	switch c.RecordSink {
	case SinkNotion:
		if c.NotionToken == "" {
			return fmt.Errorf("NOTION_TOKEN is required for the notion sink")
		}
		if c.NotionDatabaseID == "" && c.NotionParentPageID == "" {
			return fmt.Errorf("NOTION_DATABASE_ID or NOTION_PARENT_PAGE_ID is required for the notion sink")
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres sink")
		}
	default:
		return fmt.Errorf("unknown record sink %q", c.RecordSink)
	}

	return nil
}
