package setup

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// RunSetup walks through the credentials the bot needs and writes
// them to config.yaml.
func RunSetup() {
	log.Info("Starting voxbot setup...")

	var telegramToken, openaiAPIKey, notionToken, notionDatabaseID string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your Telegram Bot Token").
				Value(&telegramToken),
			huh.NewInput().
				Title("Enter your OpenAI API Key").
				Value(&openaiAPIKey),
			huh.NewInput().
				Title("Enter your Notion Integration Token").
				Value(&notionToken),
			huh.NewInput().
				Title("Enter your Notion Database ID").
				Value(&notionDatabaseID),
		),
	)

	if err := form.Run(); err != nil {
		log.Fatal("Error during setup", "error", err)
	}

	viper.Set("TELEGRAM_BOT_TOKEN", telegramToken)
	viper.Set("OPENAI_API_KEY", openaiAPIKey)
	viper.Set("NOTION_TOKEN", notionToken)
	viper.Set("NOTION_DATABASE_ID", notionDatabaseID)

	if err := viper.WriteConfig(); err != nil {
		if err := viper.SafeWriteConfig(); err != nil {
			log.Fatal("Error saving configuration", "error", err)
		}
	}

	log.Info("Setup completed successfully!")
}
