package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vox.town/config"
	"vox.town/db"
	httpserve "vox.town/http"
	"vox.town/lambda"
	"vox.town/llm"
	"vox.town/metrics"
	"vox.town/notion"
	"vox.town/pipeline"
	"vox.town/setup"
	"vox.town/snd"
	"vox.town/stt"
	"vox.town/telegram"
)

var logger *log.Logger

func init() {
	cobra.OnInitialize(initLogger)

	serveCmd.Flags().IntP("port", "p", 8080, "Port for the webhook HTTP server")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lambdaCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(listNotesCmd)

	rootCmd.PersistentFlags().
		String("telegram-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().
		String("openai-api-key", "", "OpenAI API key")
	rootCmd.PersistentFlags().
		String("notion-token", "", "Notion integration token")

	viper.BindPFlag(
		"TELEGRAM_BOT_TOKEN",
		rootCmd.PersistentFlags().Lookup("telegram-token"),
	)
	viper.BindPFlag(
		"OPENAI_API_KEY",
		rootCmd.PersistentFlags().Lookup("openai-api-key"),
	)
	viper.BindPFlag(
		"NOTION_TOKEN",
		rootCmd.PersistentFlags().Lookup("notion-token"),
	)
}

func initLogger() {
	logger = log.New(os.Stderr)
	logger.SetReportTimestamp(true)
}

var rootCmd = &cobra.Command{
	Use:   "voxbot",
	Short: "voxbot transcribes Telegram voice messages into your notes",
	Long:  `voxbot receives Telegram voice messages over a webhook, transcribes them, and saves the transcripts with their metadata to Notion or Postgres.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook HTTP server",
	Run:   runServe,
}

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda webhook handler",
	Run:   runLambda,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure credentials",
	Run: func(cmd *cobra.Command, args []string) {
		setup.RunSetup()
	},
}

var listNotesCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived voice notes",
	Long:  `List the most recent voice notes from the Postgres archive in a table.`,
	Run:   runListNotes,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "error", err)
	}

	ingress, cleanup, err := buildIngress(context.Background(), cfg)
	if err != nil {
		logger.Fatal("build pipeline", "error", err)
	}
	defer cleanup()

	port, _ := cmd.Flags().GetInt("port")
	err = httpserve.Serve(
		port,
		ingress,
		cfg.TelegramWebhookSecret,
		cfg.InvocationBudget,
	)
	if err != nil {
		logger.Fatal("http server", "error", err)
	}
}

func runLambda(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "error", err)
	}

	ingress, cleanup, err := buildIngress(context.Background(), cfg)
	if err != nil {
		logger.Fatal("build pipeline", "error", err)
	}
	defer cleanup()

	lambda.Start(lambda.NewHandler(ingress, logger))
}

func runListNotes(cmd *cobra.Command, args []string) {
	databaseURL := viper.GetString("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("missing DATABASE_URL")
	}

	ctx := context.Background()
	store, err := db.Open(ctx, databaseURL, logger)
	if err != nil {
		logger.Fatal("open database", "error", err)
	}
	defer store.Close(ctx)

	notes, err := store.RecentNotes(ctx, 50)
	if err != nil {
		logger.Fatal("fetch notes", "error", err)
	}

	if len(notes) == 0 {
		fmt.Println("No voice notes found.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Created At", "User", "Duration", "Transcript"})
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for _, note := range notes {
		table.Append([]string{
			note.ID[:8],
			note.CreatedAt.Format("2006-01-02 15:04:05"),
			note.Username,
			fmt.Sprintf("%d s", note.DurationSeconds),
			clip(note.Message, 60),
		})
	}

	table.Render()
}

// buildIngress wires the pipeline from configuration: transcoder,
// transcriber, sink, metrics, and the Telegram adapter around it.
func buildIngress(
	ctx context.Context,
	cfg *config.Config,
) (*telegram.Ingress, func(), error) {
	cleanup := func() {}

	transcriber, transcriberCleanup, err := buildTranscriber(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}

	sink, sinkCleanup, err := buildSink(ctx, cfg)
	if err != nil {
		transcriberCleanup()
		return nil, cleanup, err
	}
	cleanup = func() {
		sinkCleanup()
		transcriberCleanup()
	}

	pipe := pipeline.New(
		&snd.FFmpeg{Logger: logger},
		transcriber,
		sink,
		logger,
	)
	pipe.Metrics = metrics.New(prometheus.DefaultRegisterer)
	if cfg.RetryBackoff > 0 {
		pipe.RetryBackoff = cfg.RetryBackoff
	}

	ingress, err := telegram.NewIngress(cfg.TelegramToken, pipe, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return ingress, cleanup, nil
}

func buildTranscriber(
	ctx context.Context,
	cfg *config.Config,
) (stt.Transcriber, func(), error) {
	switch cfg.Transcriber {
	case config.TranscriberGemini:
		client, err := stt.NewGeminiClient(ctx, cfg.GeminiKey, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return client, func() { client.Close() }, nil
	default:
		return stt.NewWhisperClient(cfg.OpenAIKey, logger), func() {}, nil
	}
}

func buildSink(
	ctx context.Context,
	cfg *config.Config,
) (pipeline.Sink, func(), error) {
	switch cfg.RecordSink {
	case config.SinkPostgres:
		store, err := db.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() { store.Close(context.Background()) }, nil
	default:
		sink := notion.New(
			cfg.NotionToken,
			cfg.NotionDatabaseID,
			cfg.NotionParentPageID,
			buildTitler(cfg),
			logger,
		)
		if err := sink.Ensure(ctx); err != nil {
			return nil, func() {}, err
		}
		return sink, func() {}, nil
	}
}

func buildTitler(cfg *config.Config) notion.Titler {
	if cfg.OpenAIKey == "" {
		return func(ctx context.Context, transcript string) string {
			return llm.FallbackTitle(transcript)
		}
	}
	client := openai.NewClient(cfg.OpenAIKey)
	return func(ctx context.Context, transcript string) string {
		return llm.GenerateTitle(ctx, client, transcript)
	}
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
