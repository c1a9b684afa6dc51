package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"style-learner/internal/config"
	"style-learner/internal/history"
	"style-learner/internal/injector"
	"style-learner/internal/learning"
	"style-learner/internal/llm"
	"style-learner/internal/maintenance"
	"style-learner/internal/persist"
	"style-learner/internal/scheduler"
	"style-learner/internal/selector"
	"style-learner/internal/styles"
	"style-learner/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)

	stylesStore, err := styles.NewStore(cfg.StylesFilePath)
	if err != nil {
		log.Fatalf("failed to init styles store: %v", err)
	}
	historyStore, err := history.NewStore(cfg.HistoryFilePath)
	if err != nil {
		log.Fatalf("failed to init history store: %v", err)
	}

	coalescer := persist.NewCoalescer(cfg.FlushDelay)
	stylesStore.SetOnChange(coalescer.Register("styles", stylesStore.Save))
	historyStore.SetOnChange(coalescer.Register("history", historyStore.Save))

	analyzer := learning.New(llmClient, historyStore, stylesStore,
		cfg.MinHistoryForAnalysis, cfg.AnalysisHistoryLimit)
	engine := maintenance.New(stylesStore, cfg.DecayRate, cfg.MaxStylesPerSession)
	inj := injector.New(stylesStore, selector.New(stylesStore),
		cfg.EnableStyleInjection, cfg.MinProficiencyForInjection, cfg.MaxStylesInPrompt)

	sched := scheduler.New(cfg.AnalysisInterval, cfg.MaintenanceInterval)
	sched.SetAnalyzeJob(analyzer.AnalyzeAll)
	sched.SetMaintainJob(func(ctx context.Context) error {
		engine.Run()
		return ctx.Err()
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	bot, err := telegram.New(
		cfg.TelegramBotToken,
		llmClient,
		systemPrompt,
		historyStore,
		stylesStore,
		analyzer,
		engine,
		inj,
		cfg.MessageParseMode,
	)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot.Start(ctx)

	// Shutdown: stop periodic work first, then write whatever is still dirty.
	sched.Stop()
	coalescer.Flush()
	log.Println("👋 Shut down, all dirty state flushed")
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return string(data)
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	f := &llm.Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
	return f.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
}
