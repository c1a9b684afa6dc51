package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Storage
	StylesFilePath  string        `env:"STYLES_FILE_PATH" envDefault:"data/styles.json"`
	HistoryFilePath string        `env:"HISTORY_FILE_PATH" envDefault:"data/chat_history.json"`
	FlushDelay      time.Duration `env:"FLUSH_DELAY" envDefault:"5s"`

	// Learning
	AnalysisInterval      time.Duration `env:"ANALYSIS_INTERVAL" envDefault:"1h"`
	MinHistoryForAnalysis int           `env:"MIN_HISTORY_FOR_ANALYSIS" envDefault:"10"`
	AnalysisHistoryLimit  int           `env:"ANALYSIS_HISTORY_LIMIT" envDefault:"100"`

	// Maintenance
	MaintenanceInterval time.Duration `env:"MAINTENANCE_INTERVAL" envDefault:"24h"`
	DecayRate           int           `env:"PROFICIENCY_DECAY_RATE" envDefault:"1"`
	MaxStylesPerSession int           `env:"MAX_STYLES_PER_SESSION" envDefault:"100"`

	// Injection
	EnableStyleInjection       bool `env:"ENABLE_STYLE_INJECTION" envDefault:"true"`
	MinProficiencyForInjection int  `env:"MIN_PROFICIENCY_FOR_INJECTION" envDefault:"20"`
	MaxStylesInPrompt          int  `env:"MAX_STYLES_IN_PROMPT" envDefault:"3"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"HTML"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
