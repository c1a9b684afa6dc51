package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"style-learner/internal/history"
	"style-learner/internal/injector"
	"style-learner/internal/learning"
	"style-learner/internal/llm"
	"style-learner/internal/maintenance"
	"style-learner/internal/styles"
)

// analysis is an external call; never let it stall message handling
const analysisTimeout = 2 * time.Minute

type Bot struct {
	api          *tgbotapi.BotAPI
	s            sender
	selfID       int64
	llmClient    llm.Client
	systemPrompt string
	parseMode    string

	historyStore *history.Store
	stylesStore  *styles.Store
	analyzer     *learning.Analyzer
	engine       *maintenance.Engine
	inj          *injector.Injector
}

func New(
	botToken string,
	llmClient llm.Client,
	systemPrompt string,
	historyStore *history.Store,
	stylesStore *styles.Store,
	analyzer *learning.Analyzer,
	engine *maintenance.Engine,
	inj *injector.Injector,
	parseMode string,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:          api,
		s:            botAPISender{api: api},
		selfID:       api.Self.ID,
		llmClient:    llmClient,
		systemPrompt: systemPrompt,
		parseMode:    parseMode,
		historyStore: historyStore,
		stylesStore:  stylesStore,
		analyzer:     analyzer,
		engine:       engine,
		inj:          inj,
	}, nil
}

// Start consumes updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message != nil {
			b.handleIncomingMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Ignore the bot's own messages and non-text updates
	if msg.From == nil || msg.From.ID == b.selfID || msg.Text == "" {
		return
	}

	session := sessionID(msg.Chat.ID)

	if msg.IsCommand() {
		b.handleCommand(ctx, session, msg)
		return
	}

	b.historyStore.Append(session, history.Message{
		Sender:    senderName(msg.From),
		Content:   msg.Text,
		Timestamp: int64(msg.Date),
	})

	// Only answer direct chats; group messages are observed for learning.
	if !msg.Chat.IsPrivate() {
		return
	}

	systemPrompt := b.inj.Inject(session, b.systemPrompt)

	var contextMsgs []llm.Message
	if systemPrompt != "" {
		contextMsgs = append(contextMsgs, llm.Message{Role: "system", Content: systemPrompt})
	}
	contextMsgs = append(contextMsgs, llm.Message{Role: "user", Content: msg.Text})

	resp, err := b.llmClient.Generate(ctx, contextMsgs)
	if err != nil {
		log.Printf("failed to generate text: %v", err)
		b.sendMessage(msg.Chat.ID, "Sorry, something went wrong.")
		return
	}

	log.Printf("LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)

	b.historyStore.Append(session, history.Message{
		Sender:    b.api.Self.UserName,
		Content:   resp.Content,
		Timestamp: time.Now().Unix(),
	})
	b.sendMessage(msg.Chat.ID, resp.Content)
}

func (b *Bot) handleCommand(ctx context.Context, session string, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "style":
		b.sendMessage(msg.Chat.ID, b.styleSummaryText(session))
	case "learn_now":
		b.sendMessage(msg.Chat.ID, "Analyzing chat history...")
		go func() {
			actx, cancel := context.WithTimeout(ctx, analysisTimeout)
			defer cancel()
			if err := b.analyzer.AnalyzeSession(actx, session); err != nil {
				log.Printf("❌ On-demand analysis failed for session %s: %v", session, err)
				b.sendMessage(msg.Chat.ID, "Analysis failed, see logs.")
				return
			}
			b.sendMessage(msg.Chat.ID, "Analysis finished.\n\n"+b.styleSummaryText(session))
		}()
	case "maintain_now":
		res := b.engine.Run()
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(
			"Maintenance finished: %d sessions, %d records decayed, %d evicted.",
			res.Sessions, res.Decayed, res.Evicted))
	case "clear_styles":
		b.stylesStore.Clear(session)
		b.sendMessage(msg.Chat.ID, "Learned styles cleared for this chat.")
	case "clear_history":
		b.historyStore.Clear(session)
		b.sendMessage(msg.Chat.ID, "Recorded chat history cleared for this chat.")
	default:
		b.sendMessage(msg.Chat.ID, "Commands: /style, /learn_now, /maintain_now, /clear_styles, /clear_history")
	}
}

func (b *Bot) styleSummaryText(session string) string {
	sum := b.inj.Summarize(session)
	if sum.TotalStyles == 0 {
		return "No styles learned for this chat yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Learned styles: %d total, %d above the injection threshold.\n",
		sum.TotalStyles, sum.HighProficiency)
	if len(sum.LanguageStyles) > 0 {
		fmt.Fprintf(&sb, "Language styles: %s\n", strings.Join(sum.LanguageStyles, ", "))
	}
	if len(sum.GrammarFeatures) > 0 {
		fmt.Fprintf(&sb, "Grammar features: %s\n", strings.Join(sum.GrammarFeatures, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if b.parseMode != "" {
		msg.ParseMode = b.parseMode
	}
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func sessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func senderName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
