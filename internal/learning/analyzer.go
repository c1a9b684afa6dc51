// Package learning turns accumulated chat history into style trait upserts
// by asking an LLM to summarize how the participants write.
package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"style-learner/internal/history"
	"style-learner/internal/llm"
	"style-learner/internal/styles"
)

const analysisSystemPrompt = "You are an expert in language style analysis. " +
	"Given a chat transcript, summarize the language style and grammar habits of the participants."

// Analyzer reads recent history for a session, asks the LLM for trait
// descriptions, stores them, and clears the analyzed history so the same
// messages are not analyzed twice.
type Analyzer struct {
	llmClient    llm.Client
	history      *history.Store
	styles       *styles.Store
	minHistory   int
	historyLimit int
}

func New(llmClient llm.Client, hist *history.Store, st *styles.Store, minHistory, historyLimit int) *Analyzer {
	return &Analyzer{
		llmClient:    llmClient,
		history:      hist,
		styles:       st,
		minHistory:   minHistory,
		historyLimit: historyLimit,
	}
}

// AnalyzeSession runs one analysis for a session. Sessions with too little
// history are skipped silently.
func (a *Analyzer) AnalyzeSession(ctx context.Context, session string) error {
	msgs := a.history.Recent(session, a.historyLimit)
	if len(msgs) < a.minHistory {
		return nil
	}

	resp, err := a.llmClient.Generate(ctx, []llm.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: buildAnalysisPrompt(msgs)},
	})
	if err != nil {
		return fmt.Errorf("analysis completion: %w", err)
	}

	traits, err := parseTraits(resp.Content)
	if err != nil {
		return fmt.Errorf("parse analysis output: %w", err)
	}

	for _, t := range traits.LanguageStyle {
		a.styles.Upsert(session, t, styles.TypeLanguageStyle)
	}
	for _, t := range traits.GrammarFeature {
		a.styles.Upsert(session, t, styles.TypeGrammarFeature)
	}

	// analyzed messages must not be analyzed again
	a.history.Clear(session)

	log.Printf("📚 Learned %d language styles and %d grammar features for session %s",
		len(traits.LanguageStyle), len(traits.GrammarFeature), session)
	return nil
}

// AnalyzeAll runs one analysis per session with accumulated history. One
// session's failure never aborts the rest.
func (a *Analyzer) AnalyzeAll(ctx context.Context) error {
	for _, session := range a.history.Sessions() {
		if err := a.AnalyzeSession(ctx, session); err != nil {
			log.Printf("❌ Failed to analyze session %s: %v", session, err)
		}
	}
	return ctx.Err()
}

func buildAnalysisPrompt(msgs []history.Message) string {
	var transcript strings.Builder
	for _, m := range msgs {
		transcript.WriteString(m.Sender)
		transcript.WriteString(": ")
		transcript.WriteString(m.Content)
		transcript.WriteString("\n")
	}
	return fmt.Sprintf(`Analyze the following chat transcript and extract language style and grammar traits:

Transcript:
%s

Requirements:
1. Reply with valid JSON only, no explanatory text
2. Use exactly this format:
{"language_style": ["trait 1", "trait 2"], "grammar_feature": ["trait 1", "trait 2"]}
3. Each array holds between 1 and 5 traits
4. Keep each trait short, a few words at most

Example output:
{"language_style": ["playful tone", "heavy emoji use"], "grammar_feature": ["short sentences", "frequent exclamation marks"]}`,
		transcript.String())
}

type traits struct {
	LanguageStyle  []string `json:"language_style"`
	GrammarFeature []string `json:"grammar_feature"`
}

var jsonBlockRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// parseTraits extracts the JSON object from the LLM output, tolerating a
// fenced code block or surrounding prose.
func parseTraits(output string) (traits, error) {
	jsonStr := ""
	if m := jsonBlockRe.FindStringSubmatch(output); m != nil {
		jsonStr = m[1]
	} else {
		start := strings.Index(output, "{")
		end := strings.LastIndex(output, "}")
		if start < 0 || end <= start {
			return traits{}, fmt.Errorf("no JSON object in output: %q", output)
		}
		jsonStr = output[start : end+1]
	}
	var t traits
	if err := json.Unmarshal([]byte(jsonStr), &t); err != nil {
		return traits{}, fmt.Errorf("unmarshal traits: %w", err)
	}
	return t, nil
}
