package learning

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"style-learner/internal/history"
	"style-learner/internal/llm"
	"style-learner/internal/styles"
)

type fakeLLM struct {
	resp     llm.Response
	err      error
	lastMsgs []llm.Message
	calls    int
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.calls++
	f.lastMsgs = msgs
	return f.resp, f.err
}

func newTestStores(t *testing.T) (*history.Store, *styles.Store) {
	t.Helper()
	dir := t.TempDir()
	h, err := history.NewStore(filepath.Join(dir, "chat_history.json"))
	if err != nil {
		t.Fatalf("init history: %v", err)
	}
	s, err := styles.NewStore(filepath.Join(dir, "styles.json"))
	if err != nil {
		t.Fatalf("init styles: %v", err)
	}
	return h, s
}

func TestAnalyzeSession_LearnsAndClearsHistory(t *testing.T) {
	h, s := newTestStores(t)
	h.Append("sess", history.Message{Sender: "alice", Content: "hey!!", Timestamp: 1})
	h.Append("sess", history.Message{Sender: "bob", Content: "yo", Timestamp: 2})

	fake := &fakeLLM{resp: llm.Response{Content: "```json\n" +
		`{"language_style": ["playful tone", "casual greetings"], "grammar_feature": ["exclamation marks"]}` +
		"\n```"}}
	a := New(fake, h, s, 2, 100)

	if err := a.AnalyzeSession(context.Background(), "sess"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	records := s.Get("sess")
	if len(records) != 3 {
		t.Fatalf("want 3 learned traits, got %+v", records)
	}
	byType := map[string][]string{}
	for _, r := range records {
		byType[r.Type] = append(byType[r.Type], r.Content)
		if r.Proficiency != 10 {
			t.Fatalf("new trait must start at 10: %+v", r)
		}
	}
	if !reflect.DeepEqual(byType[styles.TypeLanguageStyle], []string{"playful tone", "casual greetings"}) {
		t.Fatalf("language styles wrong: %v", byType)
	}
	if !reflect.DeepEqual(byType[styles.TypeGrammarFeature], []string{"exclamation marks"}) {
		t.Fatalf("grammar features wrong: %v", byType)
	}

	if len(h.Recent("sess", 0)) != 0 {
		t.Fatalf("analyzed history must be cleared")
	}

	// the transcript reached the LLM
	if len(fake.lastMsgs) != 2 || !strings.Contains(fake.lastMsgs[1].Content, "alice: hey!!") {
		t.Fatalf("transcript missing from prompt: %+v", fake.lastMsgs)
	}
}

func TestAnalyzeSession_SkipsShortHistory(t *testing.T) {
	h, s := newTestStores(t)
	h.Append("sess", history.Message{Sender: "alice", Content: "hi", Timestamp: 1})

	fake := &fakeLLM{err: errors.New("must not be called")}
	a := New(fake, h, s, 10, 100)

	if err := a.AnalyzeSession(context.Background(), "sess"); err != nil {
		t.Fatalf("short history must be a silent skip: %v", err)
	}
	if fake.calls != 0 {
		t.Fatalf("LLM called despite short history")
	}
	if len(h.Recent("sess", 0)) != 1 {
		t.Fatalf("short history must be kept for later")
	}
}

func TestAnalyzeSession_LLMFailureKeepsHistory(t *testing.T) {
	h, s := newTestStores(t)
	for i := int64(0); i < 3; i++ {
		h.Append("sess", history.Message{Sender: "alice", Content: "hi", Timestamp: i})
	}
	fake := &fakeLLM{err: errors.New("upstream down")}
	a := New(fake, h, s, 2, 100)

	if err := a.AnalyzeSession(context.Background(), "sess"); err == nil {
		t.Fatalf("want error from failing LLM")
	}
	if len(h.Recent("sess", 0)) != 3 {
		t.Fatalf("history must survive a failed analysis")
	}
	if len(s.Get("sess")) != 0 {
		t.Fatalf("no traits must be stored on failure")
	}
}

func TestAnalyzeAll_OneFailureDoesNotAbortOthers(t *testing.T) {
	h, s := newTestStores(t)
	for i := int64(0); i < 3; i++ {
		h.Append("bad", history.Message{Sender: "a", Content: "x", Timestamp: i})
		h.Append("good", history.Message{Sender: "b", Content: "y", Timestamp: i})
	}

	// garbage output fails parsing for every session, but the loop still
	// visits all of them
	fake := &fakeLLM{resp: llm.Response{Content: "no json here"}}
	a := New(fake, h, s, 2, 100)

	if err := a.AnalyzeAll(context.Background()); err != nil {
		t.Fatalf("AnalyzeAll must swallow per-session errors: %v", err)
	}
	if fake.calls != 2 {
		t.Fatalf("want both sessions attempted, got %d calls", fake.calls)
	}
}

func TestParseTraits(t *testing.T) {
	fenced := "Here you go:\n```json\n{\"language_style\": [\"terse\"], \"grammar_feature\": []}\n```"
	got, err := parseTraits(fenced)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if !reflect.DeepEqual(got.LanguageStyle, []string{"terse"}) {
		t.Fatalf("fenced parse wrong: %+v", got)
	}

	bare := `Sure! {"language_style": ["warm"], "grammar_feature": ["long sentences"]} hope that helps`
	got, err = parseTraits(bare)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	if !reflect.DeepEqual(got.GrammarFeature, []string{"long sentences"}) {
		t.Fatalf("bare parse wrong: %+v", got)
	}

	if _, err := parseTraits("sorry, I cannot do that"); err == nil {
		t.Fatalf("want error for output without JSON")
	}
}
