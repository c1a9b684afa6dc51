package injector

import (
	"path/filepath"
	"strings"
	"testing"

	"style-learner/internal/selector"
	"style-learner/internal/styles"
)

func newTestInjector(t *testing.T, enabled bool) (*Injector, *styles.Store) {
	t.Helper()
	store, err := styles.NewStore(filepath.Join(t.TempDir(), "styles.json"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	sel := selector.NewWithDraw(store, func() float64 { return 0 })
	return New(store, sel, enabled, 20, 3), store
}

func reinforce(store *styles.Store, session, content, typ string, n int) {
	for i := 0; i < n; i++ {
		store.Upsert(session, content, typ)
	}
}

func TestShouldInject_Gates(t *testing.T) {
	inj, store := newTestInjector(t, true)

	if inj.ShouldInject("sess") {
		t.Fatalf("empty session must not inject")
	}

	reinforce(store, "sess", "weak", styles.TypeLanguageStyle, 1) // 10 < gate
	if inj.ShouldInject("sess") {
		t.Fatalf("below-gate records must not inject")
	}

	reinforce(store, "sess", "weak", styles.TypeLanguageStyle, 1) // now 20
	if !inj.ShouldInject("sess") {
		t.Fatalf("one qualifying record is enough to inject")
	}
}

func TestShouldInject_FeatureToggle(t *testing.T) {
	inj, store := newTestInjector(t, false)
	reinforce(store, "sess", "strong", styles.TypeLanguageStyle, 5)
	if inj.ShouldInject("sess") {
		t.Fatalf("disabled feature must never inject")
	}
	if got := inj.Inject("sess", "base"); got != "base" {
		t.Fatalf("disabled inject changed the prompt: %q", got)
	}
}

func TestInject_AugmentsPrompt(t *testing.T) {
	inj, store := newTestInjector(t, true)
	reinforce(store, "sess", "playful tone", styles.TypeLanguageStyle, 5)

	got := inj.Inject("sess", "You are a helpful assistant.")
	if !strings.HasPrefix(got, "You are a helpful assistant.\n\n") {
		t.Fatalf("original prompt not preserved: %q", got)
	}
	if !strings.Contains(got, "playful tone") {
		t.Fatalf("trait missing from augmented prompt: %q", got)
	}

	// empty original prompt: the fragment stands alone
	got = inj.Inject("sess", "  ")
	if !strings.HasPrefix(got, "When replying") {
		t.Fatalf("fragment should replace a blank prompt: %q", got)
	}
}

func TestInject_NoQualifyingRecordsLeavesPromptAlone(t *testing.T) {
	inj, store := newTestInjector(t, true)
	reinforce(store, "sess", "weak", styles.TypeGrammarFeature, 1)
	if got := inj.Inject("sess", "base"); got != "base" {
		t.Fatalf("prompt changed without qualifying records: %q", got)
	}
}

func TestSummarize(t *testing.T) {
	inj, store := newTestInjector(t, true)
	reinforce(store, "sess", "playful tone", styles.TypeLanguageStyle, 3)   // 30
	reinforce(store, "sess", "short sentences", styles.TypeGrammarFeature, 2) // 20
	reinforce(store, "sess", "weak", styles.TypeLanguageStyle, 1)           // 10, below gate

	sum := inj.Summarize("sess")
	if sum.TotalStyles != 3 || sum.HighProficiency != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(sum.LanguageStyles) != 1 || sum.LanguageStyles[0] != "playful tone" {
		t.Fatalf("language styles wrong: %+v", sum)
	}
	if len(sum.GrammarFeatures) != 1 || sum.GrammarFeatures[0] != "short sentences" {
		t.Fatalf("grammar features wrong: %+v", sum)
	}
}
