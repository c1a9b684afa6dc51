package styles

// Trait kinds. The store itself does not validate these; the analysis
// boundary maps LLM output onto the two enumerated kinds before writing.
const (
	TypeLanguageStyle  = "language_style"
	TypeGrammarFeature = "grammar_feature"
)

const (
	initialProficiency = 10
	proficiencyGain    = 10
	maxProficiency     = 100
)

// Record is a single learned style trait scoped to one session.
// A zero Proficiency decoded from a partially edited file is valid and
// simply makes the record a candidate for eviction.
type Record struct {
	Content     string `json:"content"`
	Type        string `json:"type"`
	Proficiency int    `json:"proficiency"`
	CreatedAt   int64  `json:"created_at"`
	LastUpdated int64  `json:"last_updated"`
}
