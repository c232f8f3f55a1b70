package domain

// RetrievedPassage is one knowledge-base hit. The metadata map may be empty;
// SourceURI is the document location when the backend reports one.
type RetrievedPassage struct {
	Text      string
	Metadata  map[string]interface{}
	SourceURI string
	Score     float32
}

// ConversationTurn is one prior message of the conversation history.
type ConversationTurn struct {
	Role    TurnRole
	Content string
}

// TurnRole identifies the author of a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// SearchMode selects how the retrieval backend ranks results.
type SearchMode string

const (
	// SearchModeHybrid combines lexical and semantic matching.
	SearchModeHybrid SearchMode = "HYBRID"
	// SearchModeSemantic ranks by vector similarity only.
	SearchModeSemantic SearchMode = "SEMANTIC"
)
