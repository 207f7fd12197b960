package types

// =============================================================================
// RESOLVER WIRE FORMAT
// =============================================================================
// Shared by the resolver client and the resolver server.

// ChatRequest is the body of POST /api/chat. Numbers is null for
// informational questions.
type ChatRequest struct {
	Message string `json:"message"`
	Numbers []int  `json:"numbers"`
}

// ChatResponse is the body of a successful POST /api/chat.
type ChatResponse struct {
	Response string       `json:"response"`
	Intent   string       `json:"intent,omitempty"`
	Hexagram *HexagramDTO `json:"hexagram,omitempty"`
}

// HexagramDTO describes the cast hexagram of a divination answer.
type HexagramDTO struct {
	Number       int    `json:"num"`
	Name         string `json:"name"`
	Meaning      string `json:"meaning"`
	Fortune      string `json:"fortune"`
	ChangingLine int    `json:"changing_line"`
	Numbers      []int  `json:"numbers"`
}

// ErrorResponse is the body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	LLM    string `json:"llm"`
}

// Intent values reported in ChatResponse.
const (
	IntentDivination = "DIVINATION"
	IntentPersona    = "PERSONA"
)
