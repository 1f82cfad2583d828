package domain

import "context"

type Intent string

const (
	IntentInfo        Intent = "info"
	IntentLead        Intent = "lead"
	IntentAppointment Intent = "appointment"
	IntentPurchase    Intent = "purchase"
	IntentComplaint   Intent = "complaint"
	IntentSupport     Intent = "support"
	IntentOther       Intent = "other"
	// IntentError is only reported on turns that fell back.
	IntentError Intent = "error"
)

// Intents is the closed set a message can be classified into.
var Intents = []Intent{IntentInfo, IntentLead, IntentAppointment, IntentPurchase, IntentComplaint, IntentSupport, IntentOther}

type ActionType string

const (
	ActionCaptureLead           ActionType = "capture_lead"
	ActionScheduleAppointment   ActionType = "schedule_appointment"
	ActionProductRecommendation ActionType = "product_recommendation"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Action is advisory: the client decides whether to open a form for it.
type Action struct {
	Type     ActionType `json:"type"`
	Priority Priority   `json:"priority"`
}

type HistoryEntry struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type TurnRequest struct {
	Message string
	AgentID string
	History []HistoryEntry
	UserID  string
}

type TurnResult struct {
	Response       string   `json:"response"`
	Intent         Intent   `json:"intent"`
	Actions        []Action `json:"actions"`
	ConversationID string   `json:"conversationId"`
}

const FallbackResponse = "I apologize, but I'm having trouble processing your request right now. Please try again in a moment."

// GenerationRequest is what a language model receives for one turn.
type GenerationRequest struct {
	System      string
	Prompt      string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// LanguageModel generates a single reply. Implementations must honour ctx cancellation.
type LanguageModel interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
