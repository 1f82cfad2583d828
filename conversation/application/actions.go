package application

import (
	"strings"

	"github.com/AzielCF/az-agent/conversation/domain"
)

var (
	leadTriggers        = []string{"contact", "email", "phone"}
	appointmentTriggers = []string{"schedule", "meeting", "appointment", "book"}
	productTriggers     = []string{"product", "buy", "price"}
)

// ExtractActions derives advisory follow-ups from the intent and the reply text.
// Several actions may fire for the same turn.
func ExtractActions(intent domain.Intent, reply string) []domain.Action {
	lower := strings.ToLower(reply)
	actions := []domain.Action{}

	if intent == domain.IntentLead || containsAny(lower, leadTriggers) {
		actions = append(actions, domain.Action{Type: domain.ActionCaptureLead, Priority: domain.PriorityHigh})
	}
	if intent == domain.IntentAppointment || containsAny(lower, appointmentTriggers) {
		actions = append(actions, domain.Action{Type: domain.ActionScheduleAppointment, Priority: domain.PriorityHigh})
	}
	if intent == domain.IntentPurchase || containsAny(lower, productTriggers) {
		actions = append(actions, domain.Action{Type: domain.ActionProductRecommendation, Priority: domain.PriorityMedium})
	}
	return actions
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

var questionWords = []string{"what", "how", "why", "when", "where", "who"}

// ShouldLearn reports whether a question/answer pair is worth adding to the knowledge base.
func ShouldLearn(message, reply string) bool {
	if len([]rune(reply)) <= 50 {
		return false
	}
	if strings.Contains(message, "?") {
		return true
	}
	first, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(message)), " ")
	for _, w := range questionWords {
		if first == w || strings.HasPrefix(first, w+"'") {
			return true
		}
	}
	return false
}
