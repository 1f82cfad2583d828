package application

import (
	"strings"
	"testing"

	"github.com/AzielCF/az-agent/conversation/domain"
	"github.com/stretchr/testify/assert"
)

func actionTypes(actions []domain.Action) []domain.ActionType {
	out := make([]domain.ActionType, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Type)
	}
	return out
}

func TestExtractActions(t *testing.T) {
	assert.Empty(t, ExtractActions(domain.IntentInfo, "We open at nine."))

	actions := ExtractActions(domain.IntentLead, "Thanks!")
	assert.Equal(t, []domain.Action{{Type: domain.ActionCaptureLead, Priority: domain.PriorityHigh}}, actions)

	actions = ExtractActions(domain.IntentInfo, "Leave your Email and we can Schedule a call about the product.")
	assert.Equal(t, []domain.ActionType{
		domain.ActionCaptureLead,
		domain.ActionScheduleAppointment,
		domain.ActionProductRecommendation,
	}, actionTypes(actions))
	assert.Equal(t, domain.PriorityMedium, actions[2].Priority)

	assert.Equal(t, []domain.ActionType{domain.ActionScheduleAppointment}, actionTypes(ExtractActions(domain.IntentAppointment, "Sure.")))
	assert.Equal(t, []domain.ActionType{domain.ActionProductRecommendation}, actionTypes(ExtractActions(domain.IntentPurchase, "Sure.")))
}

func TestShouldLearn(t *testing.T) {
	long := strings.Repeat("a", 51)

	assert.True(t, ShouldLearn("Do you ship abroad?", long))
	assert.True(t, ShouldLearn("How long does delivery take", long))
	assert.True(t, ShouldLearn("what's included", long))
	assert.False(t, ShouldLearn("Do you ship abroad?", strings.Repeat("a", 50)))
	assert.False(t, ShouldLearn("I want the blue one", long))
}
