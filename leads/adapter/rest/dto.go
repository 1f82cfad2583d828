package rest

import "github.com/AzielCF/az-agent/leads/domain"

type CreateLeadRequest struct {
	AgentID             string                     `json:"agentId"`
	ContactInfo         *domain.ContactInfo        `json:"contactInfo"`
	CustomFields        []domain.CustomFieldValue  `json:"customFields"`
	ConversationHistory []domain.ConversationEntry `json:"conversationHistory"`
	Source              string                     `json:"source"`
	Tags                []string                   `json:"tags"`
}

// UpdateLeadRequest is the body of PUT /leads/:id. Nil fields are left unchanged.
type UpdateLeadRequest struct {
	ContactInfo  *domain.ContactInfo       `json:"contactInfo"`
	CustomFields []domain.CustomFieldValue `json:"customFields"`
	Status       *string                   `json:"status"`
	Tags         []string                  `json:"tags"`
	Notes        *string                   `json:"notes"`
}

func (r UpdateLeadRequest) apply(l *domain.Lead) {
	if r.ContactInfo != nil {
		l.ContactInfo = *r.ContactInfo
	}
	if r.CustomFields != nil {
		l.CustomFields = r.CustomFields
	}
	if r.Status != nil {
		l.Status = domain.Status(*r.Status)
	}
	if r.Tags != nil {
		l.Tags = r.Tags
	}
	if r.Notes != nil {
		l.Notes = *r.Notes
	}
}

type AddConversationRequest struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
	Intent  string `json:"intent"`
}
