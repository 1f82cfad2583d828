package domain

import (
	"time"

	"github.com/AzielCF/az-agent/pkg/utils"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// funnel order; lost sits outside it
var statusRank = map[Status]int{
	StatusNew:       0,
	StatusContacted: 1,
	StatusQualified: 2,
	StatusConverted: 3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusLost
}

func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusLost
}

// CanTransitionTo allows forward moves along the funnel and a drop to lost from
// any open state. Re-applying the current status is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	if !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusLost {
		return true
	}
	return statusRank[next] > statusRank[s]
}

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

const (
	DefaultSource = "widget"
	UnknownIntent = "unknown"
)

type ContactInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

type CustomFieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ConversationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Sender    Sender    `json:"sender"`
	Intent    string    `json:"intent"`
}

type Lead struct {
	ID                  string              `json:"id"`
	AgentID             string              `json:"agentId"`
	ContactInfo         ContactInfo         `json:"contactInfo"`
	CustomFields        []CustomFieldValue  `json:"customFields"`
	ConversationHistory []ConversationEntry `json:"conversationHistory"`
	Status              Status              `json:"status"`
	Source              string              `json:"source"`
	Tags                []string            `json:"tags"`
	Notes               string              `json:"notes"`
	LastContact         time.Time           `json:"lastContact"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

type LeadFilter struct {
	AgentID string
	Status  Status
	Page    int
	Limit   int
}

type LeadPage struct {
	Leads      []*Lead          `json:"leads"`
	Pagination utils.Pagination `json:"pagination"`
}
