package application

import (
	"context"
	"strings"
	"time"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/leads/domain"
	"github.com/AzielCF/az-agent/pkg/metrics"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/AzielCF/az-agent/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AgentDirectory is the slice of the agent service leads depend on.
type AgentDirectory interface {
	GetActive(ctx context.Context, id string) (*agentDomain.Agent, error)
	RecordLead(ctx context.Context, id string) error
}

// Notifier receives captured leads. Implementations must not block.
type Notifier interface {
	LeadCaptured(agent *agentDomain.Agent, lead *domain.Lead)
}

type LeadService struct {
	repo     domain.LeadRepository
	agents   AgentDirectory
	notifier Notifier
}

func NewLeadService(repo domain.LeadRepository, agents AgentDirectory, notifier Notifier) *LeadService {
	return &LeadService{repo: repo, agents: agents, notifier: notifier}
}

// Create stores a lead captured by agentID's widget and fires the capture notifications.
func (s *LeadService) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.AgentID == "" {
		return domain.ErrAgentIDRequired
	}
	agent, err := s.agents.GetActive(ctx, lead.AgentID)
	if err != nil {
		return err
	}

	normalizeContact(&lead.ContactInfo)
	lead.Status = domain.StatusNew
	if lead.Source == "" {
		lead.Source = domain.DefaultSource
	}
	now := time.Now().UTC()
	for i := range lead.ConversationHistory {
		entry := &lead.ConversationHistory[i]
		if entry.Timestamp.IsZero() {
			entry.Timestamp = now
		}
		if entry.Intent == "" {
			entry.Intent = domain.UnknownIntent
		}
		if err := validations.ValidateConversationEntry(*entry); err != nil {
			return err
		}
	}
	if err := validations.ValidateLead(ctx, lead, agent); err != nil {
		return err
	}

	lead.ID = uuid.New().String()
	lead.LastContact = now
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := s.repo.Create(ctx, lead); err != nil {
		return err
	}

	metrics.RecordLeadCaptured()
	if err := s.agents.RecordLead(ctx, agent.ID); err != nil {
		logrus.WithError(err).WithField("agent_id", agent.ID).Warn("[LEADS] Failed to increment lead counter")
	}
	if s.notifier != nil {
		s.notifier.LeadCaptured(agent, lead)
	}

	logrus.WithFields(logrus.Fields{"lead_id": lead.ID, "agent_id": agent.ID}).Info("[LEADS] Lead captured")
	return nil
}

func (s *LeadService) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of an agent's leads, newest first.
func (s *LeadService) List(ctx context.Context, filter domain.LeadFilter) (*domain.LeadPage, error) {
	if filter.AgentID == "" {
		return nil, domain.ErrAgentIDRequired
	}
	filter.Page, filter.Limit = utils.NormalizePage(filter.Page, filter.Limit)

	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &domain.LeadPage{
		Leads:      leads,
		Pagination: utils.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// Update applies mutate to the stored lead, enforcing the status funnel.
func (s *LeadService) Update(ctx context.Context, id string, mutate func(*domain.Lead)) (*domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := lead.Status

	mutate(lead)
	lead.ID = id
	normalizeContact(&lead.ContactInfo)
	if !previous.CanTransitionTo(lead.Status) {
		return nil, domain.ErrInvalidTransition
	}
	if err := validations.ValidateLead(ctx, lead, nil); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, err
	}
	if previous != lead.Status {
		logrus.WithFields(logrus.Fields{"lead_id": id, "from": previous, "to": lead.Status}).Info("[LEADS] Status changed")
	}
	return lead, nil
}

// AddConversation appends one message to the lead's history.
func (s *LeadService) AddConversation(ctx context.Context, leadID string, entry domain.ConversationEntry) error {
	if entry.Intent == "" {
		entry.Intent = domain.UnknownIntent
	}
	if err := validations.ValidateConversationEntry(entry); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return s.repo.AppendConversation(ctx, leadID, entry)
}

func normalizeContact(c *domain.ContactInfo) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Company = strings.TrimSpace(c.Company)
}
