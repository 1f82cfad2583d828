package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AgentService holds the business rules for agent management.
type AgentService struct {
	repo           domain.AgentRepository
	defaultOwnerID string
}

func NewAgentService(repo domain.AgentRepository, defaultOwnerID string) *AgentService {
	if defaultOwnerID == "" {
		defaultOwnerID = domain.DefaultOwnerID
	}
	return &AgentService{repo: repo, defaultOwnerID: defaultOwnerID}
}

// Create validates and stores a new, active agent.
func (s *AgentService) Create(ctx context.Context, agent *domain.Agent) error {
	if agent.OwnerID == "" {
		agent.OwnerID = s.defaultOwnerID
	}
	agent.ApplyDefaults()
	if err := validations.ValidateAgent(ctx, agent); err != nil {
		return err
	}

	agent.ID = uuid.New().String()
	agent.IsActive = true
	agent.Analytics = domain.Analytics{}
	agent.CreatedAt = time.Now().UTC()
	agent.UpdatedAt = agent.CreatedAt

	if err := s.repo.Create(ctx, agent); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"agent_id": agent.ID, "owner_id": agent.OwnerID}).Info("[AGENTS] Agent created")
	return nil
}

func (s *AgentService) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return s.repo.GetByID(ctx, id)
}

// GetActive is GetByID restricted to agents that have not been soft-deleted.
func (s *AgentService) GetActive(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agent.IsActive {
		return nil, domain.ErrAgentInactive
	}
	return agent, nil
}

// Update loads the agent, lets mutate change it, then validates and saves the result.
func (s *AgentService) Update(ctx context.Context, id string, mutate func(*domain.Agent)) (*domain.Agent, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mutate(agent)
	agent.ID = id
	agent.ApplyDefaults()
	if err := validations.ValidateAgent(ctx, agent); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// Delete is a soft delete: the agent is deactivated and kept for history.
func (s *AgentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	logrus.WithField("agent_id", id).Info("[AGENTS] Agent deactivated")
	return nil
}

// ListByOwner lists the active agents of ownerID (the default owner when empty).
func (s *AgentService) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Agent, error) {
	if ownerID == "" {
		ownerID = s.defaultOwnerID
	}
	return s.repo.List(ctx, domain.AgentFilter{OwnerID: ownerID, Limit: limit, Offset: offset})
}

func (s *AgentService) RecordConversation(ctx context.Context, id string) error {
	return s.repo.IncrementAnalytics(ctx, id, domain.AnalyticsDelta{Conversations: 1})
}

func (s *AgentService) RecordLead(ctx context.Context, id string) error {
	return s.repo.IncrementAnalytics(ctx, id, domain.AnalyticsDelta{Leads: 1})
}

func (s *AgentService) RecordAppointment(ctx context.Context, id string) error {
	return s.repo.IncrementAnalytics(ctx, id, domain.AnalyticsDelta{Appointments: 1})
}
