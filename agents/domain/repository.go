package domain

import "context"

// AgentRepository persists agents. Deletion is soft; there is no hard delete.
type AgentRepository interface {
	Create(ctx context.Context, agent *Agent) error
	GetByID(ctx context.Context, id string) (*Agent, error)
	Update(ctx context.Context, agent *Agent) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, filter AgentFilter) ([]*Agent, error)
	IncrementAnalytics(ctx context.Context, id string, delta AnalyticsDelta) error
}
