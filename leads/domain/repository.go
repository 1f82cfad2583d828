package domain

import "context"

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	// GetByID returns the lead with its conversation history ordered by timestamp.
	GetByID(ctx context.Context, id string) (*Lead, error)
	Update(ctx context.Context, lead *Lead) error
	// List omits conversation history; callers fetch a single lead for that.
	List(ctx context.Context, filter LeadFilter) ([]*Lead, int64, error)
	// AppendConversation inserts one history row and bumps lastContact.
	AppendConversation(ctx context.Context, leadID string, entry ConversationEntry) error
}
