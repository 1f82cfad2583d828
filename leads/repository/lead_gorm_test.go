package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-agent/core/database"
	"github.com/AzielCF/az-agent/leads/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *LeadGormRepository {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	repo := NewLeadGormRepository(db)
	require.NoError(t, repo.InitSchema(context.Background()))
	return repo
}

func newLead(agentID, email string) *domain.Lead {
	return &domain.Lead{
		AgentID:     agentID,
		ContactInfo: domain.ContactInfo{Name: "Avi", Email: email},
		Status:      domain.StatusNew,
		Source:      domain.DefaultSource,
		Tags:        []string{"vip"},
	}
}

func TestLeadRepo_CreateWithHistory(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	lead := newLead("agent-1", "avi@example.com")
	lead.CustomFields = []domain.CustomFieldValue{{Name: "budget", Value: "1000"}}
	lead.ConversationHistory = []domain.ConversationEntry{
		{Timestamp: base.Add(2 * time.Minute), Message: "second", Sender: domain.SenderAgent},
		{Timestamp: base, Message: "first", Sender: domain.SenderUser},
	}
	require.NoError(t, repo.Create(ctx, lead))

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "avi@example.com", got.ContactInfo.Email)
	assert.Equal(t, []string{"vip"}, got.Tags)
	assert.Equal(t, "1000", got.CustomFields[0].Value)
	require.Len(t, got.ConversationHistory, 2)
	assert.Equal(t, "first", got.ConversationHistory[0].Message)
	assert.Equal(t, "second", got.ConversationHistory[1].Message)
}

func TestLeadRepo_ConcurrentAppendsAreNotLost(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	lead := newLead("agent-1", "c@example.com")
	require.NoError(t, repo.Create(ctx, lead))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.AppendConversation(ctx, lead.ID, domain.ConversationEntry{
				Timestamp: time.Now().UTC(),
				Message:   fmt.Sprintf("msg-%d", i),
				Sender:    domain.SenderUser,
			}))
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, got.ConversationHistory, 10)
	for i := 1; i < len(got.ConversationHistory); i++ {
		assert.False(t, got.ConversationHistory[i].Timestamp.Before(got.ConversationHistory[i-1].Timestamp))
	}

	err = repo.AppendConversation(ctx, "missing", domain.ConversationEntry{Timestamp: time.Now(), Message: "x", Sender: domain.SenderUser})
	assert.ErrorIs(t, err, domain.ErrLeadNotFound)
}

func TestLeadRepo_ListFiltersAndPaginates(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l := newLead("agent-1", fmt.Sprintf("l%d@example.com", i))
		l.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if i%2 == 0 {
			l.Status = domain.StatusQualified
		}
		require.NoError(t, repo.Create(ctx, l))
	}
	require.NoError(t, repo.Create(ctx, newLead("agent-2", "other@example.com")))

	leads, total, err := repo.List(ctx, domain.LeadFilter{AgentID: "agent-1", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, leads, 2)
	assert.Equal(t, "l4@example.com", leads[0].ContactInfo.Email)

	leads, total, err = repo.List(ctx, domain.LeadFilter{AgentID: "agent-1", Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, leads, 1)

	_, total, err = repo.List(ctx, domain.LeadFilter{AgentID: "agent-1", Status: domain.StatusQualified})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestLeadRepo_UpdateMissing(t *testing.T) {
	repo := setupRepo(t)
	err := repo.Update(context.Background(), &domain.Lead{ID: "nope", Status: domain.StatusNew})
	assert.ErrorIs(t, err, domain.ErrLeadNotFound)
}
