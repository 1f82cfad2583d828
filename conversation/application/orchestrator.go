package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/conversation/domain"
	knowledgeDomain "github.com/AzielCF/az-agent/knowledge/domain"
	"github.com/AzielCF/az-agent/pkg/metrics"
	"github.com/AzielCF/az-agent/pkg/taskpool"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/sirupsen/logrus"
)

// AgentDirectory is the slice of the agent service the orchestrator depends on.
type AgentDirectory interface {
	GetActive(ctx context.Context, id string) (*agentDomain.Agent, error)
	RecordConversation(ctx context.Context, id string) error
}

// Knowledge retrieves passages and learns from answered questions.
type Knowledge interface {
	Query(ctx context.Context, agentID, text string, limit int) ([]knowledgeDomain.Passage, error)
	AddConversation(ctx context.Context, agentID, question, answer string) error
}

// Dispatcher runs fire-and-forget work; *taskpool.TaskPool satisfies it.
type Dispatcher interface {
	TryDispatch(task taskpool.Task) bool
}

type Settings struct {
	Temperature      float64
	TopP             float64
	MaxTokens        int
	Timeout          time.Duration
	HistoryTurns     int
	KnowledgeLimit   int
	KnowledgeTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Temperature:      0.7,
		TopP:             0.9,
		MaxTokens:        500,
		Timeout:          30 * time.Second,
		HistoryTurns:     DefaultHistoryTurns,
		KnowledgeLimit:   knowledgeDomain.DefaultLimit,
		KnowledgeTimeout: 5 * time.Second,
	}
}

const backgroundTimeout = 30 * time.Second

type Orchestrator struct {
	agents    AgentDirectory
	knowledge Knowledge
	model     domain.LanguageModel
	tasks     Dispatcher
	settings  Settings
	now       func() time.Time
}

func NewOrchestrator(agents AgentDirectory, knowledge Knowledge, model domain.LanguageModel, tasks Dispatcher, settings Settings) *Orchestrator {
	def := DefaultSettings()
	if settings.Timeout <= 0 {
		settings.Timeout = def.Timeout
	}
	if settings.KnowledgeTimeout <= 0 {
		settings.KnowledgeTimeout = def.KnowledgeTimeout
	}
	if settings.KnowledgeLimit <= 0 {
		settings.KnowledgeLimit = def.KnowledgeLimit
	}
	if settings.HistoryTurns <= 0 {
		settings.HistoryTurns = def.HistoryTurns
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = def.MaxTokens
	}
	return &Orchestrator{
		agents:    agents,
		knowledge: knowledge,
		model:     model,
		tasks:     tasks,
		settings:  settings,
		now:       time.Now,
	}
}

func (o *Orchestrator) ClassifyIntent(message string) domain.Intent {
	return ClassifyIntent(message)
}

// HandleTurn produces the reply for one user message. It never fails: any
// collaborator error degrades to domain.FallbackResponse with IntentError.
func (o *Orchestrator) HandleTurn(ctx context.Context, req domain.TurnRequest) domain.TurnResult {
	convID := utils.ConversationID(o.now())
	intent := ClassifyIntent(req.Message)
	log := logrus.WithFields(logrus.Fields{"agent_id": req.AgentID, "conversation_id": convID, "intent": intent})

	agent, err := o.agents.GetActive(ctx, req.AgentID)
	if err != nil {
		log.WithError(err).Warn("[ORCHESTRATOR] Agent unavailable, answering without persona")
	}

	passages := o.retrieve(ctx, req.AgentID, req.Message)

	system := BuildSystemPrompt(PromptInput{
		Agent:        agent,
		Intent:       intent,
		Knowledge:    passages,
		History:      req.History,
		HistoryTurns: o.settings.HistoryTurns,
	})

	reply, err := o.generate(ctx, domain.GenerationRequest{
		System:      system,
		Prompt:      req.Message,
		Temperature: o.settings.Temperature,
		TopP:        o.settings.TopP,
		MaxTokens:   o.settings.MaxTokens,
	})
	if err != nil {
		log.WithError(err).Error("[ORCHESTRATOR] Generation failed, using fallback")
		metrics.RecordTurn(string(domain.IntentError))
		return domain.TurnResult{
			Response:       domain.FallbackResponse,
			Intent:         domain.IntentError,
			Actions:        []domain.Action{},
			ConversationID: convID,
		}
	}

	if agent != nil {
		o.dispatch(agent.ID, "agent.conversation", func(ctx context.Context) error {
			return o.agents.RecordConversation(ctx, agent.ID)
		})
		if o.knowledge != nil && ShouldLearn(req.Message, reply) {
			question := req.Message
			o.dispatch(agent.ID, "knowledge.augment", func(ctx context.Context) error {
				return o.knowledge.AddConversation(ctx, agent.ID, question, reply)
			})
		}
	}

	metrics.RecordTurn(string(intent))
	log.WithField("reply_len", len(reply)).Debug("[ORCHESTRATOR] Turn handled")
	return domain.TurnResult{
		Response:       reply,
		Intent:         intent,
		Actions:        ExtractActions(intent, reply),
		ConversationID: convID,
	}
}

func (o *Orchestrator) retrieve(ctx context.Context, agentID, message string) []knowledgeDomain.Passage {
	if o.knowledge == nil || agentID == "" {
		return nil
	}
	qctx, cancel := context.WithTimeout(ctx, o.settings.KnowledgeTimeout)
	defer cancel()

	passages, err := o.knowledge.Query(qctx, agentID, message, o.settings.KnowledgeLimit)
	if err != nil {
		logrus.WithError(err).WithField("agent_id", agentID).Warn("[ORCHESTRATOR] Knowledge retrieval failed")
		return nil
	}
	return passages
}

type generation struct {
	text string
	err  error
}

// generate bounds the model call by the configured timeout even when the
// model ignores ctx.
func (o *Orchestrator) generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if o.model == nil {
		return "", errors.New("no language model configured")
	}
	gctx, cancel := context.WithTimeout(ctx, o.settings.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan generation, 1)
	go func() {
		// a provider panic must not escape this goroutine; done has room for one result
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("provider", o.model.Name()).Errorf("[ORCHESTRATOR] Model panicked: %v", r)
				done <- generation{err: fmt.Errorf("model panic: %v", r)}
			}
		}()
		text, err := o.model.Generate(gctx, req)
		done <- generation{text: text, err: err}
	}()

	var res generation
	select {
	case res = <-done:
	case <-gctx.Done():
		res = generation{err: gctx.Err()}
	}
	metrics.ObserveGeneration(o.model.Name(), time.Since(start), res.err)

	if res.err != nil {
		return "", res.err
	}
	text := strings.TrimSpace(res.text)
	if text == "" {
		return "", errors.New("empty model output")
	}
	return text, nil
}

func (o *Orchestrator) dispatch(partition, name string, fn func(ctx context.Context) error) {
	if o.tasks == nil {
		return
	}
	o.tasks.TryDispatch(taskpool.Task{
		Partition: partition,
		Name:      name,
		Handler: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
			defer cancel()
			return fn(ctx)
		},
	})
}
