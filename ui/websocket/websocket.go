package websocket

import (
	"context"
	"encoding/json"
	"strings"

	avatarDomain "github.com/AzielCF/az-agent/avatar/domain"
	convDomain "github.com/AzielCF/az-agent/conversation/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type Conversation interface {
	HandleTurn(ctx context.Context, req convDomain.TurnRequest) convDomain.TurnResult
}

type Avatar interface {
	Animate(kind string) avatarDomain.Animation
	Speak(ctx context.Context, text, language string) avatarDomain.Speech
	LipSync(ctx context.Context, req avatarDomain.LipSyncRequest) (avatarDomain.LipSyncResult, error)
	Stream(ctx context.Context, req avatarDomain.LipSyncRequest, emit func(avatarDomain.StreamChunk) error) (int, error)
}

type joinRequest struct {
	AgentID string `json:"agentId"`
}

type conversationRequest struct {
	Message             string                    `json:"message"`
	AgentID             string                    `json:"agentId"`
	ConversationHistory []convDomain.HistoryEntry `json:"conversationHistory"`
	UserID              string                    `json:"userId"`
	Language            string                    `json:"language"`
}

type conversationResponse struct {
	Text           string              `json:"text"`
	AudioURL       string              `json:"audioUrl,omitempty"`
	Duration       float64             `json:"duration"`
	Intent         convDomain.Intent   `json:"intent"`
	Actions        []convDomain.Action `json:"actions"`
	ConversationID string              `json:"conversationId"`
}

type animateRequest struct {
	AnimationType string `json:"animationType"`
	AgentID       string `json:"agentId"`
	AvatarID      string `json:"avatarId"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// Server handles the realtime channel for embedded widgets.
type Server struct {
	hub          *Hub
	conversation Conversation
	avatar       Avatar
}

func NewServer(hub *Hub, conversation Conversation, avatar Avatar) *Server {
	return &Server{hub: hub, conversation: conversation, avatar: avatar}
}

func (s *Server) RegisterRoutes(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	router.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		client := newClient(conn)
		ctx, cancel := context.WithCancel(context.Background())
		defer func() {
			cancel()
			s.hub.Unregister(client)
			client.close()
		}()

		s.hub.Register(client)
		if agentID := conn.Query("agentId"); agentID != "" {
			s.hub.Join(client, agentID)
		}

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.WithError(err).Debug("[WS] Read error")
				}
				return
			}
			if messageType != websocket.TextMessage {
				logrus.Debugf("[WS] Unsupported message type: %d", messageType)
				continue
			}
			s.handle(ctx, client, message)
		}
	}))
}

// handle dispatches one inbound frame. Malformed frames are answered with the
// matching error event and never close the connection.
func (s *Server) handle(ctx context.Context, client *Client, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logrus.WithError(err).Debug("[WS] Unmarshal error")
		return
	}

	switch frame.Event {
	case "join-agent":
		var req joinRequest
		if decode(frame.Data, &req) && req.AgentID != "" {
			s.hub.Join(client, req.AgentID)
		}

	case "conversation-with-avatar":
		s.handleConversation(ctx, client, frame.Data)

	case "lipsync-request":
		var req avatarDomain.LipSyncRequest
		if !decode(frame.Data, &req) {
			s.emit(client, "lipsync-error", errorPayload{Error: avatarDomain.ErrTextRequired.Error()})
			return
		}
		res, err := s.avatar.LipSync(ctx, req)
		if err != nil {
			s.emit(client, "lipsync-error", errorPayload{Error: err.Error()})
			return
		}
		s.emit(client, "lipsync-result", res)

	case "lipsync-stream-start":
		s.handleStream(ctx, client, frame.Data)

	case "avatar-animate":
		var req animateRequest
		decode(frame.Data, &req)
		anim := s.avatar.Animate(req.AnimationType)
		s.emit(client, "avatar-animation", fiber.Map{"type": anim.Type, "data": anim})

	default:
		logrus.WithField("event", frame.Event).Debug("[WS] Unknown event")
	}
}

func (s *Server) handleConversation(ctx context.Context, client *Client, data json.RawMessage) {
	var req conversationRequest
	if !decode(data, &req) || strings.TrimSpace(req.Message) == "" || req.AgentID == "" {
		s.emit(client, "conversation-error", errorPayload{Error: "message and agentId are required"})
		return
	}

	result := s.conversation.HandleTurn(ctx, convDomain.TurnRequest{
		Message: req.Message,
		AgentID: req.AgentID,
		History: req.ConversationHistory,
		UserID:  req.UserID,
	})
	speech := s.avatar.Speak(ctx, result.Response, req.Language)

	s.emit(client, "conversation-response", conversationResponse{
		Text:           result.Response,
		AudioURL:       speech.AudioURL,
		Duration:       speech.Duration,
		Intent:         result.Intent,
		Actions:        result.Actions,
		ConversationID: result.ConversationID,
	})
}

func (s *Server) handleStream(ctx context.Context, client *Client, data json.RawMessage) {
	var req avatarDomain.LipSyncRequest
	if !decode(data, &req) {
		s.emit(client, "lipsync-error", errorPayload{Error: avatarDomain.ErrTextRequired.Error()})
		return
	}
	total, err := s.avatar.Stream(ctx, req, func(chunk avatarDomain.StreamChunk) error {
		return client.Emit("lipsync-stream-chunk", chunk)
	})
	if err != nil {
		s.emit(client, "lipsync-error", errorPayload{Error: err.Error()})
		return
	}
	s.emit(client, "lipsync-stream-complete", avatarDomain.StreamComplete{TotalChunks: total})
}

func (s *Server) emit(client *Client, event string, data any) {
	if err := client.Emit(event, data); err != nil {
		logrus.WithError(err).WithField("event", event).Debug("[WS] Write error")
	}
}

func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
