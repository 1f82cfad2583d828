package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	avatarApp "github.com/AzielCF/az-agent/avatar/application"
	convDomain "github.com/AzielCF/az-agent/conversation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoConversation struct {
	last convDomain.TurnRequest
}

func (e *echoConversation) HandleTurn(_ context.Context, req convDomain.TurnRequest) convDomain.TurnResult {
	e.last = req
	return convDomain.TurnResult{
		Response:       "You said " + req.Message,
		Intent:         convDomain.IntentInfo,
		Actions:        []convDomain.Action{},
		ConversationID: "conv-1",
	}
}

func newTestServer(t *testing.T) (*Server, *echoConversation) {
	t.Helper()
	synth := avatarApp.NewSilentSynthesizer(t.TempDir(), "/statics/audio")
	conv := &echoConversation{}
	avatar := avatarApp.NewService(synth).WithStreamPause(0)
	return NewServer(NewHub(), conv, avatar), conv
}

func frameData(t *testing.T, f Frame) map[string]any {
	t.Helper()
	raw, err := json.Marshal(f.Data)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestServer_ConversationWithAvatar(t *testing.T) {
	srv, conv := newTestServer(t)
	fc := &fakeConn{}
	client := newClient(fc)

	srv.handle(context.Background(), client, []byte(`{"event":"conversation-with-avatar","data":{"message":"hi","agentId":"agent-1","conversationHistory":[{"sender":"user","message":"hello"}]}}`))

	require.Len(t, fc.frames, 1)
	assert.Equal(t, "conversation-response", fc.frames[0].Event)
	data := frameData(t, fc.frames[0])
	assert.Equal(t, "You said hi", data["text"])
	assert.Equal(t, "info", data["intent"])
	assert.Equal(t, "conv-1", data["conversationId"])
	assert.Contains(t, data["audioUrl"], "/statics/audio/")
	assert.Len(t, conv.last.History, 1)
}

func TestServer_ConversationValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	fc := &fakeConn{}

	srv.handle(context.Background(), newClient(fc), []byte(`{"event":"conversation-with-avatar","data":{"message":"hi"}}`))

	assert.Equal(t, []string{"conversation-error"}, fc.events())
}

func TestServer_LipSync(t *testing.T) {
	srv, _ := newTestServer(t)
	fc := &fakeConn{}
	client := newClient(fc)

	srv.handle(context.Background(), client, []byte(`{"event":"lipsync-request","data":{"text":"Hello","agentId":"agent-1"}}`))
	srv.handle(context.Background(), client, []byte(`{"event":"lipsync-request","data":{"text":"Hello"}}`))
	srv.handle(context.Background(), client, []byte(`{"event":"lipsync-request"}`))

	assert.Equal(t, []string{"lipsync-result", "lipsync-error", "lipsync-error"}, fc.events())
}

func TestServer_LipSyncStream(t *testing.T) {
	srv, _ := newTestServer(t)
	fc := &fakeConn{}

	text := "Welcome to our studio. We offer yoga and pilates classes every single day. See you soon!"
	payload, _ := json.Marshal(map[string]any{"event": "lipsync-stream-start", "data": map[string]string{"text": text, "agentId": "agent-1"}})
	srv.handle(context.Background(), newClient(fc), payload)

	events := fc.events()
	require.Greater(t, len(events), 2)
	last := fc.frames[len(fc.frames)-1]
	assert.Equal(t, "lipsync-stream-complete", last.Event)
	total := int(frameData(t, last)["totalChunks"].(float64))
	assert.Equal(t, len(events)-1, total)
	for _, e := range events[:total] {
		assert.Equal(t, "lipsync-stream-chunk", e)
	}
}

func TestServer_AvatarAnimate(t *testing.T) {
	srv, _ := newTestServer(t)
	fc := &fakeConn{}
	client := newClient(fc)

	srv.handle(context.Background(), client, []byte(`{"event":"avatar-animate","data":{"animationType":"thinking"}}`))
	srv.handle(context.Background(), client, []byte(`{"event":"avatar-animate","data":{"animationType":"moonwalk"}}`))

	require.Len(t, fc.frames, 2)
	first := frameData(t, fc.frames[0])
	assert.Equal(t, "thinking", first["type"])
	anim := first["data"].(map[string]any)
	assert.Equal(t, float64(3000), anim["duration"])
	assert.Equal(t, true, anim["loop"])
	assert.Equal(t, "idle", frameData(t, fc.frames[1])["type"])
}

func TestServer_JoinAgent(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.Run(ctx)

	fc := &fakeConn{}
	client := newClient(fc)
	srv.hub.Register(client)
	srv.handle(ctx, client, []byte(`{"event":"join-agent","data":{"agentId":"agent-7"}}`))
	srv.handle(ctx, client, []byte(`not json`))
	srv.handle(ctx, client, []byte(`{"event":"unknown"}`))

	srv.hub.BroadcastToAgent("agent-7", "appointment-booked", map[string]string{"id": "a"})
	assert.Eventually(t, func() bool { return len(fc.events()) == 1 }, time.Second, 5*time.Millisecond)
}
