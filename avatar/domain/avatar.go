package domain

import (
	pkgError "github.com/AzielCF/az-agent/pkg/error"
)

const (
	ErrTextRequired   = pkgError.ValidationError("text and agentId are required")
	ErrAvatarNotFound = pkgError.NotFoundError("base avatar not found")
)

type AnimationType string

const (
	AnimationIdle      AnimationType = "idle"
	AnimationTalking   AnimationType = "talking"
	AnimationListening AnimationType = "listening"
	AnimationThinking  AnimationType = "thinking"
	AnimationHappy     AnimationType = "happy"
	AnimationConfused  AnimationType = "confused"
)

// Animation durations are in milliseconds.
type Animation struct {
	Type     AnimationType `json:"type"`
	Duration int           `json:"duration"`
	Loop     bool          `json:"loop"`
}

var animations = map[AnimationType]Animation{
	AnimationIdle:      {Type: AnimationIdle, Duration: 2000, Loop: true},
	AnimationTalking:   {Type: AnimationTalking, Duration: 1000},
	AnimationListening: {Type: AnimationListening, Duration: 1500, Loop: true},
	AnimationThinking:  {Type: AnimationThinking, Duration: 3000, Loop: true},
	AnimationHappy:     {Type: AnimationHappy, Duration: 1000},
	AnimationConfused:  {Type: AnimationConfused, Duration: 2000},
}

// AnimationFor returns the clip for kind, or idle when kind is unknown.
func AnimationFor(kind string) Animation {
	if a, ok := animations[AnimationType(kind)]; ok {
		return a
	}
	return animations[AnimationIdle]
}

type GalleryAvatar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	ModelURL    string `json:"modelUrl"`
	Gender      string `json:"gender"`
	Age         string `json:"age"`
	Style       string `json:"style"`
}

// Speech is synthesized audio for a piece of text. Duration is in seconds.
type Speech struct {
	AudioURL string  `json:"audioUrl"`
	Duration float64 `json:"duration"`
	Provider string  `json:"provider"`
}

type LipSyncRequest struct {
	Text     string `json:"text"`
	AgentID  string `json:"agentId"`
	AvatarID string `json:"avatarId"`
	Language string `json:"language,omitempty"`
}

type LipSyncResult struct {
	AudioURL string   `json:"audioUrl"`
	VideoURL string   `json:"videoUrl,omitempty"`
	Duration float64  `json:"duration"`
	Frames   []string `json:"frames"`
}

type StreamChunk struct {
	ChunkIndex  int     `json:"chunkIndex"`
	TotalChunks int     `json:"totalChunks"`
	Text        string  `json:"text"`
	AudioURL    string  `json:"audioUrl"`
	VideoURL    string  `json:"videoUrl,omitempty"`
	Duration    float64 `json:"duration"`
}

type StreamComplete struct {
	TotalChunks int `json:"totalChunks"`
}
