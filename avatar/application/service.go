package application

import (
	"context"
	"strings"
	"time"

	"github.com/AzielCF/az-agent/avatar/domain"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	StreamChunkSize = 50
	defaultLanguage = "he"
	streamPause     = 100 * time.Millisecond
)

type Service struct {
	speech Synthesizer
	pause  time.Duration
}

func NewService(speech Synthesizer) *Service {
	return &Service{speech: speech, pause: streamPause}
}

// WithStreamPause sets the gap between streamed chunks.
func (s *Service) WithStreamPause(d time.Duration) *Service {
	s.pause = d
	return s
}

func (s *Service) Animate(kind string) domain.Animation {
	return domain.AnimationFor(kind)
}

func (s *Service) Gallery() []domain.GalleryAvatar {
	return domain.Gallery()
}

// Speak synthesizes text for the realtime conversation reply. Failures are
// logged and yield an empty result.
func (s *Service) Speak(ctx context.Context, text, language string) domain.Speech {
	if s.speech == nil || strings.TrimSpace(text) == "" {
		return domain.Speech{}
	}
	speech, err := s.speech.Synthesize(ctx, text, languageOrDefault(language))
	if err != nil {
		logrus.WithError(err).Warn("[AVATAR] Speech synthesis failed")
		return domain.Speech{}
	}
	return speech
}

func (s *Service) LipSync(ctx context.Context, req domain.LipSyncRequest) (domain.LipSyncResult, error) {
	if err := validateRequest(req); err != nil {
		return domain.LipSyncResult{}, err
	}
	speech, err := s.speech.Synthesize(ctx, req.Text, languageOrDefault(req.Language))
	if err != nil {
		return domain.LipSyncResult{}, err
	}
	return domain.LipSyncResult{
		AudioURL: speech.AudioURL,
		Duration: speech.Duration,
		Frames:   []string{},
	}, nil
}

// Stream splits the text into sentence-aligned chunks and emits one result per
// chunk in order. It returns the number of chunks emitted.
func (s *Service) Stream(ctx context.Context, req domain.LipSyncRequest, emit func(domain.StreamChunk) error) (int, error) {
	if err := validateRequest(req); err != nil {
		return 0, err
	}

	chunks := utils.ChunkText(req.Text, StreamChunkSize)
	for i, text := range chunks {
		speech, err := s.speech.Synthesize(ctx, text, languageOrDefault(req.Language))
		if err != nil {
			return i, err
		}
		err = emit(domain.StreamChunk{
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			Text:        text,
			AudioURL:    speech.AudioURL,
			Duration:    speech.Duration,
		})
		if err != nil {
			return i, err
		}

		if i < len(chunks)-1 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return i + 1, ctx.Err()
			case <-time.After(s.pause):
			}
		}
	}
	return len(chunks), nil
}

func validateRequest(req domain.LipSyncRequest) error {
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.AgentID) == "" {
		return domain.ErrTextRequired
	}
	return nil
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return defaultLanguage
	}
	return lang
}
