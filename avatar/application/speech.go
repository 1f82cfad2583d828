package application

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AzielCF/az-agent/avatar/domain"
	"github.com/AzielCF/az-agent/pkg/utils"
)

const (
	sampleRate     = 22050
	wordsPerMinute = 150
	minSpeech      = 2.0
	maxSpeech      = 30.0
)

// Synthesizer turns text into an audio file reachable by the widget.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (domain.Speech, error)
}

// EstimateDuration guesses spoken length in seconds, clamped to [2, 30].
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	seconds := float64(words) / wordsPerMinute * 60
	return math.Max(minSpeech, math.Min(maxSpeech, seconds))
}

// WriteSilentWAV writes a mono 16-bit PCM WAV of the given length.
func WriteSilentWAV(w io.Writer, seconds float64) error {
	samples := uint32(seconds * sampleRate)
	dataLen := samples * 2

	header := struct {
		Riff          [4]byte
		ChunkSize     uint32
		Wave          [4]byte
		Fmt           [4]byte
		Subchunk1Size uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataLen,
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataLen,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	_, err := io.CopyN(w, zeroReader{}, int64(dataLen))
	return err
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// SilentSynthesizer stands in for a TTS engine: it writes silence sized to the
// estimated speaking time of the text.
type SilentSynthesizer struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

func NewSilentSynthesizer(dir, urlPrefix string) *SilentSynthesizer {
	return &SilentSynthesizer{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/"), now: time.Now}
}

func (s *SilentSynthesizer) Synthesize(ctx context.Context, text, _ string) (domain.Speech, error) {
	if err := ctx.Err(); err != nil {
		return domain.Speech{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.Speech{}, fmt.Errorf("create audio dir: %w", err)
	}

	name := fmt.Sprintf("audio_%d_%s.wav", s.now().UnixMilli(), utils.RandomString(9))
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return domain.Speech{}, fmt.Errorf("create audio file: %w", err)
	}
	defer f.Close()

	duration := EstimateDuration(text)
	if err := WriteSilentWAV(f, duration); err != nil {
		return domain.Speech{}, fmt.Errorf("write audio: %w", err)
	}

	return domain.Speech{
		AudioURL: s.urlPrefix + "/" + name,
		Duration: duration,
		Provider: "fallback",
	}, nil
}

// Cleanup removes generated audio older than maxAge and reports how many
// files were deleted.
func (s *SilentSynthesizer) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".wav" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
