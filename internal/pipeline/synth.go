package pipeline

import (
	"bytes"
	"context"

	"github.com/NikzGod/Text-To-Speak/internal/audio"
	"github.com/NikzGod/Text-To-Speak/internal/tts"
)

// Synthesizer turns one bounded text segment into one decoded clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*audio.Clip, error)
}

// EngineSynthesizer adapts a tts.Engine (which returns encoded bytes) into
// clip production by decoding its output.
type EngineSynthesizer struct {
	Engine tts.Engine
}

func (s EngineSynthesizer) Synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	raw, err := s.Engine.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	return audio.Decode(bytes.NewReader(raw))
}
