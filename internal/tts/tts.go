// Package tts defines the interface for text-to-speech synthesis.
//
// The pipeline hands the engine one bounded text segment at a time and gets
// back a complete encoded clip. Synthesis is synchronous: the call blocks
// until the backend returns audio or fails. Segment sizing is the caller's
// job — engines may reject text over their per-request limit.
package tts

import "context"

// Engine converts one text segment to audio.
type Engine interface {
	// Synthesize generates encoded audio (MP3) for the given text in the
	// engine's configured language. The returned bytes are a complete,
	// independently decodable clip.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
