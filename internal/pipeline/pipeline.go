// Package pipeline implements the text-to-voice conversion engine.
//
// A job flows through fixed stages: validate total length, chunk the text,
// synthesize each chunk in order, assemble the clips into one, apply the
// optional speed transform, check the delivery size ceiling, deliver. A
// single-chunk job takes a shortcut with no progress message and no
// combining stage. Any stage failure aborts the job; transient resources
// (the per-job temp dir) are released exactly once on every exit path.
//
// User-facing reporting policy: validation failures get a specific,
// actionable message; mid-pipeline failures get a generic one while the
// log carries full detail; cosmetic failures (progress edits, chat
// actions) are logged and swallowed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NikzGod/Text-To-Speak/internal/audio"
	"github.com/NikzGod/Text-To-Speak/internal/chunker"
	"github.com/NikzGod/Text-To-Speak/internal/config"
)

const msgGenericFailure = "Sorry, there was an error processing your text. Please try again with shorter text."

func msgInputTooLong(limit, length int) string {
	return fmt.Sprintf("Text is too long. Maximum supported length is %d characters. Your text has %d characters.", limit, length)
}

func msgTooLarge(sizeMB float64, limitMB int) string {
	return fmt.Sprintf("The combined audio file is too large (%.1f MB). The delivery limit is %d MB. Please try with shorter text.", sizeMB, limitMB)
}

// Job is one user request to synthesize.
type Job struct {
	// Text is the raw input, unbounded length.
	Text string

	// Speed is the playback-speed factor resolved from the user's
	// preference at job start. 1.0 means no transform.
	Speed float64
}

// Pipeline runs conversion jobs. One job is processed sequentially start
// to finish; concurrent jobs are fine as long as each gets its own
// Messenger, since no per-job state is shared.
type Pipeline struct {
	cfg          config.PipelineConfig
	synthTimeout time.Duration
	synth        Synthesizer
	logger       *slog.Logger
}

// New creates a Pipeline. synthTimeout bounds each per-chunk synthesis
// call; zero disables the deadline.
func New(cfg config.PipelineConfig, synthTimeout time.Duration, synth Synthesizer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		synthTimeout: synthTimeout,
		synth:        synth,
		logger:       logger.With(slog.String("component", "pipeline")),
	}
}

// Run processes one job end to end and reports the outcome to the user
// through m. The returned error is for the caller's log only — by the time
// Run returns, the user has already been told what happened.
func (p *Pipeline) Run(ctx context.Context, job Job, m Messenger) error {
	text := strings.TrimSpace(job.Text)
	length := utf8.RuneCountInString(text)
	logger := p.logger.With("text_length", length, "speed", job.Speed)

	// Received: total-length validation, before anything is acquired.
	if length > p.cfg.MaxTextLength {
		logger.Info("input over total length ceiling", "limit", p.cfg.MaxTextLength)
		p.reply(m, msgInputTooLong(p.cfg.MaxTextLength, length), logger)
		return &InputTooLongError{Length: length, Limit: p.cfg.MaxTextLength}
	}

	// Chunking.
	chunks := chunker.Split(text, chunker.Options{MaxLen: p.cfg.ChunkLimit})
	if len(chunks) == 0 {
		p.reply(m, "Please send me some text to convert to speech!", logger)
		return ErrEmptyInput
	}
	logger.Info("chunking complete", "chunks", len(chunks))

	if len(chunks) == 1 {
		return p.runSingle(ctx, chunks[0], job.Speed, m, logger)
	}
	return p.runMulti(ctx, chunks, job.Speed, m, logger)
}

// runSingle is the shortcut for text that fits one segment: one synthesis
// call, one delivery, no progress message.
func (p *Pipeline) runSingle(ctx context.Context, text string, speed float64, m Messenger, logger *slog.Logger) error {
	m.Recording()

	dir, release, err := p.acquireTempDir(logger)
	if err != nil {
		p.reply(m, msgGenericFailure, logger)
		return err
	}
	defer release()

	clip, err := p.synthesizeChunk(ctx, text)
	if err != nil {
		logger.Error("synthesis failed", "error", err)
		p.reply(m, msgGenericFailure, logger)
		return &SynthesisError{Chunk: 1, Total: 1, Err: err}
	}

	path, err := p.assemble(dir, []*audio.Clip{clip}, speed, nil, logger)
	if err != nil {
		if tooLarge, ok := asTooLarge(err); ok {
			p.reply(m, msgTooLarge(tooLarge.SizeMB, tooLarge.LimitMB), logger)
		} else {
			logger.Error("assembly failed", "error", err)
			p.reply(m, msgGenericFailure, logger)
		}
		return err
	}

	return p.deliver(m, path, logger)
}

// runMulti synthesizes every chunk in order, reporting throttled progress,
// then assembles and delivers the combined clip.
func (p *Pipeline) runMulti(ctx context.Context, chunks []string, speed float64, m Messenger, logger *slog.Logger) error {
	total := len(chunks)
	logger.Info("processing multi-chunk job", "chunks", total)

	status, err := m.Announce(fmt.Sprintf("Converting your text to speech...\nProcessing %d segments. This may take a moment.", total))
	if err != nil {
		// Progress is cosmetic; the job continues without it.
		logger.Warn("failed to create progress message", "error", err)
		status = nil
	}
	prog := newProgress(status, logger)

	dir, release, err := p.acquireTempDir(logger)
	if err != nil {
		prog.report(msgGenericFailure)
		return err
	}
	defer release()

	clips := make([]*audio.Clip, 0, total)
	for i, chunk := range chunks {
		m.Recording()

		clip, err := p.synthesizeChunk(ctx, chunk)
		if err != nil {
			// The progress message becomes the failure notice; it is
			// edited, never deleted, so the user keeps the context.
			logger.Error("chunk synthesis failed", "chunk", i+1, "total", total, "error", err)
			prog.report(msgGenericFailure)
			return &SynthesisError{Chunk: i + 1, Total: total, Err: err}
		}
		clips = append(clips, clip)
		logger.Debug("chunk synthesized", "chunk", i+1, "total", total, "duration", clip.Duration())

		if done := i + 1; done%p.cfg.ProgressEvery == 0 || done == total {
			prog.report(fmt.Sprintf("Converting your text to speech...\nProcessed %d/%d segments.", done, total))
		}
	}

	path, err := p.assemble(dir, clips, speed, prog, logger)
	if err != nil {
		if tooLarge, ok := asTooLarge(err); ok {
			prog.report(msgTooLarge(tooLarge.SizeMB, tooLarge.LimitMB))
		} else {
			logger.Error("assembly failed", "error", err)
			prog.report(msgGenericFailure)
		}
		return err
	}

	prog.delete()
	return p.deliver(m, path, logger)
}

// assemble merges the ordered clips, applies the speed transform, encodes
// the final container, and enforces the size ceiling. The ceiling is
// checked on the encoded artifact after the transform — that is the file
// that would be delivered. Speed is applied to the merged whole, never per
// chunk, to avoid stretch seams at chunk boundaries.
func (p *Pipeline) assemble(dir string, clips []*audio.Clip, speed float64, prog *progress, logger *slog.Logger) (string, error) {
	prog.report("Combining audio segments...")
	merged, err := audio.Merge(clips)
	if err != nil {
		return "", fmt.Errorf("assembling clips: %w", err)
	}

	if speed != 1.0 {
		prog.report(fmt.Sprintf("Applying %gx speed...", speed))
		merged = merged.ApplySpeed(speed)
	}

	prog.report("Converting to voice format...")
	path := filepath.Join(dir, "voice.wav")
	if err := audio.EncodeWAV(path, merged); err != nil {
		return "", err
	}

	sizeMB, err := audio.FileSizeMB(path)
	if err != nil {
		return "", err
	}
	logger.Info("voice clip assembled", "duration", merged.Duration(), "size_mb", sizeMB)

	if sizeMB > float64(p.cfg.MaxAudioMB) {
		logger.Warn("audio over delivery ceiling", "size_mb", sizeMB, "limit_mb", p.cfg.MaxAudioMB)
		return "", &OutputTooLargeError{SizeMB: sizeMB, LimitMB: p.cfg.MaxAudioMB}
	}
	return path, nil
}

func (p *Pipeline) deliver(m Messenger, path string, logger *slog.Logger) error {
	if err := m.SendVoice(path); err != nil {
		logger.Error("delivery failed", "error", err)
		p.reply(m, msgGenericFailure, logger)
		return &DeliveryError{Err: err}
	}
	logger.Info("voice clip delivered")
	return nil
}

// synthesizeChunk runs one synthesis call under the per-call deadline.
func (p *Pipeline) synthesizeChunk(ctx context.Context, text string) (*audio.Clip, error) {
	if p.synthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.synthTimeout)
		defer cancel()
	}
	return p.synth.Synthesize(ctx, text)
}

// acquireTempDir creates the per-job scratch directory. The returned
// release removes it and is safe to defer on every exit path.
func (p *Pipeline) acquireTempDir(logger *slog.Logger) (string, func(), error) {
	dir, err := os.MkdirTemp("", "texttospeak-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	release := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}
	return dir, release, nil
}

// reply sends a text message, logging instead of failing when the send
// itself errors.
func (p *Pipeline) reply(m Messenger, text string, logger *slog.Logger) {
	if err := m.Reply(text); err != nil {
		logger.Warn("failed to send reply", "error", err)
	}
}

func asTooLarge(err error) (*OutputTooLargeError, bool) {
	var tooLarge *OutputTooLargeError
	if errors.As(err, &tooLarge) {
		return tooLarge, true
	}
	return nil, false
}
