package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/NikzGod/Text-To-Speak/internal/audio"
	"github.com/NikzGod/Text-To-Speak/internal/config"
	"github.com/faiface/beep"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCfg() config.PipelineConfig {
	return config.PipelineConfig{
		ChunkLimit:    25,
		MaxTextLength: 100000,
		MaxAudioMB:    50,
		ProgressEvery: 5,
	}
}

// fakeSynth produces silent marker clips and can be told to fail on the
// Nth call.
type fakeSynth struct {
	calls   []string
	failAt  int // 1-based call index to fail on; 0 never fails
	samples int
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) (*audio.Clip, error) {
	f.calls = append(f.calls, text)
	if f.failAt != 0 && len(f.calls) == f.failAt {
		return nil, errors.New("backend rejected segment")
	}
	n := f.samples
	if n == 0 {
		n = 800
	}
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(beep.Take(n, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i][0], samples[i][1] = 0.1, 0.1
		}
		return len(samples), true
	})))
	return audio.NewClip(buf), nil
}

type fakeStatus struct {
	edits   []string
	deleted bool
	editErr error
}

func (s *fakeStatus) Edit(text string) error {
	if s.editErr != nil {
		return s.editErr
	}
	s.edits = append(s.edits, text)
	return nil
}

func (s *fakeStatus) Delete() error {
	s.deleted = true
	return nil
}

type fakeMessenger struct {
	t           *testing.T
	replies     []string
	announced   []string
	status      *fakeStatus
	announceErr error
	recordings  int
	delivered   []string
	sendErr     error
}

func (m *fakeMessenger) Recording() { m.recordings++ }

func (m *fakeMessenger) Reply(text string) error {
	m.replies = append(m.replies, text)
	return nil
}

func (m *fakeMessenger) Announce(text string) (Status, error) {
	if m.announceErr != nil {
		return nil, m.announceErr
	}
	m.announced = append(m.announced, text)
	if m.status == nil {
		m.status = &fakeStatus{}
	}
	return m.status, nil
}

func (m *fakeMessenger) SendVoice(path string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	// Delivery must happen before the job's temp resources are released.
	if _, err := os.Stat(path); err != nil {
		m.t.Fatalf("voice file missing at delivery time: %v", err)
	}
	m.delivered = append(m.delivered, path)
	return nil
}

func run(t *testing.T, cfg config.PipelineConfig, synth *fakeSynth, job Job) (*fakeMessenger, error) {
	t.Helper()
	m := &fakeMessenger{t: t}
	p := New(cfg, 0, synth, newLogger())
	err := p.Run(context.Background(), job, m)
	return m, err
}

func TestSingleChunkShortcut(t *testing.T) {
	cfg := testCfg()
	cfg.ChunkLimit = 180
	synth := &fakeSynth{}

	m, err := run(t, cfg, synth, Job{Text: strings.Repeat("a", 50), Speed: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(synth.calls) != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", len(synth.calls))
	}
	if len(m.announced) != 0 {
		t.Fatalf("single-chunk job must not create a progress message, got %v", m.announced)
	}
	if len(m.delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(m.delivered))
	}
	if _, err := os.Stat(m.delivered[0]); !os.IsNotExist(err) {
		t.Fatalf("temp resources not released after delivery: %v", err)
	}
}

func TestMultiChunkProgressCadence(t *testing.T) {
	// Five ~20-char sentences against a 25-rune limit: one chunk each.
	var sentences []string
	for i := 0; i < 5; i++ {
		sentences = append(sentences, fmt.Sprintf("This is sentence %d.", i))
	}
	text := strings.Join(sentences, " ")
	synth := &fakeSynth{}

	m, err := run(t, testCfg(), synth, Job{Text: text, Speed: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(synth.calls) != 5 {
		t.Fatalf("expected 5 synthesis calls, got %d", len(synth.calls))
	}
	if len(m.announced) != 1 {
		t.Fatalf("expected one progress message, got %d", len(m.announced))
	}

	var counters, combining, converting int
	for _, e := range m.status.edits {
		switch {
		case strings.Contains(e, "Processed"):
			counters++
			if !strings.Contains(e, "5/5") {
				t.Fatalf("unexpected counter edit: %q", e)
			}
		case strings.Contains(e, "Combining"):
			combining++
		case strings.Contains(e, "Converting to voice format"):
			converting++
		}
	}
	// Cadence 5 over 5 chunks: exactly one counter update, at the last chunk.
	if counters != 1 || combining != 1 || converting != 1 {
		t.Fatalf("unexpected edit sequence: %v", m.status.edits)
	}
	if !m.status.deleted {
		t.Fatal("progress message must be deleted on success")
	}
	if len(m.delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(m.delivered))
	}
}

func TestCadenceEveryFifthChunk(t *testing.T) {
	// Twelve sentences: counter updates after chunks 5, 10, and 12.
	var sentences []string
	for i := 0; i < 12; i++ {
		sentences = append(sentences, fmt.Sprintf("This is sentence %d.", i))
	}
	synth := &fakeSynth{}

	m, err := run(t, testCfg(), synth, Job{Text: strings.Join(sentences, " "), Speed: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var counters []string
	for _, e := range m.status.edits {
		if strings.Contains(e, "Processed") {
			counters = append(counters, e)
		}
	}
	if len(counters) != 3 ||
		!strings.Contains(counters[0], "5/12") ||
		!strings.Contains(counters[1], "10/12") ||
		!strings.Contains(counters[2], "12/12") {
		t.Fatalf("unexpected counter updates: %v", counters)
	}
}

func TestInputTooLongRejectedBeforeChunking(t *testing.T) {
	cfg := testCfg()
	cfg.MaxTextLength = 100
	synth := &fakeSynth{}

	m, err := run(t, cfg, synth, Job{Text: strings.Repeat("a", 150), Speed: 1.0})

	var tooLong *InputTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("expected InputTooLongError, got %v", err)
	}
	if tooLong.Length != 150 || tooLong.Limit != 100 {
		t.Fatalf("unexpected error detail: %+v", tooLong)
	}
	if len(synth.calls) != 0 {
		t.Fatalf("expected zero synthesis calls, got %d", len(synth.calls))
	}
	if len(m.replies) != 1 || !strings.Contains(m.replies[0], "Text is too long") {
		t.Fatalf("expected a specific rejection reply, got %v", m.replies)
	}
	if len(m.delivered) != 0 {
		t.Fatal("nothing may be delivered for rejected input")
	}
}

func TestEmptyInput(t *testing.T) {
	synth := &fakeSynth{}
	m, err := run(t, testCfg(), synth, Job{Text: "   \n  ", Speed: 1.0})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(m.replies) != 1 {
		t.Fatalf("expected one reply, got %v", m.replies)
	}
}

func TestSynthesisFailureAbortsJob(t *testing.T) {
	var sentences []string
	for i := 0; i < 7; i++ {
		sentences = append(sentences, fmt.Sprintf("This is sentence %d.", i))
	}
	synth := &fakeSynth{failAt: 3}

	m, err := run(t, testCfg(), synth, Job{Text: strings.Join(sentences, " "), Speed: 1.0})

	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}
	if synthErr.Chunk != 3 || synthErr.Total != 7 {
		t.Fatalf("unexpected failure detail: %+v", synthErr)
	}
	if len(synth.calls) != 3 {
		t.Fatalf("job must abort on first failure, got %d calls", len(synth.calls))
	}
	if len(m.delivered) != 0 {
		t.Fatal("no partial artifact may be delivered")
	}
	if m.status.deleted {
		t.Fatal("progress message must be edited into a failure notice, not deleted")
	}
	last := m.status.edits[len(m.status.edits)-1]
	if !strings.Contains(last, "error processing your text") {
		t.Fatalf("expected failure notice, got %q", last)
	}
}

func TestOutputTooLargeBlocksDelivery(t *testing.T) {
	cfg := testCfg()
	cfg.MaxAudioMB = 1
	// Two clips of 300k samples each: ~1.2 MB of 16-bit mono WAV.
	synth := &fakeSynth{samples: 300000}

	text := "This is sentence 1. This is sentence 2."
	m, err := run(t, cfg, synth, Job{Text: text, Speed: 1.0})

	var tooLarge *OutputTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected OutputTooLargeError, got %v", err)
	}
	if tooLarge.SizeMB <= 1 || tooLarge.LimitMB != 1 {
		t.Fatalf("unexpected size detail: %+v", tooLarge)
	}
	if len(m.delivered) != 0 {
		t.Fatal("oversized artifact must never be delivered")
	}
	last := m.status.edits[len(m.status.edits)-1]
	if !strings.Contains(last, "too large") || !strings.Contains(last, "1 MB") {
		t.Fatalf("expected both figures in the notice, got %q", last)
	}
	if m.status.deleted {
		t.Fatal("progress message must stay as the failure notice")
	}
}

func TestSpeedStageReported(t *testing.T) {
	text := "This is sentence 1. This is sentence 2."
	synth := &fakeSynth{}

	m, err := run(t, testCfg(), synth, Job{Text: text, Speed: 2.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range m.status.edits {
		if strings.Contains(e, "Applying 2x speed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected speed stage edit, got %v", m.status.edits)
	}
	if len(m.delivered) != 1 {
		t.Fatalf("expected delivery, got %d", len(m.delivered))
	}
}

func TestAnnounceFailureDoesNotAbort(t *testing.T) {
	text := "This is sentence 1. This is sentence 2."
	synth := &fakeSynth{}
	m := &fakeMessenger{t: t, announceErr: errors.New("flood control")}
	p := New(testCfg(), 0, synth, newLogger())

	if err := p.Run(context.Background(), Job{Text: text, Speed: 1.0}, m); err != nil {
		t.Fatalf("cosmetic failure must not abort the job: %v", err)
	}
	if len(m.delivered) != 1 {
		t.Fatalf("expected delivery, got %d", len(m.delivered))
	}
}

func TestDeliveryFailureReported(t *testing.T) {
	synth := &fakeSynth{}
	m := &fakeMessenger{t: t, sendErr: errors.New("network down")}
	p := New(testCfg(), 0, synth, newLogger())

	err := p.Run(context.Background(), Job{Text: "short text", Speed: 1.0}, m)
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if len(m.replies) != 1 {
		t.Fatalf("expected best-effort failure reply, got %v", m.replies)
	}
}
