// Package audio wraps the codec operations the pipeline needs: decoding
// synthesized MP3 segments, lossless order-preserving concatenation, the
// uniform playback-speed transform, and final WAV container encoding.
//
// Everything is built on beep buffers, so clips are plain in-memory sample
// data. A Clip is immutable once produced: every transform returns a new
// Clip (or the same one, when the transform is a no-op).
package audio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// resampleQuality trades CPU for fidelity in beep's resampler.
const resampleQuality = 4

// Clip is decoded audio for one text segment or the assembled result.
type Clip struct {
	buf *beep.Buffer
}

// NewClip wraps an already-filled buffer in a Clip.
func NewClip(buf *beep.Buffer) *Clip {
	return &Clip{buf: buf}
}

// Decode reads one complete MP3 stream into a Clip.
func Decode(r io.Reader) (*Clip, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(r))
	if err != nil {
		return nil, fmt.Errorf("decoding mp3: %w", err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	if buf.Len() == 0 {
		return nil, fmt.Errorf("decoded mp3 contains no samples")
	}
	return &Clip{buf: buf}, nil
}

// Format returns the clip's sample format.
func (c *Clip) Format() beep.Format {
	return c.buf.Format()
}

// Len returns the number of samples in the clip.
func (c *Clip) Len() int {
	return c.buf.Len()
}

// Duration returns the clip's playback duration.
func (c *Clip) Duration() time.Duration {
	return c.buf.Format().SampleRate.D(c.buf.Len())
}

// Streamer streams the whole clip from the start.
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buf.Streamer(0, c.buf.Len())
}

// Merge concatenates clips in the given order into one clip.
//
// Concatenation is lossless and strictly order-preserving. A single-clip
// input is returned unchanged. Clips whose sample rate differs from the
// first clip's are resampled to it, so mixed-rate segments still line up
// without audible seams.
func Merge(clips []*Clip) (*Clip, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("no clips to merge")
	}
	if len(clips) == 1 {
		return clips[0], nil
	}

	format := clips[0].Format()
	out := beep.NewBuffer(format)
	for _, clip := range clips {
		var s beep.Streamer = clip.Streamer()
		if sr := clip.Format().SampleRate; sr != format.SampleRate {
			s = beep.Resample(resampleQuality, sr, format.SampleRate, s)
		}
		out.Append(s)
	}
	return &Clip{buf: out}, nil
}

// ApplySpeed uniformly time-compresses the clip by factor, so playback
// duration divides by factor. A factor of 1.0 (or any non-positive value)
// is a no-op returning the clip untouched.
func (c *Clip) ApplySpeed(factor float64) *Clip {
	if factor <= 0 || factor == 1.0 {
		return c
	}
	out := beep.NewBuffer(c.Format())
	out.Append(beep.ResampleRatio(resampleQuality, factor, c.Streamer()))
	return &Clip{buf: out}
}

// EncodeWAV writes the clip to path in its final delivery container.
func EncodeWAV(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := wav.Encode(f, c.Streamer(), c.Format()); err != nil {
		f.Close()
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

// FileSizeMB reports the encoded artifact's size in megabytes.
func FileSizeMB(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("measuring output file: %w", err)
	}
	return float64(info.Size()) / (1024 * 1024), nil
}
