// Package gtts implements the TTS Engine against the Google Translate
// speech endpoint.
//
// This is the same unofficial endpoint the gTTS library uses: a plain GET
// with the text and language tag, answered with an MP3 body. It accepts
// only short inputs (roughly 200 characters), which is why the pipeline
// chunks text before synthesis. No API key is required, but the request
// must look like it comes from the Translate web client.
package gtts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/NikzGod/Text-To-Speak/internal/config"
)

const defaultEndpoint = "https://translate.google.com/translate_tts"

// userAgent mimics the Translate web client; the endpoint rejects requests
// without a browser agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Client synthesizes speech via the Translate TTS endpoint.
type Client struct {
	endpoint string
	language string
	http     *http.Client
}

// New creates a new Translate TTS client from config.
func New(cfg config.TTSConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		language: cfg.Language,
		http:     &http.Client{},
	}
}

// Synthesize fetches MP3 audio for one text segment.
// The caller bounds the call with a context deadline.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", c.language)
	q.Set("q", text)
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building tts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	slog.Debug("gtts synthesize", "text_length", len(text), "language", c.language)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling tts endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The endpoint answers 4xx for unsupported characters or throttling.
		return nil, fmt.Errorf("tts endpoint returned %s", resp.Status)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tts response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts endpoint returned empty audio")
	}
	return audio, nil
}
