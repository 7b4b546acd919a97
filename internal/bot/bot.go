// Package bot implements the Telegram transport for the texttospeak
// daemon.
//
// It long-polls the Bot API, routes commands and content to handlers, and
// hands conversion work to the pipeline. Telebot runs one goroutine per
// update, so jobs from different chats naturally process concurrently;
// every per-job resource stays confined to its job.
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/NikzGod/Text-To-Speak/internal/config"
	"github.com/NikzGod/Text-To-Speak/internal/pipeline"
	tele "gopkg.in/telebot.v3"
)

const helpTemplate = `Welcome to the Text-To-Speak bot!

Send me any text message or a .txt file and I'll convert it to a single voice message.

Long texts are split, synthesized piece by piece, and merged back into one clip, with progress updates along the way.

Current speed: %gx

Commands:
/speed - Toggle between normal (1x) and 2x speed
/help - Show this message`

// Bot is the Telegram front end.
type Bot struct {
	tb     *tele.Bot
	pipe   *pipeline.Pipeline
	prefs  *SpeedPrefs
	logger *slog.Logger
	ctx    context.Context
}

// New creates the bot and registers its handlers. It validates the token
// against the Bot API, so a bad token fails here rather than at first poll.
func New(cfg config.TelegramConfig, pipe *pipeline.Pipeline, logger *slog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required (set TELEGRAM_BOT_TOKEN)")
	}
	logger = logger.With(slog.String("component", "bot"))

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout()},
		OnError: func(err error, c tele.Context) {
			logger.Error("update handler failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	b := &Bot{
		tb:     tb,
		pipe:   pipe,
		prefs:  NewSpeedPrefs(),
		logger: logger,
		ctx:    context.Background(),
	}

	tb.Handle("/start", b.handleHelp)
	tb.Handle("/help", b.handleHelp)
	tb.Handle("/speed", b.handleSpeedToggle)
	tb.Handle(tele.OnText, b.handleText)
	tb.Handle(tele.OnDocument, b.handleDocument)

	return b, nil
}

// Username returns the bot's own Telegram username.
func (b *Bot) Username() string {
	return b.tb.Me.Username
}

// Listen starts long polling and blocks until ctx is cancelled. In-flight
// jobs inherit ctx, so shutdown also cancels their synthesis calls.
func (b *Bot) Listen(ctx context.Context) {
	b.ctx = ctx
	go func() {
		<-ctx.Done()
		b.tb.Stop()
	}()
	b.logger.Info("telegram bot polling", "username", b.tb.Me.Username)
	b.tb.Start()
}

func (b *Bot) handleHelp(c tele.Context) error {
	speed := b.prefs.Speed(c.Sender().ID)
	return c.Reply(fmt.Sprintf(helpTemplate, speed))
}

func (b *Bot) handleSpeedToggle(c tele.Context) error {
	speed := b.prefs.Toggle(c.Sender().ID)
	b.logger.Info("speed preference changed", "user", c.Sender().ID, "speed", speed)
	if speed == 2.0 {
		return c.Reply("Speed set to 2x. All your voice messages will now be generated at 2x speed.")
	}
	return c.Reply("Speed set to normal (1x). All your voice messages will now be generated at normal speed.")
}

func (b *Bot) handleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Reply("Please send me some text to convert to speech!")
	}
	b.convert(c, text)
	return nil
}

func (b *Bot) handleDocument(c tele.Context) error {
	doc := c.Message().Document
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".txt") {
		return c.Reply("Please send only .txt files. Other file types are not supported.")
	}

	if err := b.tb.Notify(c.Chat(), tele.Typing); err != nil {
		b.logger.Debug("typing action failed", "error", err)
	}

	rc, err := b.tb.File(&doc.File)
	if err != nil {
		b.logger.Warn("file download failed", "file", doc.FileName, "error", err)
		return c.Reply("Sorry, I couldn't download your file. Please try again.")
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		b.logger.Warn("file read failed", "file", doc.FileName, "error", err)
		return c.Reply("Sorry, I couldn't download your file. Please try again.")
	}

	text, err := decodeText(raw)
	if err != nil {
		b.logger.Info("undecodable file", "file", doc.FileName, "error", err)
		return c.Reply("Sorry, I couldn't read this file. Please make sure it's a valid text file.")
	}
	if strings.TrimSpace(text) == "" {
		return c.Reply("The file is empty. Please send a file with some text content.")
	}

	b.logger.Info("processing text file", "file", doc.FileName, "bytes", len(raw))
	b.convert(c, text)
	return nil
}

// convert runs the pipeline for one request. The speed preference is
// snapshotted here, at job start: a toggle while the job runs does not
// affect it.
func (b *Bot) convert(c tele.Context, text string) {
	job := pipeline.Job{
		Text:  text,
		Speed: b.prefs.Speed(c.Sender().ID),
	}
	m := &chatMessenger{bot: b.tb, chat: c.Chat(), logger: b.logger}

	if err := b.pipe.Run(b.ctx, job, m); err != nil {
		// The pipeline has already told the user; this line is for the operator.
		b.logger.Info("job finished with error", "chat", c.Chat().ID, "error", err)
	}
}
