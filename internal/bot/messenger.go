package bot

import (
	"errors"
	"log/slog"

	"github.com/NikzGod/Text-To-Speak/internal/pipeline"
	tele "gopkg.in/telebot.v3"
)

// chatMessenger adapts one Telegram chat to the pipeline's Messenger
// contract. Each job gets its own instance; nothing here is shared across
// jobs.
type chatMessenger struct {
	bot    *tele.Bot
	chat   *tele.Chat
	logger *slog.Logger
}

func (m *chatMessenger) Recording() {
	if err := m.bot.Notify(m.chat, tele.RecordingAudio); err != nil {
		m.logger.Debug("recording action failed", "error", err)
	}
}

func (m *chatMessenger) Reply(text string) error {
	_, err := m.bot.Send(m.chat, text)
	return err
}

func (m *chatMessenger) Announce(text string) (pipeline.Status, error) {
	msg, err := m.bot.Send(m.chat, text)
	if err != nil {
		return nil, err
	}
	return &statusMessage{bot: m.bot, msg: msg}, nil
}

func (m *chatMessenger) SendVoice(path string) error {
	_, err := m.bot.Send(m.chat, &tele.Voice{File: tele.FromDisk(path)})
	return err
}

// statusMessage is the editable progress notice backing one multi-chunk
// job.
type statusMessage struct {
	bot *tele.Bot
	msg *tele.Message
}

func (s *statusMessage) Edit(text string) error {
	updated, err := s.bot.Edit(s.msg, text)
	if err != nil {
		// Editing to identical content is a Bot API error; the reporter
		// already suppresses duplicates, this covers races around retries.
		if errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
		return err
	}
	s.msg = updated
	return nil
}

func (s *statusMessage) Delete() error {
	return s.bot.Delete(s.msg)
}
