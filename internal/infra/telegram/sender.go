package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/telebot.v3"

	"student_outreach_engine/internal/domain/channel"
)

// Sender delivers chat messages through the Telegram Bot API. It implements
// the channel.Sender capability for the chat channel. Destinations are
// numeric chat ids in string form.
type Sender struct {
	bot *telebot.Bot
}

func NewSender(token string) (*Sender, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return &Sender{bot: bot}, nil
}

// Send pushes one message to a chat. The telebot client manages its own
// HTTP timeouts; the context is honored by checking cancellation up front.
func (s *Sender) Send(ctx context.Context, msg channel.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	chatID, err := strconv.ParseInt(msg.Destination, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid chat destination %q: %w", msg.Destination, err)
	}

	recipient := &telebot.User{ID: chatID}
	sent, err := s.bot.Send(recipient, msg.Body, &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	if err != nil {
		return "", fmt.Errorf("sending chat message: %w", err)
	}
	return strconv.Itoa(sent.ID), nil
}
