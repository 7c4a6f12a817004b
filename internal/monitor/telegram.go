package monitor

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

// TelegramSource streams messages and channel posts via bot long
// polling. Only chats in the allow list are forwarded; an empty list
// forwards everything the bot can see.
type TelegramSource struct {
	api     *tgbotapi.BotAPI
	allowed map[int64]bool
	log     zerolog.Logger
}

// NewTelegramSource authorizes the bot token and returns the source.
func NewTelegramSource(token string, allowedChats []int64, log zerolog.Logger) (*TelegramSource, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	allowed := make(map[int64]bool, len(allowedChats))
	for _, id := range allowedChats {
		allowed[id] = true
	}

	log = log.With().Str("component", "telegram").Logger()
	log.Info().Str("bot", api.Self.UserName).Msg("telegram bot authorized")

	return &TelegramSource{api: api, allowed: allowed, log: log}, nil
}

// Name implements Source.
func (s *TelegramSource) Name() string {
	return "telegram"
}

// Run implements Source.
func (s *TelegramSource) Run(ctx context.Context, out chan<- TextEvent) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram updates channel closed")
			}
			event, ok := s.eventFromUpdate(update)
			if !ok {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				s.api.StopReceivingUpdates()
				return ctx.Err()
			}
		}
	}
}

// eventFromUpdate maps one update to a text event. Updates without
// text and updates from chats outside the allow list are dropped.
func (s *TelegramSource) eventFromUpdate(update tgbotapi.Update) (TextEvent, bool) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || msg.Text == "" {
		return TextEvent{}, false
	}

	if len(s.allowed) > 0 && !s.allowed[msg.Chat.ID] {
		s.log.Debug().Int64("chat_id", msg.Chat.ID).Msg("dropping message from unlisted chat")
		return TextEvent{}, false
	}

	return TextEvent{
		Platform: domain.PlatformTelegram,
		Source:   chatName(msg.Chat),
		Text:     msg.Text,
		SeenAt:   time.Now().UTC(),
	}, true
}

func chatName(chat *tgbotapi.Chat) string {
	if chat == nil {
		return ""
	}
	if chat.UserName != "" {
		return chat.UserName
	}
	if chat.Title != "" {
		return chat.Title
	}
	return fmt.Sprintf("chat:%d", chat.ID)
}
