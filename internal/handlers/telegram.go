package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"

	"yt-subtracker/internal/models"
	"yt-subtracker/pkg/tasks"
)

// telegramMessageLimit is Telegram's maximum message length.
const telegramMessageLimit = 4096

// StartTelegramBot serves bot commands until ctx is cancelled.
func (h *Handlers) StartTelegramBot(ctx context.Context, token string) error {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("start telegram bot: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			for _, msg := range h.handleCommand(ctx, update.Message) {
				if _, err := bot.Send(msg); err != nil {
					log.Printf("Error sending telegram message: %v", err)
				}
			}
		}
	}
}

func (h *Handlers) handleCommand(ctx context.Context, message *tgbotapi.Message) []tgbotapi.MessageConfig {
	chatID := message.Chat.ID
	if message.From == nil || (h.deps.OwnerTelegramID != 0 && message.From.ID != h.deps.OwnerTelegramID) {
		return []tgbotapi.MessageConfig{tgbotapi.NewMessage(chatID, "This bot is private.")}
	}
	log.Printf("[%s] %s", message.From.UserName, message.Text)

	switch message.Command() {
	case "subscriptions":
		return h.handleSubscriptionsCommand(ctx, chatID)
	case "sync":
		return []tgbotapi.MessageConfig{h.handleSyncCommand(chatID)}
	case "subfeed":
		url := strings.TrimRight(h.deps.BaseURL, "/") + "/api/v1/subfeed.rss"
		return []tgbotapi.MessageConfig{tgbotapi.NewMessage(chatID, url)}
	default:
		return []tgbotapi.MessageConfig{tgbotapi.NewMessage(chatID, "I don't know that command")}
	}
}

func (h *Handlers) handleSubscriptionsCommand(ctx context.Context, chatID int64) []tgbotapi.MessageConfig {
	channels, err := h.deps.Channels.List(ctx)
	if err != nil {
		log.Printf("Error getting channels: %v", err)
		return []tgbotapi.MessageConfig{tgbotapi.NewMessage(chatID, "Internal server error")}
	}
	if len(channels) == 0 {
		return []tgbotapi.MessageConfig{tgbotapi.NewMessage(chatID, "No subscriptions cached yet. Try /sync.")}
	}

	var msgs []tgbotapi.MessageConfig
	for _, chunk := range formatSubscriptions(channels, telegramMessageLimit) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = "HTML"
		msgs = append(msgs, msg)
	}
	return msgs
}

func (h *Handlers) handleSyncCommand(chatID int64) tgbotapi.MessageConfig {
	task, err := tasks.NewSyncSubscriptionsTask()
	if err == nil {
		_, err = h.asynqClient.Enqueue(task)
	}
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return tgbotapi.NewMessage(chatID, "A sync is already queued.")
	}
	if err != nil {
		log.Printf("Error enqueuing sync task: %v", err)
		return tgbotapi.NewMessage(chatID, "Could not queue the sync.")
	}
	return tgbotapi.NewMessage(chatID, "Sync queued.")
}

// formatSubscriptions renders one line per channel and splits the text into
// chunks no longer than limit.
func formatSubscriptions(channels []models.Channel, limit int) []string {
	var chunks []string
	var b strings.Builder
	for _, ch := range channels {
		line := fmt.Sprintf("<b>%s</b> <code>%s</code>", html.EscapeString(ch.Title), ch.ID)
		if ch.SubscribedOverride {
			line += " (pinned)"
		}
		line += "\n"
		if b.Len() > 0 && b.Len()+len(line) > limit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
