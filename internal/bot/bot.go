package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocabsrs/internal/review"
)

// Bot represents the Telegram bot application
type Bot struct {
	api      *tgbotapi.BotAPI
	service  *review.Service
	config   *BotConfig
	sessions *sessionStore
}

// New creates a new bot instance
func New(token string, service *review.Service, config *BotConfig) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if config == nil {
		config = DefaultConfig()
	}

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	return &Bot{
		api:      botAPI,
		service:  service,
		config:   config,
		sessions: newSessionStore(),
	}, nil
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops receiving updates
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	log.Println("Bot stopped")
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	ctx := context.Background()

	// User ID and chat ID are the same for private chats
	chatID := userID

	cardForm := "cards"
	if count == 1 {
		cardForm = "card"
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("You have %d %s to review!", count, cardForm))

	decks, err := b.service.ListDecks(ctx, userID)
	if err != nil {
		log.Printf("Error listing decks for user %d: %v", userID, err)
	} else if rows := reviewButtons(decks); len(rows) > 0 {
		msg.ReplyMarkup = createKeyboard(rows)
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	log.Printf("Successfully sent reminder to user %d for %d cards", userID, count)
	return nil
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		message := update.Message
		if message.IsCommand() {
			if err := b.HandleCommand(ctx, message); err != nil {
				log.Printf("Error handling /%s: %v", message.Command(), err)
				b.reply(message.Chat.ID, "Something went wrong: "+err.Error())
			}
			return
		}
		if message.Document != nil {
			if err := b.handleDocument(ctx, message); err != nil {
				log.Printf("Error importing document from user %d: %v", message.From.ID, err)
				b.reply(message.Chat.ID, "Import failed: "+err.Error())
			}
			return
		}
		b.reply(message.Chat.ID, "I don't understand. Use /help to see the commands.")

	case update.CallbackQuery != nil:
		if err := b.HandleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("Error handling callback %q: %v", update.CallbackQuery.Data, err)
		}
	}
}

// reply sends a plain text message
func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

// replyWithKeyboard sends a message with inline buttons
func (b *Bot) replyWithKeyboard(chatID int64, text string, buttons [][]MenuButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

// edit replaces the text and buttons of a message
func (b *Bot) edit(chatID int64, messageID int, text string, buttons [][]MenuButton) {
	var cfg tgbotapi.EditMessageTextConfig
	if len(buttons) > 0 {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, createKeyboard(buttons))
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := b.api.Send(cfg); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		log.Printf("Error editing message %d: %v", messageID, err)
	}
}
