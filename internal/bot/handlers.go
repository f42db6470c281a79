package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocabsrs/internal/database"
	"github.com/example/vocabsrs/internal/excel"
	"github.com/example/vocabsrs/internal/spaced_repetition"
	"github.com/example/vocabsrs/pkg/models"
)

// HandleCommand routes commands to their handlers
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		return b.handleStart(message)
	case "help":
		b.reply(message.Chat.ID, helpText)
		return nil
	case "decks":
		return b.handleListDecks(ctx, message)
	case "newdeck":
		return b.handleNewDeck(ctx, message)
	case "add":
		return b.handleAddCard(ctx, message)
	case "review":
		return b.handleReview(ctx, message)
	case "stats":
		return b.handleStats(ctx, message)
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /help to see the commands.")
		return nil
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) error {
	b.reply(message.Chat.ID, "Welcome! I schedule your vocabulary reviews with spaced repetition. 🎓\n\n"+helpText)
	return nil
}

func (b *Bot) handleListDecks(ctx context.Context, message *tgbotapi.Message) error {
	decks, err := b.service.ListDecks(ctx, message.From.ID)
	if err != nil {
		return err
	}
	b.replyWithKeyboard(message.Chat.ID, formatDeckList(decks), reviewButtons(decks))
	return nil
}

func (b *Bot) handleNewDeck(ctx context.Context, message *tgbotapi.Message) error {
	name := message.CommandArguments()
	if name == "" {
		b.reply(message.Chat.ID, "Usage: /newdeck <name>")
		return nil
	}

	deck, err := b.service.CreateDeck(ctx, message.From.ID, name, "", models.SourceManual)
	if errors.Is(err, database.ErrDuplicateDeck) {
		b.reply(message.Chat.ID, fmt.Sprintf("You already have a deck named %q.", name))
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(message.Chat.ID, fmt.Sprintf("Deck %q created. Add cards with /add %s | <term> | <definition>", deck.Name, deck.Name))
	return nil
}

func (b *Bot) handleAddCard(ctx context.Context, message *tgbotapi.Message) error {
	args, err := parseAddArgs(message.CommandArguments())
	if err != nil {
		b.reply(message.Chat.ID, err.Error())
		return nil
	}

	deck, ok, err := b.findDeck(ctx, message, args.Deck)
	if err != nil || !ok {
		return err
	}

	card, err := b.service.AddCard(ctx, deck.ID, args.Term, args.Definition, args.Example)
	if errors.Is(err, database.ErrDuplicateCard) {
		b.reply(message.Chat.ID, fmt.Sprintf("%q is already in %s.", args.Term, deck.Name))
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(message.Chat.ID, fmt.Sprintf("Added %q to %s. It is due now.", card.Term, deck.Name))
	return nil
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	deck, ok, err := b.findDeck(ctx, message, message.CommandArguments())
	if err != nil || !ok {
		return err
	}

	stats, err := b.service.DeckStats(ctx, deck.ID)
	if err != nil {
		return err
	}
	text := formatStats(deck.Name, stats)
	if next, ok, err := b.service.NextDue(ctx, deck.ID); err == nil && ok {
		text += "\nNext review in " + spaced_repetition.FormatInterval(next.Sub(b.service.Now()))
	}
	b.reply(message.Chat.ID, text)
	return nil
}

func (b *Bot) handleReview(ctx context.Context, message *tgbotapi.Message) error {
	deck, ok, err := b.findDeck(ctx, message, message.CommandArguments())
	if err != nil || !ok {
		return err
	}
	return b.startReview(ctx, message.From.ID, message.Chat.ID, deck)
}

// findDeck resolves a deck argument and replies when it is missing
func (b *Bot) findDeck(ctx context.Context, message *tgbotapi.Message, name string) (*models.Deck, bool, error) {
	if name == "" {
		b.reply(message.Chat.ID, "Please name a deck. Use /decks to list them.")
		return nil, false, nil
	}
	deck, err := b.service.FindDeck(ctx, message.From.ID, name)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(message.Chat.ID, fmt.Sprintf("Deck %q not found. Use /decks to list your decks.", name))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return deck, true, nil
}

// handleDocument imports an uploaded spreadsheet into the deck named in the
// caption, creating the deck if needed.
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	doc := message.Document
	format, err := excel.FormatFromName(doc.FileName)
	if err != nil {
		return err
	}
	if doc.FileSize > b.config.MaxUploadSize {
		return fmt.Errorf("file is larger than %d bytes", b.config.MaxUploadSize)
	}
	if message.Caption == "" {
		b.reply(message.Chat.ID, "Please send the file again with the deck name as caption.")
		return nil
	}

	deck, err := b.service.FindDeck(ctx, message.From.ID, message.Caption)
	if errors.Is(err, database.ErrNotFound) {
		deck, err = b.service.CreateDeck(ctx, message.From.ID, message.Caption, doc.FileName, models.SourceImport)
	}
	if err != nil {
		return err
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file URL: %w", err)
	}

	dctx, cancel := context.WithTimeout(ctx, b.config.DownloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(dctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: %s", resp.Status)
	}

	body := io.LimitReader(resp.Body, int64(b.config.MaxUploadSize))
	result, err := excel.ImportReader(ctx, b.config.Import, format, body, deck.ID, b.service)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Imported into %s: %d created, %d skipped.", deck.Name, result.Created, result.Skipped)
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\n%d rows failed, first: %s", len(result.Errors), result.Errors[0])
	}
	b.replyWithKeyboard(message.Chat.ID, text, [][]MenuButton{{{Text: "Review now", CallbackData: reviewCallbackData(deck.ID)}}})
	return nil
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Acknowledge so the client stops the loading spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
	if query.Message == nil {
		return nil
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	cb, err := parseCallback(query.Data)
	if err != nil {
		return err
	}

	switch cb.Action {
	case actionReview:
		deck, err := b.service.FindDeck(ctx, userID, cb.DeckID)
		if err != nil {
			return err
		}
		return b.startReview(ctx, userID, chatID, deck)

	case actionShow:
		card, ok, err := b.sessionCard(ctx, userID, cb)
		if !ok {
			b.edit(chatID, messageID, "This review has ended. Start a new one with /review <deck>.", nil)
			return nil
		}
		if err != nil {
			return err
		}
		b.edit(chatID, messageID, formatAnswer(*card), gradeButtons(card.DeckID, card.ID, b.service.Hints(*card)))
		return nil

	case actionGrade:
		card, ok, err := b.sessionCard(ctx, userID, cb)
		if !ok {
			b.edit(chatID, messageID, "This review has ended. Start a new one with /review <deck>.", nil)
			return nil
		}
		if err != nil {
			return err
		}
		deckID := card.DeckID

		res, err := b.service.Grade(ctx, deckID, card.ID, cb.Grade)
		switch {
		case err != nil:
			// One failed save does not end the session
			log.Printf("Error grading card %s for user %d: %v", card.ID, userID, err)
			b.edit(chatID, messageID, "Could not save this review, moving on.", nil)
		case res.Duplicate:
			// The first press already moved the session on
			return nil
		default:
			b.edit(chatID, messageID, formatGraded(res, b.service.Now()), nil)
		}

		session, ok := b.sessions.update(userID, func(s *reviewSession) {
			if s.DeckID == deckID {
				s.Reviewed++
			}
		})
		if !ok || session.DeckID != deckID {
			return nil
		}
		return b.showNextCard(ctx, userID, chatID)

	case actionStop:
		session, ok := b.sessions.end(userID)
		if ok {
			b.edit(chatID, messageID, fmt.Sprintf("Review of %s stopped after %d cards.", session.DeckName, session.Reviewed), nil)
		}
		return nil
	}
	return nil
}

// sessionCard loads the card a callback refers to. Callback data comes from
// the client, so the card's deck must belong to the user. ok is false when the
// callback carries no IDs and no review is running.
func (b *Bot) sessionCard(ctx context.Context, userID int64, cb callback) (card *models.Card, ok bool, err error) {
	deckID, cardID, ok := b.resolveCard(userID, cb)
	if !ok {
		return nil, false, nil
	}
	card, err = b.service.OwnedCard(ctx, userID, deckID, cardID)
	return card, true, err
}

// resolveCard fills empty callback IDs from the user's session
func (b *Bot) resolveCard(userID int64, cb callback) (string, string, bool) {
	if cb.DeckID != "" && cb.CardID != "" {
		return cb.DeckID, cb.CardID, true
	}
	session, ok := b.sessions.get(userID)
	if !ok || session.CardID == "" {
		return "", "", false
	}
	return session.DeckID, session.CardID, true
}

func (b *Bot) startReview(ctx context.Context, userID, chatID int64, deck *models.Deck) error {
	b.sessions.put(userID, reviewSession{
		DeckID:    deck.ID,
		DeckName:  deck.Name,
		Limit:     b.config.ReviewBatchSize,
		StartedAt: b.service.Now(),
	})
	return b.showNextCard(ctx, userID, chatID)
}

// showNextCard sends the most overdue card of the session's deck, or ends
// the session when nothing is left.
func (b *Bot) showNextCard(ctx context.Context, userID, chatID int64) error {
	session, ok := b.sessions.get(userID)
	if !ok {
		return nil
	}

	if session.done() {
		b.sessions.end(userID)
		b.reply(chatID, fmt.Sprintf("Session complete: %d cards reviewed in %s. 🎉", session.Reviewed, session.DeckName))
		return nil
	}

	card, ok, err := b.service.NextCard(ctx, session.DeckID)
	if err != nil {
		return err
	}
	if !ok {
		b.sessions.end(userID)
		text := fmt.Sprintf("No cards due in %s.", session.DeckName)
		if session.Reviewed > 0 {
			text = fmt.Sprintf("All done! %d cards reviewed in %s.", session.Reviewed, session.DeckName)
		}
		if next, ok, err := b.service.NextDue(ctx, session.DeckID); err == nil && ok {
			text += " Next review in " + spaced_repetition.FormatInterval(next.Sub(b.service.Now())) + "."
		}
		b.reply(chatID, text)
		return nil
	}

	b.sessions.update(userID, func(s *reviewSession) { s.CardID = card.ID })

	remaining, err := b.service.DueQueue(ctx, session.DeckID, 0)
	if err != nil {
		return err
	}
	total := session.Reviewed + len(remaining)
	if session.Limit > 0 && total > session.Limit {
		total = session.Limit
	}
	b.replyWithKeyboard(chatID, formatQuestion(card, session.Reviewed+1, total), showAnswerButtons(card.DeckID, card.ID))
	return nil
}
