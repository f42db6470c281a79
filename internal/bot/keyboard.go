package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocabsrs/internal/spaced_repetition"
)

// Telegram rejects callback data longer than 64 bytes
const maxCallbackData = 64

// Callback actions
const (
	actionGrade  = "g" // g:<deckID>:<cardID>:<grade>
	actionShow   = "s" // s:<deckID>:<cardID>
	actionReview = "r" // r:<deckID>
	actionStop   = "x"
)

var errBadCallback = errors.New("malformed callback data")

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// callback is a decoded inline button press. Empty IDs refer to the card
// currently shown in the user's session.
type callback struct {
	Action string
	DeckID string
	CardID string
	Grade  spaced_repetition.Grade
}

// encodeCallback builds callback data, dropping the IDs when they would
// exceed Telegram's limit.
func encodeCallback(action, deckID, cardID, suffix string) string {
	parts := []string{action, deckID}
	if action != actionReview {
		parts = append(parts, cardID)
	}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	data := strings.Join(parts, ":")
	if len(data) <= maxCallbackData {
		return data
	}

	parts[1] = ""
	if len(parts) > 2 {
		parts[2] = ""
	}
	return strings.Join(parts, ":")
}

func gradeCallbackData(deckID, cardID string, grade spaced_repetition.Grade) string {
	return encodeCallback(actionGrade, deckID, cardID, grade.String())
}

func showCallbackData(deckID, cardID string) string {
	return encodeCallback(actionShow, deckID, cardID, "")
}

func reviewCallbackData(deckID string) string {
	return encodeCallback(actionReview, deckID, "", "")
}

// parseCallback decodes callback data. Grades go through ParseGrade, so only
// the four grade labels are accepted.
func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, ":")
	cb := callback{Action: parts[0]}

	switch cb.Action {
	case actionGrade:
		if len(parts) != 4 {
			return cb, fmt.Errorf("%w: %q", errBadCallback, data)
		}
		grade, err := spaced_repetition.ParseGrade(parts[3])
		if err != nil {
			return cb, err
		}
		cb.DeckID, cb.CardID, cb.Grade = parts[1], parts[2], grade
	case actionShow:
		if len(parts) != 3 {
			return cb, fmt.Errorf("%w: %q", errBadCallback, data)
		}
		cb.DeckID, cb.CardID = parts[1], parts[2]
	case actionReview:
		if len(parts) != 2 {
			return cb, fmt.Errorf("%w: %q", errBadCallback, data)
		}
		cb.DeckID = parts[1]
	case actionStop:
	default:
		return cb, fmt.Errorf("%w: %q", errBadCallback, data)
	}
	return cb, nil
}

// gradeButtons returns one row with a button per grade, labelled with the
// time until the card would be shown again.
func gradeButtons(deckID, cardID string, hints map[spaced_repetition.Grade]string) [][]MenuButton {
	labels := map[spaced_repetition.Grade]string{
		spaced_repetition.Again: "Again",
		spaced_repetition.Hard:  "Hard",
		spaced_repetition.Good:  "Good",
		spaced_repetition.Easy:  "Easy",
	}

	row := make([]MenuButton, 0, len(spaced_repetition.Grades))
	for _, g := range spaced_repetition.Grades {
		text := labels[g]
		if hint, ok := hints[g]; ok {
			text = fmt.Sprintf("%s · %s", text, hint)
		}
		row = append(row, MenuButton{Text: text, CallbackData: gradeCallbackData(deckID, cardID, g)})
	}
	return [][]MenuButton{row, {{Text: "⏹ Stop", CallbackData: actionStop}}}
}

func showAnswerButtons(deckID, cardID string) [][]MenuButton {
	return [][]MenuButton{
		{{Text: "Show answer", CallbackData: showCallbackData(deckID, cardID)}},
		{{Text: "⏹ Stop", CallbackData: actionStop}},
	}
}
