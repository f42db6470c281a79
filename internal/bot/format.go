package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/vocabsrs/internal/queue"
	"github.com/example/vocabsrs/internal/review"
	"github.com/example/vocabsrs/internal/spaced_repetition"
	"github.com/example/vocabsrs/pkg/models"
)

const helpText = `Available commands:
/decks - List your decks
/newdeck <name> - Create a deck
/add <deck> | <term> | <definition> | <example> - Add a card
/review <deck> - Review the cards that are due
/stats <deck> - Show deck statistics
/help - Show this message

To import a deck, send an .xlsx or .csv file with the deck name as caption.
Columns: term, definition, example.`

// addArgs holds the parsed arguments of /add
type addArgs struct {
	Deck       string
	Term       string
	Definition string
	Example    string
}

// parseAddArgs splits "<deck> | <term> | <definition> | <example>"; the
// definition and example are optional.
func parseAddArgs(text string) (addArgs, error) {
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return addArgs{}, fmt.Errorf("usage: /add <deck> | <term> | <definition> | <example>")
	}
	if len(parts) > 4 {
		// Pipes inside the example are kept
		parts[3] = strings.Join(parts[3:], " | ")
		parts = parts[:4]
	}

	args := addArgs{Deck: parts[0], Term: parts[1]}
	if len(parts) > 2 {
		args.Definition = parts[2]
	}
	if len(parts) > 3 {
		args.Example = parts[3]
	}
	return args, nil
}

func formatQuestion(card models.Card, position, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 %d/%d\n\n%s", position, total, card.Term)
	if card.Lapses > 0 {
		fmt.Fprintf(&b, "\n\n(forgotten %d times)", card.Lapses)
	}
	return b.String()
}

func formatAnswer(card models.Card) string {
	var b strings.Builder
	b.WriteString(card.Term)
	if card.Definition != "" {
		fmt.Fprintf(&b, "\n\n%s", card.Definition)
	}
	if card.Context != "" {
		fmt.Fprintf(&b, "\n\n💬 %s", card.Context)
	}
	return b.String()
}

func formatGraded(res *review.Result, now time.Time) string {
	return fmt.Sprintf("%s: %s, next review in %s",
		res.After.Term, res.Grade, spaced_repetition.FormatInterval(res.After.DueAt.Sub(now)))
}

func formatStats(name string, s queue.Stats) string {
	return fmt.Sprintf(`📊 %s

Cards: %d
Due now: %d
Learning: %d
Mastered: %d
Lapses: %d
Reviews: %d`, name, s.Total, s.Due, s.Learning, s.Mastered, s.Lapses, s.Reviews)
}

func formatDeckList(decks []review.DeckSummary) string {
	if len(decks) == 0 {
		return "You have no decks yet. Create one with /newdeck <name>."
	}

	var b strings.Builder
	b.WriteString("Your decks:\n")
	for _, d := range decks {
		fmt.Fprintf(&b, "\n• %s: %d cards, %d due", d.Deck.Name, d.Stats.Total, d.Stats.Due)
	}
	return b.String()
}

// reviewButtons offers a review for every deck with due cards
func reviewButtons(decks []review.DeckSummary) [][]MenuButton {
	var rows [][]MenuButton
	for _, d := range decks {
		if d.Stats.Due == 0 {
			continue
		}
		rows = append(rows, []MenuButton{{
			Text:         fmt.Sprintf("Review %s (%d)", d.Deck.Name, d.Stats.Due),
			CallbackData: reviewCallbackData(d.Deck.ID),
		}})
	}
	return rows
}
