package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/vocabsrs/internal/database"
	"github.com/example/vocabsrs/internal/excel"
	"github.com/example/vocabsrs/internal/spaced_repetition"
	"github.com/example/vocabsrs/pkg/models"
)

func newDeckCommand(a *app) *cobra.Command {
	deckCmd := &cobra.Command{
		Use:   "deck",
		Short: "Manage decks",
	}

	var description string
	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an empty deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := a.service.CreateDeck(cmd.Context(), a.owner, args[0], description, models.SourceManual)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deck %q (%s)\n", deck.Name, deck.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&description, "description", "", "Deck description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List decks with their statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			decks, err := a.service.ListDecks(cmd.Context(), a.owner)
			if err != nil {
				return err
			}
			if len(decks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No decks")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCARDS\tDUE\tLEARNING\tMASTERED\tSOURCE")
			for _, d := range decks {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n", d.Deck.Name, d.Stats.Total, d.Stats.Due,
					d.Stats.Learning, d.Stats.Mastered, d.Deck.SourceType)
			}
			return w.Flush()
		},
	}

	var force bool
	deleteCmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deck, err := a.service.FindDeck(cmd.Context(), a.owner, args[0])
			if err != nil {
				return err
			}
			err = a.service.DeleteDeck(cmd.Context(), deck.ID, force)
			if errors.Is(err, database.ErrDeckNotEmpty) {
				return fmt.Errorf("%w, use --force to delete its cards too", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %q\n", deck.Name)
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&force, "force", false, "Also delete the deck's cards and review history")

	deckCmd.AddCommand(createCmd, listCmd, deleteCmd)
	return deckCmd
}

func newImportCommand(a *app) *cobra.Command {
	var deckName, sheet string
	var startRow int

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import cards from an .xlsx or .csv file (columns: term, definition, example)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if deckName == "" {
				return fmt.Errorf("--deck is required")
			}

			deck, err := a.service.FindDeck(ctx, a.owner, deckName)
			if errors.Is(err, database.ErrNotFound) {
				deck, err = a.service.CreateDeck(ctx, a.owner, deckName, filepath.Base(args[0]), models.SourceImport)
			}
			if err != nil {
				return err
			}

			importConfig := excel.DefaultImportConfig()
			importConfig.FilePath = args[0]
			importConfig.SheetName = sheet
			importConfig.StartRow = startRow

			result, err := excel.ImportCards(ctx, importConfig, deck.ID, a.service)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported into %s: %d rows, %d created, %d skipped\n",
				deck.Name, result.TotalProcessed, result.Created, result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  "+e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&deckName, "deck", "", "Target deck, created if missing")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Excel sheet name (default: first sheet)")
	cmd.Flags().IntVar(&startRow, "start-row", 2, "First row to import (1-based)")
	return cmd
}

func newDueCommand(a *app) *cobra.Command {
	var deckName string
	var limit int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the cards that are due, most overdue first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deck, err := a.service.FindDeck(ctx, a.owner, deckName)
			if err != nil {
				return err
			}
			cards, err := a.service.DueQueue(ctx, deck.ID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintf(out, "Nothing due in %s", deck.Name)
				if next, ok, err := a.service.NextDue(ctx, deck.ID); err == nil && ok {
					fmt.Fprintf(out, ", next review in %s", spaced_repetition.FormatInterval(next.Sub(a.service.Now())))
				}
				fmt.Fprintln(out)
				return nil
			}

			now := a.service.Now()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTERM\tOVERDUE\tINTERVAL\tEASE")
			for _, c := range cards {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1fd\t%.2f\n", c.ID, c.Term,
					spaced_repetition.FormatInterval(now.Sub(c.DueAt)), c.IntervalDays, c.EaseFactor)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&deckName, "deck", "", "Deck name or ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of cards (0 means all)")
	cmd.MarkFlagRequired("deck")
	return cmd
}

func newGradeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "grade [deck] [card ID or term] [again|hard|good|easy]",
		Short: "Grade a card",
		Long: `Grade a card. The card is given by its ID, as listed by "due", or by its
term. Terms without letters or digits get a generated ID and can only be
graded by that ID.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			grade, err := spaced_repetition.ParseGrade(args[2])
			if err != nil {
				return err
			}
			deck, err := a.service.FindDeck(ctx, a.owner, args[0])
			if err != nil {
				return err
			}

			card, err := findCard(ctx, a, deck.ID, args[1])
			if err != nil {
				return err
			}
			res, err := a.service.Grade(ctx, deck.ID, card.ID, grade)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, interval %.1fd -> %.1fd, ease %.2f -> %.2f, next review in %s\n",
				res.After.Term, res.Grade, res.Before.IntervalDays, res.After.IntervalDays,
				res.Before.EaseFactor, res.After.EaseFactor,
				spaced_repetition.FormatInterval(res.After.DueAt.Sub(a.service.Now())))
			return nil
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	var deckName string
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show deck statistics and recent review activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deck, err := a.service.FindDeck(ctx, a.owner, deckName)
			if err != nil {
				return err
			}
			stats, err := a.service.DeckStats(ctx, deck.ID)
			if err != nil {
				return err
			}

			now := a.service.Now()
			grades, err := a.logs.CountByGradeSince(ctx, deck.ID, now.AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			daily, err := a.logs.DailyCounts(ctx, deck.ID, days, now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", deck.Name)
			fmt.Fprintf(out, "  cards %d, due %d, learning %d, mastered %d, lapses %d, reviews %d\n",
				stats.Total, stats.Due, stats.Learning, stats.Mastered, stats.Lapses, stats.Reviews)
			fmt.Fprintf(out, "Last %d days:", days)
			for _, g := range spaced_repetition.Grades {
				fmt.Fprintf(out, " %s %d", g, grades[g.String()])
			}
			fmt.Fprintln(out)

			dates := make([]string, 0, len(daily))
			for d := range daily {
				dates = append(dates, d)
			}
			slices.Sort(dates)
			for _, d := range dates {
				fmt.Fprintf(out, "  %s  %d\n", d, daily[d])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&deckName, "deck", "", "Deck name or ID")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days of review activity")
	cmd.MarkFlagRequired("deck")
	return cmd
}

func newPreviewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [deck] [card ID or term]",
		Short: "Show when a card would be due for each grade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deck, err := a.service.FindDeck(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			card, err := findCard(ctx, a, deck.ID, args[1])
			if err != nil {
				return err
			}
			preview, err := a.service.Preview(ctx, deck.ID, card.ID)
			if err != nil {
				return err
			}

			now := a.service.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GRADE\tNEXT\tINTERVAL\tEASE")
			for _, g := range spaced_repetition.Grades {
				c := preview[g]
				fmt.Fprintf(w, "%s\t%s\t%.1fd\t%.2f\n", g, spaced_repetition.FormatInterval(c.DueAt.Sub(now)),
					c.IntervalDays, c.EaseFactor)
			}
			return w.Flush()
		},
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [deck] [card ID or term]",
		Short: "Show a card's reviews and check its schedule against them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deck, err := a.service.FindDeck(ctx, a.owner, args[0])
			if err != nil {
				return err
			}
			card, err := findCard(ctx, a, deck.ID, args[1])
			if err != nil {
				return err
			}
			logs, err := a.logs.ListByCard(ctx, deck.ID, card.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REVIEWED\tGRADE\tINTERVAL\tEASE")
			for _, l := range logs {
				fmt.Fprintf(w, "%s\t%s\t%.1fd -> %.1fd\t%.2f -> %.2f\n", l.ReviewedAt.Local().Format(time.DateTime),
					l.Grade, l.IntervalBefore, l.IntervalAfter, l.EaseBefore, l.EaseAfter)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			sm := a.service.Scheduler()
			fresh := sm.NewCard(card.DeckID, card.ID, card.Term, card.CreatedAt)
			replayed, err := sm.Replay(fresh, logs)
			if err != nil {
				return err
			}
			if replayed.IntervalDays == card.IntervalDays && replayed.EaseFactor == card.EaseFactor &&
				replayed.Repetitions == card.Repetitions && replayed.Lapses == card.Lapses {
				fmt.Fprintln(out, "Schedule matches the review history")
			} else {
				fmt.Fprintf(out, "Schedule differs from the review history: stored %.1fd/%.2f, replayed %.1fd/%.2f\n",
					card.IntervalDays, card.EaseFactor, replayed.IntervalDays, replayed.EaseFactor)
			}
			return nil
		},
	}
}

// findCard looks a card up by ID first, then by the ID its term maps to
func findCard(ctx context.Context, a *app, deckID, idOrTerm string) (*models.Card, error) {
	card, err := a.service.Card(ctx, deckID, strings.TrimSpace(idOrTerm))
	if !errors.Is(err, database.ErrNotFound) {
		return card, err
	}
	return a.service.Card(ctx, deckID, models.CardKey(idOrTerm))
}
