package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/vocabsrs/internal/config"
	"github.com/example/vocabsrs/internal/database"
	"github.com/example/vocabsrs/internal/review"
	"github.com/example/vocabsrs/internal/spaced_repetition"
)

// app holds what the commands share. It is filled in by the root command's
// pre-run hook.
type app struct {
	owner int64

	cfg     *config.Config
	db      *database.DB
	service *review.Service
	logs    *database.ReviewLogRepository
}

// open loads the configuration and connects to the database
func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}

	sm, err := spaced_repetition.NewSM2(cfg.Policy)
	if err != nil {
		db.Close()
		return err
	}

	a.cfg = cfg
	a.db = db
	a.service = review.NewService(database.NewCardRepository(db), database.NewDeckRepository(db), sm)
	a.logs = database.NewReviewLogRepository(db)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

// NewRootCommand builds the vocabsrs command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vocabsrs",
		Short: "Spaced-repetition vocabulary trainer",
		Long: `vocabsrs schedules vocabulary flashcards with an SM-2 based algorithm.
Run "vocabsrs serve" for the Telegram bot, or manage decks from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Int64Var(&a.owner, "owner", 0, "Telegram user ID that owns the decks")

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newDeckCommand(a))
	rootCmd.AddCommand(newImportCommand(a))
	rootCmd.AddCommand(newDueCommand(a))
	rootCmd.AddCommand(newGradeCommand(a))
	rootCmd.AddCommand(newStatsCommand(a))
	rootCmd.AddCommand(newPreviewCommand(a))
	rootCmd.AddCommand(newHistoryCommand(a))

	closeAfterRun(rootCmd, a)
	return rootCmd
}

// closeAfterRun wraps every command so the database is closed whether or not
// the command fails. Cobra skips post-run hooks after an error.
func closeAfterRun(cmd *cobra.Command, a *app) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			defer a.close()
			return run(cmd, args)
		}
	}
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, a)
	}
}
