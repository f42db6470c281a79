package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/vocabsrs/internal/bot"
	"github.com/example/vocabsrs/internal/scheduler"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the reminder job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	botConfig := bot.DefaultConfig()
	botConfig.ReviewBatchSize = a.cfg.ReviewBatchSize

	b, err := bot.New(a.cfg.TelegramToken, a.service, botConfig)
	if err != nil {
		return err
	}

	if a.cfg.EnableScheduler {
		s := scheduler.New(b, a.service, scheduler.Config{
			StartHour: a.cfg.NotifyStartHour,
			EndHour:   a.cfg.NotifyEndHour,
		})
		if err := s.Start(); err != nil {
			return err
		}
		defer s.Stop()
	}

	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received signal: %v", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Bot stopped successfully")
	return nil
}
