package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Default notification window
const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
)

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// DueSource reports who owns decks and how many of their cards are due
type DueSource interface {
	ListOwners(ctx context.Context) ([]int64, error)
	DueCount(ctx context.Context, ownerID int64) (int, error)
}

// Config controls when reminders may be sent
type Config struct {
	StartHour int // First hour of the day (UTC) reminders are sent
	EndHour   int // Last hour of the day (UTC) reminders are sent
	Interval  time.Duration
}

// DefaultConfig returns hourly checks between 4:00 and 18:59 UTC
func DefaultConfig() Config {
	return Config{
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
		Interval:  time.Hour,
	}
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	source    DueSource
	config    Config

	// now is replaceable in tests
	now func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, source DueSource, config Config) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		source:    source,
		config:    config,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.config.Interval).Do(s.checkAndSendReminders)
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	log.Printf("Reminder job started, every %s between %d:00 and %d:59 UTC",
		s.config.Interval, s.config.StartHour, s.config.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether reminders may be sent at t
func (s *Scheduler) InWindow(t time.Time) bool {
	hour := t.UTC().Hour()
	if s.config.StartHour <= s.config.EndHour {
		return hour >= s.config.StartHour && hour <= s.config.EndHour
	}
	// Window wraps around midnight
	return hour >= s.config.StartHour || hour <= s.config.EndHour
}

func (s *Scheduler) checkAndSendReminders() {
	if _, err := s.CheckAll(context.Background()); err != nil {
		log.Printf("Error checking due cards: %v", err)
	}
}

// CheckAll sends a reminder to every owner with due cards and returns the
// number of reminders sent. Outside the notification window it does nothing.
func (s *Scheduler) CheckAll(ctx context.Context) (int, error) {
	now := s.now()
	if !s.InWindow(now) {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			now.UTC().Hour(), s.config.StartHour, s.config.EndHour)
		return 0, nil
	}

	owners, err := s.source.ListOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list deck owners: %w", err)
	}

	sent := 0
	for _, owner := range owners {
		ok, err := s.remind(ctx, owner)
		if err != nil {
			log.Printf("Error sending reminder to user %d: %v", owner, err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// RunManualCheck forces a check for a specific user, ignoring the window
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	_, err := s.remind(ctx, userID)
	return err
}

func (s *Scheduler) remind(ctx context.Context, userID int64) (bool, error) {
	count, err := s.source.DueCount(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to count due cards: %w", err)
	}
	if count == 0 {
		return false, nil
	}
	if err := s.notifier.SendReminders(userID, count); err != nil {
		return false, err
	}
	return true, nil
}
