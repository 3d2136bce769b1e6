package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cradlehealth/cradle/internal/model"
	"github.com/cradlehealth/cradle/internal/store"
	"github.com/sethvargo/go-retry"
)

// Sender delivers a payload to one subscription. Satisfied by *Service.
type Sender interface {
	Send(sub *model.PushSubscription, payload Payload) error
}

// Scheduler periodically scans for vaccines coming due and notifies the
// owning parent's subscribed devices. A sent-log keyed by record ID keeps
// reminders to one per dose.
type Scheduler struct {
	mu       sync.RWMutex
	sender   Sender
	push     *store.PushStore
	records  *store.ChildVaccineStore
	logger   *slog.Logger
	interval time.Duration
	leadDays int
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler that notifies leadDays ahead of
// each scheduled date.
func NewScheduler(sender Sender, pushStore *store.PushStore, recordStore *store.ChildVaccineStore, leadDays int, logger *slog.Logger) *Scheduler {
	if leadDays < 0 {
		leadDays = 0
	}
	return &Scheduler{
		sender:   sender,
		push:     pushStore,
		records:  recordStore,
		logger:   logger,
		interval: time.Hour,
		leadDays: leadDays,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, s.leadDays+1)

	due, err := s.records.ListPendingBetween(start, end)
	if err != nil {
		s.logger.Error("scan due vaccines", "error", err)
		return
	}

	for _, rec := range due {
		s.remind(ctx, rec)
	}
}

func (s *Scheduler) remind(ctx context.Context, rec model.ChildVaccine) {
	refID := fmt.Sprintf("cv-%d", rec.ID)

	sent, err := s.push.WasSent(rec.UserID, model.NotifTypeVaccineDue, refID)
	if err != nil {
		s.logger.Error("check sent log", "error", err, "record_id", rec.ID)
		return
	}
	if sent {
		return
	}

	subs, err := s.push.ListByUser(rec.UserID)
	if err != nil {
		s.logger.Error("list subscriptions", "error", err, "user_id", rec.UserID)
		return
	}
	if len(subs) == 0 {
		return
	}

	vaccineName := "A vaccine"
	if rec.Vaccine != nil {
		vaccineName = rec.Vaccine.Name
	}
	payload := Payload{
		Title: "Vaccine Reminder",
		Body:  fmt.Sprintf("%s for %s is due on %s", vaccineName, rec.BabyName, rec.ScheduledDate.Format("Jan 2")),
		URL:   "/vaccines",
		Tag:   refID,
	}

	delivered := false
	for i := range subs {
		if err := s.send(ctx, &subs[i], payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.push.DeleteByEndpoint(subs[i].Endpoint); err != nil {
					s.logger.Error("prune expired subscription", "error", err, "record_id", rec.ID)
				}
			} else {
				s.logger.Error("send reminder", "error", err, "record_id", rec.ID)
			}
			continue
		}
		delivered = true
	}

	if delivered {
		if err := s.push.RecordSent(rec.UserID, model.NotifTypeVaccineDue, refID); err != nil {
			s.logger.Error("record sent", "error", err, "record_id", rec.ID)
		}
	}
}

// send retries transient delivery failures with exponential backoff. Expired
// subscriptions are permanent and surface immediately.
func (s *Scheduler) send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.sender.Send(sub, payload)
		if err == nil || errors.Is(err, ErrExpired) {
			return err
		}
		return retry.RetryableError(err)
	})
}
