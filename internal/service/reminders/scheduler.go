// Package reminders schedules best-effort local notifications ahead of user-chosen deadlines.
//
// Timers live only as long as the Scheduler. Persisted reminders are re-armed by Restore,
// which the owner calls when it starts; nothing re-arms them in the background.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/aimd54/kibo-gamification/internal/metrics"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/notify"
	"github.com/aimd54/kibo-gamification/internal/repository"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// notifyTimeout bounds a single delivery attempt.
const notifyTimeout = 10 * time.Second

// MaxLeadMinutes caps how far ahead of its target a reminder may fire (one year).
const MaxLeadMinutes = 525600

// Store persists reminders on the local device. Delete returns repository.ErrReminderNotFound
// when the user owns no reminder with that id.
type Store interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	List(ctx context.Context) ([]models.Reminder, error)
	ListByUser(ctx context.Context, userID string) ([]models.Reminder, error)
	Delete(ctx context.Context, userID, id string) error
}

// Notifier displays a platform notification.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Permission reports whether the platform allows notifications.
type Permission interface {
	Granted() bool
}

// StaticPermission is a fixed permission answer.
type StaticPermission bool

// Granted implements Permission.
func (p StaticPermission) Granted() bool { return bool(p) }

// ValidationError is a user-visible input error raised before anything is scheduled.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Input is a reminder creation request.
type Input struct {
	EntityRef   string    `json:"entity_ref"`
	Title       string    `json:"title"`
	TargetAt    time.Time `json:"target_at"`
	LeadMinutes *int      `json:"lead_minutes"`
}

// Scheduler arms one-shot timers for reminders.
type Scheduler struct {
	clock       clockwork.Clock
	store       Store
	notifier    Notifier
	permission  Permission
	defaultLead int
	log         *logger.Logger

	mu     sync.Mutex
	timers map[string]*entry
	wg     sync.WaitGroup
}

type entry struct {
	reminder  models.Reminder
	persisted bool
	timer     clockwork.Timer
}

// NewScheduler creates a scheduler. store may be nil when nothing is persisted.
func NewScheduler(clock clockwork.Clock, store Store, notifier Notifier, permission Permission, defaultLead int, log *logger.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:       clock,
		store:       store,
		notifier:    notifier,
		permission:  permission,
		defaultLead: defaultLead,
		log:         log.Component("reminders"),
		timers:      make(map[string]*entry),
	}
}

// ScheduleReminder arms a notification at target minus leadMinutes. It returns false, arming
// nothing, when that moment is not in the future or notifications are not permitted.
func (s *Scheduler) ScheduleReminder(title string, target time.Time, leadMinutes int) bool {
	r := &models.Reminder{
		ID:          uuid.NewString(),
		Title:       title,
		TargetAt:    target,
		LeadMinutes: leadMinutes,
	}
	return s.arm(r, false)
}

func validate(in Input, defaultLead int) (int, error) {
	if strings.TrimSpace(in.Title) == "" {
		return 0, &ValidationError{Field: "title", Message: "is required"}
	}
	if in.TargetAt.IsZero() {
		return 0, &ValidationError{Field: "target_at", Message: "is required"}
	}
	lead := defaultLead
	if in.LeadMinutes != nil {
		lead = *in.LeadMinutes
	}
	if lead < 0 {
		return 0, &ValidationError{Field: "lead_minutes", Message: "must not be negative"}
	}
	if lead > MaxLeadMinutes {
		return 0, &ValidationError{Field: "lead_minutes", Message: fmt.Sprintf("must not exceed %d", MaxLeadMinutes)}
	}
	return lead, nil
}

// Create validates, persists and arms a reminder for the user. The reminder is stored even
// when it could not be armed; armed reports which happened.
func (s *Scheduler) Create(ctx context.Context, userID string, in Input) (reminder *models.Reminder, armed bool, err error) {
	lead, err := validate(in, s.defaultLead)
	if err != nil {
		return nil, false, err
	}

	reminder = &models.Reminder{
		ID:          uuid.NewString(),
		UserID:      userID,
		EntityRef:   strings.TrimSpace(in.EntityRef),
		Title:       strings.TrimSpace(in.Title),
		TargetAt:    in.TargetAt,
		LeadMinutes: lead,
		CreatedAt:   s.clock.Now(),
	}
	if s.store != nil {
		if err := s.store.Create(ctx, reminder); err != nil {
			return nil, false, err
		}
	}

	return reminder, s.arm(reminder, true), nil
}

// List returns the user's persisted reminders.
func (s *Scheduler) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	if s.store == nil {
		return []models.Reminder{}, nil
	}
	return s.store.ListByUser(ctx, userID)
}

// Delete removes and disarms one of the user's reminders. Another user's reminder is
// reported as repository.ErrReminderNotFound and left untouched.
func (s *Scheduler) Delete(ctx context.Context, userID, id string) error {
	if s.store != nil {
		if err := s.store.Delete(ctx, userID, id); err != nil {
			return err
		}
	}
	if !s.disarm(userID, id) && s.store == nil {
		return repository.ErrReminderNotFound
	}
	return nil
}

// Restore re-arms every persisted reminder whose fire time is still ahead and returns how
// many were armed. Past-due reminders are left as they are.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	list, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	armed := 0
	for i := range list {
		r := list[i]
		if s.isArmed(r.ID) {
			continue
		}
		if s.arm(&r, true) {
			armed++
		}
	}

	s.log.Info().Int("armed", armed).Int("stored", len(list)).Msg("Reminders restored")
	return armed, nil
}

// Armed returns the number of armed timers.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every timer and waits for in-flight deliveries.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, e := range s.timers {
		s.stopLocked(id, e)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) isArmed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

func (s *Scheduler) arm(r *models.Reminder, persisted bool) bool {
	if s.permission == nil || !s.permission.Granted() {
		s.log.Debug().Str("reminder_id", r.ID).Msg("Notification permission not granted")
		return false
	}

	if r.LeadMinutes < 0 || r.LeadMinutes > MaxLeadMinutes {
		s.log.Debug().Str("reminder_id", r.ID).Int("lead_minutes", r.LeadMinutes).Msg("Reminder lead out of range")
		return false
	}

	delay := r.FireAt().Sub(s.clock.Now())
	if delay <= 0 {
		return false
	}

	e := &entry{reminder: *r, persisted: persisted}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[r.ID]; ok {
		s.stopLocked(r.ID, old)
	}
	s.wg.Add(1)
	e.timer = s.clock.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.fire(e)
	})
	s.timers[r.ID] = e
	metrics.SetRemindersArmed(len(s.timers))

	s.log.Debug().Str("reminder_id", r.ID).Dur("delay", delay).Msg("Reminder armed")
	return true
}

// disarm stops the user's timer for id and reports whether one was armed.
func (s *Scheduler) disarm(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[id]
	if !ok || e.reminder.UserID != userID {
		return false
	}
	s.stopLocked(id, e)
	return true
}

// stopLocked must be called with s.mu held.
func (s *Scheduler) stopLocked(id string, e *entry) {
	if e.timer.Stop() {
		s.wg.Done()
	}
	delete(s.timers, id)
	metrics.SetRemindersArmed(len(s.timers))
}

func (s *Scheduler) fire(e *entry) {
	r := &e.reminder

	s.mu.Lock()
	if current, ok := s.timers[r.ID]; !ok || current != e {
		s.mu.Unlock()
		return
	}
	delete(s.timers, r.ID)
	metrics.SetRemindersArmed(len(s.timers))
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	err := s.notifier.Notify(ctx, notify.Notification{
		Title:     r.Title,
		Message:   fmt.Sprintf("Due %s", r.TargetAt.Format("Mon Jan 2 15:04")),
		EntityRef: r.EntityRef,
		DueAt:     r.TargetAt,
	})
	if err != nil {
		metrics.RecordReminderFired("failed")
		s.log.Warn().Err(err).Str("reminder_id", r.ID).Msg("Reminder notification failed")
	} else {
		metrics.RecordReminderFired("sent")
		s.log.Info().Str("reminder_id", r.ID).Msg("Reminder fired")
	}

	if e.persisted && s.store != nil {
		if err := s.store.Delete(ctx, r.UserID, r.ID); err != nil && !errors.Is(err, repository.ErrReminderNotFound) {
			s.log.Warn().Err(err).Str("reminder_id", r.ID).Msg("Failed to delete fired reminder")
		}
	}
}
