package services

import (
	"context"
	"fmt"
	"time"

	"github.com/glowplan/selfcare-backend/internal/clients/fcm"
	"github.com/glowplan/selfcare-backend/internal/clients/redisstore"
	"github.com/glowplan/selfcare-backend/internal/clients/sendgrid"
	"github.com/glowplan/selfcare-backend/internal/localtime"
	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/repos"
	"github.com/glowplan/selfcare-backend/internal/types"
)

// ReminderService runs one sweep at a time over every user with a channel
// enabled, dispatching reminders whose scheduled instant fell inside the
// current window. It keeps no state between sweeps; the marker store is the
// only cross-sweep memory.
type ReminderService interface {
	Sweep(ctx context.Context) error
}

type ReminderConfig struct {
	// WindowMinutes is set comfortably above the sweep interval so jitter
	// between sweep starts never drops an event into the gap.
	WindowMinutes int
	AppURL        string
}

type reminderService struct {
	log          *logger.Logger
	cfg          ReminderConfig
	userRepo     repos.UserRepo
	activityRepo repos.ActivityRepo
	updateRepo   repos.TaskUpdateRepo
	tokenRepo    repos.DeviceTokenRepo
	markers      redisstore.MarkerStore
	email        sendgrid.Client
	push         fcm.Client
	iana         localtime.OffsetResolver
	now          func() time.Time
}

func NewReminderService(
	baseLog *logger.Logger,
	cfg ReminderConfig,
	userRepo repos.UserRepo,
	activityRepo repos.ActivityRepo,
	updateRepo repos.TaskUpdateRepo,
	tokenRepo repos.DeviceTokenRepo,
	markers redisstore.MarkerStore,
	email sendgrid.Client,
	push fcm.Client,
) ReminderService {
	if cfg.WindowMinutes <= 0 {
		cfg.WindowMinutes = 6
	}
	if cfg.AppURL == "" {
		cfg.AppURL = "https://web.glowplan.app/dashboard"
	}
	return &reminderService{
		log:          baseLog.With("service", "ReminderService"),
		cfg:          cfg,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		updateRepo:   updateRepo,
		tokenRepo:    tokenRepo,
		markers:      markers,
		email:        email,
		push:         push,
		iana:         localtime.IANAResolver{},
		now:          time.Now,
	}
}

// dueEvent is one pending occurrence whose reminder instant landed in the
// sweep window.
type dueEvent struct {
	update   *types.TaskUpdate
	activity *types.Activity
	hour     int
	minute   int
	leadMin  int
}

func (d dueEvent) category() string {
	if d.activity == nil {
		return ""
	}
	return d.activity.Category
}

func (s *reminderService) Sweep(ctx context.Context) error {
	now := s.now().UTC()
	windowStart := now.Add(-time.Duration(s.cfg.WindowMinutes) * time.Minute)

	var firstErr error
	if err := s.sweepEmail(ctx, now, windowStart); err != nil {
		firstErr = err
	}
	if err := s.sweepPush(ctx, now, windowStart); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *reminderService) sweepEmail(ctx context.Context, now, windowStart time.Time) error {
	users, err := s.userRepo.ListWithEmailReminders(ctx, nil)
	if err != nil {
		return fmt.Errorf("list email users: %w", err)
	}

	for _, user := range users {
		if user.Email == "" {
			continue
		}
		due, err := s.collectDue(ctx, user, now, windowStart)
		if err != nil {
			s.log.Warn("email sweep skipping user", "user_id", user.ID.String(), "error", err)
			continue
		}
		for _, d := range due {
			if !user.NotificationPrefs.EnabledFor(types.ChannelEmail, d.category()) {
				continue
			}
			s.dispatchEmail(ctx, user, d, now)
		}
	}
	return nil
}

func (s *reminderService) sweepPush(ctx context.Context, now, windowStart time.Time) error {
	users, err := s.userRepo.ListWithMobilePush(ctx, nil)
	if err != nil {
		return fmt.Errorf("list push users: %w", err)
	}

	for _, user := range users {
		due, err := s.collectDue(ctx, user, now, windowStart)
		if err != nil {
			s.log.Warn("push sweep skipping user", "user_id", user.ID.String(), "error", err)
			continue
		}
		if len(due) == 0 {
			continue
		}
		tokens, err := s.tokenRepo.GetMobileTokensByUserID(ctx, nil, user.ID)
		if err != nil {
			s.log.Warn("push sweep token load failed", "user_id", user.ID.String(), "error", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		for _, d := range due {
			if !user.NotificationPrefs.EnabledFor(types.ChannelPush, d.category()) {
				continue
			}
			s.dispatchPush(ctx, user, d, tokens, now)
		}
	}
	return nil
}

// collectDue loads today's pending events for the user and keeps those whose
// lead-adjusted local time, converted to UTC, satisfies
// windowStart < scheduled <= now. Events with no resolvable clock time are
// never reminded.
func (s *reminderService) collectDue(ctx context.Context, user *types.User, now, windowStart time.Time) ([]dueEvent, error) {
	today := now.Format("2006-01-02")

	activities, err := s.activityRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	activityByID := make(map[string]*types.Activity, len(activities))
	for _, a := range activities {
		activityByID[a.ID] = a
	}

	pending, err := s.updateRepo.GetPendingByUserAndDate(ctx, nil, user.ID, today)
	if err != nil {
		return nil, fmt.Errorf("load pending updates: %w", err)
	}

	var due []dueEvent
	for _, upd := range pending {
		act := activityByID[upd.ActivityID]

		hour, minute := upd.Hour, upd.Minute
		if hour == nil && act != nil {
			hour = act.Hour
		}
		if minute == nil && act != nil {
			minute = act.Minute
		}
		if hour == nil || minute == nil {
			continue
		}

		base, err := s.dueInstant(user, upd.Date, *hour, *minute)
		if err != nil {
			s.log.Debug("due instant unresolved", "user_id", user.ID.String(), "slot_id", upd.SlotID, "error", err)
			continue
		}

		leadMin := 0
		if act != nil {
			leadMin = ParseNotifyBefore(act.NotifyBefore)
		}
		scheduled := base.Add(-time.Duration(leadMin) * time.Minute)
		if scheduled.After(windowStart) && !scheduled.After(now) {
			due = append(due, dueEvent{update: upd, activity: act, hour: *hour, minute: *minute, leadMin: leadMin})
		}
	}
	return due, nil
}

func (s *reminderService) dueInstant(user *types.User, ymd string, hour, minute int) (time.Time, error) {
	if user.Timezone != "" {
		return localtime.ZonedLocalToUTC(ymd, hour, minute, user.Timezone, s.iana)
	}
	if user.TzOffsetMinutes != 0 {
		return localtime.ZonedLocalToUTC(ymd, hour, minute, "", localtime.FixedOffsetResolver{Minutes: user.TzOffsetMinutes})
	}
	return localtime.UTCFromYMD(ymd, &hour, &minute)
}

func (s *reminderService) dispatchEmail(ctx context.Context, user *types.User, d dueEvent, now time.Time) {
	// cheap fast path; the SETNX claim below is the actual guarantee
	if sent, err := s.markers.Exists(ctx, user.ID, d.update.SlotID, types.ChannelEmail); err == nil && sent {
		return
	}
	created, err := s.markers.CreateIfAbsent(ctx, user.ID, d.update.SlotID, types.ChannelEmail, now)
	if err != nil {
		s.log.Warn("email marker claim failed", "user_id", user.ID.String(), "slot_id", d.update.SlotID, "error", err)
		return
	}
	if !created {
		return
	}

	name := "Activity"
	if d.activity != nil && d.activity.Name != "" {
		name = d.activity.Name
	}
	var subject, when string
	if d.leadMin > 0 {
		subject = fmt.Sprintf("Reminder: %s in %d min", name, d.leadMin)
		when = fmt.Sprintf(" starting in %d minutes", d.leadMin)
	} else {
		subject = fmt.Sprintf("Reminder: %s at %02d:%02d", name, d.hour, d.minute)
		when = fmt.Sprintf(" scheduled at %02d:%02d (today)", d.hour, d.minute)
	}
	html := fmt.Sprintf(`<p>Hi!</p>
<p>This is your reminder for <strong>%s</strong>%s.</p>
<p><a href="%s">Open GlowPlan</a></p>`, name, when, s.cfg.AppURL)

	if err := s.email.Send(ctx, sendgrid.SendEmailRequest{To: user.Email, Subject: subject, HTML: html}); err != nil {
		s.log.Error("email send failed", "user_id", user.ID.String(), "slot_id", d.update.SlotID, "error", err)
		// release the claim so a later sweep can retry
		if delErr := s.markers.Delete(ctx, user.ID, d.update.SlotID, types.ChannelEmail); delErr != nil {
			s.log.Error("email marker rollback failed", "user_id", user.ID.String(), "slot_id", d.update.SlotID, "error", delErr)
		}
	}
}

func (s *reminderService) dispatchPush(ctx context.Context, user *types.User, d dueEvent, tokens []string, now time.Time) {
	if sent, err := s.markers.Exists(ctx, user.ID, d.update.SlotID, types.ChannelPush); err == nil && sent {
		return
	}
	created, err := s.markers.CreateIfAbsent(ctx, user.ID, d.update.SlotID, types.ChannelPush, now)
	if err != nil {
		s.log.Warn("push marker claim failed", "user_id", user.ID.String(), "slot_id", d.update.SlotID, "error", err)
		return
	}
	if !created {
		return
	}

	name := "Activity"
	if d.activity != nil && d.activity.Name != "" {
		name = d.activity.Name
	}
	body := fmt.Sprintf("%s now", name)
	if d.leadMin > 0 {
		body = fmt.Sprintf("%s in %d min", name, d.leadMin)
	}

	res, err := s.push.SendMulticast(ctx, fcm.MulticastRequest{
		Tokens:       tokens,
		Notification: fcm.Notification{Title: "GlowPlan reminder", Body: body},
		Data: map[string]string{
			"updateId":   d.update.SlotID,
			"activityId": d.update.ActivityID,
			"date":       d.update.Date,
		},
	})
	// At least one delivered token counts as sent; only a total failure
	// releases the claim for retry.
	if err != nil || res == nil || res.SuccessCount == 0 {
		s.log.Error("push send failed", "user_id", user.ID.String(), "slot_id", d.update.SlotID, "error", err)
		if delErr := s.markers.Delete(ctx, user.ID, d.update.SlotID, types.ChannelPush); delErr != nil {
			s.log.Error("push marker rollback failed", "user_id", user.ID.String(), "slot_id", d.update.SlotID, "error", delErr)
		}
	}
}
