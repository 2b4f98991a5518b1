package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/notify"
)

const (
	DefaultMeterSaveDelay = 300 * time.Millisecond

	// maxListedFailures caps how many failing rooms the summary names.
	maxListedFailures = 3
)

type BatchFailure struct {
	RoomID   int64  `json:"room_id"`
	RoomName string `json:"room_name"`
	Error    string `json:"error"`
}

type BatchResult struct {
	Saved    []models.MeterReading `json:"saved"`
	Failed   []BatchFailure        `json:"failed"`
	Canceled bool                  `json:"canceled"`
}

// MeterReadingService saves a month of readings one room at a time, pausing
// between calls so the backend is not flooded. Saved readings stay saved when
// later ones fail.
type MeterReadingService struct {
	notifier notify.Notifier
	guard    *SubmitGuard
	delay    time.Duration
	wait     func(context.Context, time.Duration) error
}

func NewMeterReadingService(notifier notify.Notifier, guard *SubmitGuard, delay time.Duration) *MeterReadingService {
	if delay < 0 {
		delay = DefaultMeterSaveDelay
	}
	return &MeterReadingService{
		notifier: notifier,
		guard:    guard,
		delay:    delay,
		wait:     sleepContext,
	}
}

func (s *MeterReadingService) SaveBatch(ctx context.Context, c Caller, readings []models.MeterReading) (*BatchResult, error) {
	tr := GetTranslations(c.Language)

	if len(readings) == 0 {
		if ev, ok := FromError(c.SessionID, "", billing.ErrNoRoomsSelected, tr); ok {
			s.notifier.Notify(ev)
		}
		return nil, billing.ErrNoRoomsSelected
	}

	res := &BatchResult{Saved: []models.MeterReading{}, Failed: []BatchFailure{}}
	var stopErr error

	err := s.guard.Do(ctx, SubmitKey(c.SessionID, FormMeterBatch), func(ctx context.Context) error {
		sent := 0
		for _, r := range readings {
			if err := r.Reading().Validate(); err != nil {
				res.Failed = append(res.Failed, failure(r, ErrorText(err, tr)))
				continue
			}

			if sent > 0 {
				if err := s.wait(ctx, s.delay); err != nil {
					res.Canceled = true
					return apiclient.ErrCanceled
				}
			}
			sent++

			r.Usage = r.NewValue - r.OldValue
			saved, err := c.MeterReadings.Save(ctx, r)
			switch {
			case err == nil:
				if saved.RoomName == "" {
					saved.RoomName = r.RoomName
				}
				res.Saved = append(res.Saved, *saved)
			case apiclient.IsCanceled(err):
				res.Canceled = true
				return err
			case errors.Is(err, apiclient.ErrUnauthorized):
				stopErr = err
				return err
			default:
				log.Printf("[METER] WARNING: Saving reading for room %d failed: %v", r.RoomID, err)
				res.Failed = append(res.Failed, failure(r, ErrorText(err, tr)))
			}
		}
		return nil
	})

	switch {
	case res.Canceled:
		log.Printf("[METER] Batch canceled after %d saved readings", len(res.Saved))
		return res, apiclient.ErrCanceled
	case stopErr != nil:
		s.fail(c, tr, stopErr)
		return res, stopErr
	case err != nil:
		s.fail(c, tr, err)
		return nil, err
	}

	log.Printf("[METER] Batch by %s: %d saved, %d failed", c.Username, len(res.Saved), len(res.Failed))
	s.notifier.Notify(s.summary(c.SessionID, tr, res))
	return res, nil
}

func (s *MeterReadingService) summary(sessionID string, tr Translations, res *BatchResult) notify.Event {
	switch {
	case len(res.Failed) == 0:
		return notify.Success(sessionID, fmt.Sprintf(tr.ReadingsSaved, len(res.Saved)), "")
	case len(res.Saved) == 0:
		return notify.Error(sessionID, fmt.Sprintf(tr.ReadingsFailed, failingRooms(res.Failed, tr)), res.Failed[0].Error)
	default:
		return notify.Warning(sessionID,
			fmt.Sprintf(tr.ReadingsPartial, len(res.Saved), len(res.Failed), failingRooms(res.Failed, tr)),
			res.Failed[0].Error)
	}
}

// PrepareStaged turns staged smart-meter values into readings for month,
// taking each room's previous counter from the month before.
func (s *MeterReadingService) PrepareStaged(ctx context.Context, c Caller, month billing.Month, staged []models.StagedMeterReading) ([]models.MeterReading, error) {
	previous := map[int64]models.MeterReading{}
	page, err := c.MeterReadings.List(ctx, month.Prev(), apiclient.ListParams{PerPage: 1000})
	if err != nil {
		return nil, err
	}
	for _, r := range page.Data {
		previous[r.RoomID] = r
	}

	readings := make([]models.MeterReading, 0, len(staged))
	for _, st := range staged {
		prev := previous[st.RoomID]
		readings = append(readings, models.MeterReading{
			RoomID:   st.RoomID,
			RoomName: prev.RoomName,
			Month:    month,
			OldValue: prev.NewValue,
			NewValue: st.Value,
			Usage:    st.Value - prev.NewValue,
		})
	}
	return readings, nil
}

func (s *MeterReadingService) fail(c Caller, tr Translations, err error) {
	if ev, ok := FromError(c.SessionID, tr.ActionFailed, err, tr); ok {
		s.notifier.Notify(ev)
	}
}

func failure(r models.MeterReading, msg string) BatchFailure {
	return BatchFailure{RoomID: r.RoomID, RoomName: roomLabel(r.RoomID, r.RoomName), Error: msg}
}

func failingRooms(failed []BatchFailure, tr Translations) string {
	names := make([]string, 0, maxListedFailures)
	for i, f := range failed {
		if i == maxListedFailures {
			break
		}
		names = append(names, f.RoomName)
	}
	list := strings.Join(names, ", ")
	if extra := len(failed) - maxListedFailures; extra > 0 {
		list += " " + fmt.Sprintf(tr.AndMore, extra)
	}
	return list
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
