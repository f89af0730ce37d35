package si

import (
	"context"
	"fmt"
	"time"
)

const (
	// meetingCadence is the assumed gap between one-on-ones.
	meetingCadence = 7 * 24 * time.Hour

	// historyLookback is one day longer than the cadence so timezone rounding
	// on the service side cannot hide last week's meeting.
	historyLookback = 8 * 24 * time.Hour
)

// Scheduler finds the next meeting with a teammate, creating one on a
// weekly cadence when none is scheduled.
type Scheduler struct {
	meetings MeetingService
	clock    Clock
	logger   Logger
}

// NewScheduler creates a Scheduler backed by the given meeting service.
func NewScheduler(meetings MeetingService, clock Clock, logger Logger) *Scheduler {
	return &Scheduler{meetings: meetings, clock: clock, logger: logger}
}

// FindUpcoming returns the most imminent meeting with teammateID from today
// onwards, or nil when there is none.
func (s *Scheduler) FindUpcoming(ctx context.Context, teammateID string) (*Meeting, error) {
	meetings, err := s.meetings.GetMeetings(ctx, teammateID, MeetingQuery{StartDate: s.clock.Now()})
	if err != nil {
		return nil, fmt.Errorf("listing upcoming meetings: %w", err)
	}
	if len(meetings) == 0 {
		return nil, nil
	}
	return &meetings[0], nil
}

// FindOrCreate returns the upcoming meeting with teammateID. When there is
// none it creates one seven days after the most recent meeting of the last
// eight days, or tomorrow if there was no such meeting. draft controls the
// status of a newly created meeting only.
func (s *Scheduler) FindOrCreate(ctx context.Context, ownerID, teammateID string, draft bool) (*Meeting, error) {
	next, err := s.FindUpcoming(ctx, teammateID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		return next, nil
	}

	date, err := s.nextMeetingDate(ctx, teammateID)
	if err != nil {
		return nil, err
	}

	status := MeetingShared
	if draft {
		status = MeetingDraft
	}

	created, err := s.meetings.CreateMeeting(ctx, ownerID, teammateID, date, status)
	if err != nil {
		return nil, fmt.Errorf("creating meeting: %w", err)
	}

	s.logger.Info("meeting created", "teammate", teammateID, "date", date.Format(CalendarDateFormat), "status", string(status))
	return created, nil
}

// nextMeetingDate anchors on the first meeting of the lookback window.
func (s *Scheduler) nextMeetingDate(ctx context.Context, teammateID string) (time.Time, error) {
	now := s.clock.Now()

	recent, err := s.meetings.GetMeetings(ctx, teammateID, MeetingQuery{StartDate: now.Add(-historyLookback)})
	if err != nil {
		return time.Time{}, fmt.Errorf("listing recent meetings: %w", err)
	}

	if len(recent) == 0 {
		return now.AddDate(0, 0, 1), nil
	}

	last, err := time.Parse(CalendarDateFormat, recent[0].CalendarDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date of meeting %s: %w", recent[0].ID, err)
	}
	return last.Add(meetingCadence), nil
}
