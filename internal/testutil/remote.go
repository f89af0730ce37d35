package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"si-go/internal/si"
)

// CreatedMeeting records a CreateMeeting call.
type CreatedMeeting struct {
	OwnerID    string
	TeammateID string
	Date       time.Time
	Status     si.MeetingStatus
}

// Attachment records a talking point or note added to a meeting.
type Attachment struct {
	MeetingID  string
	Content    string
	Visibility si.Visibility
}

// FakeRemote is an in-memory si.Remote. Meetings are stored per teammate and
// listed in calendar date order, like the real service does. Safe for
// concurrent use, since the fake HTTP server calls it from handler goroutines.
type FakeRemote struct {
	mu sync.Mutex

	me       *si.RemoteUser
	teams    map[string][]si.RemoteTeammate
	meetings map[string][]si.Meeting
	ids      *StubIDGenerator

	created       []CreatedMeeting
	shared        []string
	talkingPoints []Attachment
	notes         []Attachment
	queries       []si.MeetingQuery

	// Err, when set, is returned by every call.
	Err error
}

var _ si.Remote = (*FakeRemote)(nil)

// NewFakeRemote creates a FakeRemote whose current user is me.
func NewFakeRemote(me *si.RemoteUser) *FakeRemote {
	return &FakeRemote{
		me:       me,
		teams:    make(map[string][]si.RemoteTeammate),
		meetings: make(map[string][]si.Meeting),
		ids:      NewStubIDGenerator("meeting"),
	}
}

// SetMe replaces the current user.
func (f *FakeRemote) SetMe(me *si.RemoteUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.me = me
}

// SetTeam replaces the roster returned for managerID.
func (f *FakeRemote) SetTeam(managerID string, team ...si.RemoteTeammate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams[managerID] = team
}

// AddMeeting stores a meeting with teammateID on date (YYYY-MM-DD) and
// returns it.
func (f *FakeRemote) AddMeeting(teammateID, date string) si.Meeting {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := si.Meeting{
		ID:           f.ids.New(),
		CalendarDate: date,
		Status:       si.MeetingShared,
		Participants: []si.Participant{{ID: teammateID}},
	}
	f.meetings[teammateID] = append(f.meetings[teammateID], m)
	return m
}

func (f *FakeRemote) GetMe(ctx context.Context) (*si.RemoteUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.me == nil {
		return nil, errors.New("fake remote has no current user")
	}
	me := *f.me
	return &me, nil
}

func (f *FakeRemote) GetTeam(ctx context.Context, managerID string) ([]si.RemoteTeammate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]si.RemoteTeammate(nil), f.teams[managerID]...), nil
}

func (f *FakeRemote) GetMeetings(ctx context.Context, teammateID string, q si.MeetingQuery) ([]si.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.Err != nil {
		return nil, f.Err
	}

	var start, end string
	if !q.StartDate.IsZero() {
		start = q.StartDate.Format(si.CalendarDateFormat)
	}
	if !q.EndDate.IsZero() {
		end = q.EndDate.Format(si.CalendarDateFormat)
	}

	var result []si.Meeting
	for _, m := range f.meetings[teammateID] {
		if start != "" && m.CalendarDate < start {
			continue
		}
		if end != "" && m.CalendarDate > end {
			continue
		}
		result = append(result, m)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CalendarDate < result[j].CalendarDate
	})
	return result, nil
}

func (f *FakeRemote) CreateMeeting(ctx context.Context, ownerID, teammateID string, date time.Time, status si.MeetingStatus) (*si.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	m := si.Meeting{
		ID:           f.ids.New(),
		CalendarDate: date.Format(si.CalendarDateFormat),
		IsDraft:      status == si.MeetingDraft,
		Status:       status,
		Participants: []si.Participant{{ID: ownerID}, {ID: teammateID}},
	}
	f.meetings[teammateID] = append(f.meetings[teammateID], m)
	f.created = append(f.created, CreatedMeeting{OwnerID: ownerID, TeammateID: teammateID, Date: date, Status: status})
	return &m, nil
}

func (f *FakeRemote) ShareMeeting(ctx context.Context, meetingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for _, list := range f.meetings {
		for i := range list {
			if list[i].ID == meetingID {
				list[i].Status = si.MeetingShared
				list[i].IsDraft = false
			}
		}
	}
	f.shared = append(f.shared, meetingID)
	return nil
}

func (f *FakeRemote) AddTalkingPoint(ctx context.Context, meetingID, content string, visibility si.Visibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.talkingPoints = append(f.talkingPoints, Attachment{MeetingID: meetingID, Content: content, Visibility: visibility})
	return nil
}

func (f *FakeRemote) AddNote(ctx context.Context, meetingID, content string, visibility si.Visibility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.notes = append(f.notes, Attachment{MeetingID: meetingID, Content: content, Visibility: visibility})
	return nil
}

// Created returns every CreateMeeting call in order.
func (f *FakeRemote) Created() []CreatedMeeting {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CreatedMeeting(nil), f.created...)
}

// Shared returns the IDs passed to ShareMeeting in order.
func (f *FakeRemote) Shared() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.shared...)
}

// TalkingPoints returns every talking point added in order.
func (f *FakeRemote) TalkingPoints() []Attachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Attachment(nil), f.talkingPoints...)
}

// Notes returns every note added in order.
func (f *FakeRemote) Notes() []Attachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Attachment(nil), f.notes...)
}

// Queries returns the query of every GetMeetings call in order.
func (f *FakeRemote) Queries() []si.MeetingQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]si.MeetingQuery(nil), f.queries...)
}
