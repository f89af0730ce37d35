package si

import (
	"context"
	"errors"
	"time"
)

// ErrUnauthorized is matched by remote errors caused by a rejected token.
var ErrUnauthorized = errors.New("unauthorized")

// MeetingQuery narrows a meeting listing. Zero times are omitted.
type MeetingQuery struct {
	StartDate time.Time
	EndDate   time.Time
}

// Directory looks up people on the remote service.
type Directory interface {
	// GetMe returns the authenticated user, including their manager.
	GetMe(ctx context.Context) (*RemoteUser, error)

	// GetTeam returns the direct reports of managerID, active or not.
	GetTeam(ctx context.Context, managerID string) ([]RemoteTeammate, error)
}

// MeetingService manages one-on-one meetings on the remote service.
type MeetingService interface {
	// GetMeetings lists meetings with teammateID, sorted by date ascending.
	GetMeetings(ctx context.Context, teammateID string, q MeetingQuery) ([]Meeting, error)

	// CreateMeeting creates a meeting between ownerID and teammateID on date.
	CreateMeeting(ctx context.Context, ownerID, teammateID string, date time.Time, status MeetingStatus) (*Meeting, error)

	// ShareMeeting makes a draft meeting visible to its participants.
	ShareMeeting(ctx context.Context, meetingID string) error

	// AddTalkingPoint attaches markup content as a talking point.
	AddTalkingPoint(ctx context.Context, meetingID, content string, visibility Visibility) error

	// AddNote attaches markup content as a note.
	AddNote(ctx context.Context, meetingID, content string, visibility Visibility) error
}

// Remote is everything the service needs from the remote API.
type Remote interface {
	Directory
	MeetingService
}
