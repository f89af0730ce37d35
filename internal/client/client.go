package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"si-go/internal/si"
)

const (
	apiPath         = "/api/v2"
	jsonContentType = "application/json;charset=UTF-8"
	defaultTimeout  = 30 * time.Second
)

// Client talks to the Small Improvements REST API. It implements si.Remote.
type Client struct {
	http     *http.Client
	token    string
	tokenEnv string
	baseURL  string
}

var _ si.Remote = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenEnv names the environment variable mentioned in 401 errors.
func WithTokenEnv(name string) Option {
	return func(c *Client) { c.tokenEnv = name }
}

// New creates a Client authenticating with token against baseURL. An empty
// baseURL means si.DefaultBaseURL.
func New(token, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		token:    token,
		tokenEnv: "SI_TOKEN",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.SetBaseURL(baseURL)
	return c
}

// SetBaseURL points the client at a tenant. An empty value resets it to
// si.DefaultBaseURL.
func (c *Client) SetBaseURL(baseURL string) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = si.DefaultBaseURL
	}
	c.baseURL = baseURL
}

// BaseURL returns the tenant URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetMe returns the authenticated user.
func (c *Client) GetMe(ctx context.Context) (*si.RemoteUser, error) {
	var me si.RemoteUser
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &me); err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	return &me, nil
}

// GetTeam returns the direct reports of managerID.
func (c *Client) GetTeam(ctx context.Context, managerID string) ([]si.RemoteTeammate, error) {
	var team []si.RemoteTeammate
	q := url.Values{"managerId": {managerID}}
	if err := c.do(ctx, http.MethodGet, "/users/medium", q, nil, &team); err != nil {
		return nil, fmt.Errorf("getting team of %s: %w", managerID, err)
	}
	return team, nil
}

type participantRef struct {
	ID string `json:"id"`
}

type createMeetingRequest struct {
	Participants []participantRef `json:"participants"`
	Date         string           `json:"date"`
	IsDraft      bool             `json:"isDraft"`
}

// CreateMeeting schedules a meeting between ownerID and teammateID on the
// calendar day of date.
func (c *Client) CreateMeeting(ctx context.Context, ownerID, teammateID string, date time.Time, status si.MeetingStatus) (*si.Meeting, error) {
	body := createMeetingRequest{
		Participants: []participantRef{{ID: ownerID}, {ID: teammateID}},
		Date:         date.Format(si.CalendarDateFormat) + "T00:00:00Z",
		IsDraft:      status != si.MeetingShared,
	}

	var meeting si.Meeting
	if err := c.do(ctx, http.MethodPost, "/meetings", nil, body, &meeting); err != nil {
		return nil, fmt.Errorf("creating meeting with %s: %w", teammateID, err)
	}
	return &meeting, nil
}

// GetMeetings lists meetings with teammateID within q.
func (c *Client) GetMeetings(ctx context.Context, teammateID string, q si.MeetingQuery) ([]si.Meeting, error) {
	params := url.Values{"participants": {teammateID}}
	if !q.StartDate.IsZero() {
		params.Set("startDate", q.StartDate.Format(si.CalendarDateFormat))
	}
	if !q.EndDate.IsZero() {
		params.Set("endDate", q.EndDate.Format(si.CalendarDateFormat))
	}

	var meetings []si.Meeting
	if err := c.do(ctx, http.MethodGet, "/meetings", params, nil, &meetings); err != nil {
		return nil, fmt.Errorf("listing meetings with %s: %w", teammateID, err)
	}
	return meetings, nil
}

// ShareMeeting marks a meeting as shared.
func (c *Client) ShareMeeting(ctx context.Context, meetingID string) error {
	body := map[string]si.MeetingStatus{"status": si.MeetingShared}
	if err := c.do(ctx, http.MethodPatch, "/meetings/"+url.PathEscape(meetingID), nil, body, nil); err != nil {
		return fmt.Errorf("sharing meeting %s: %w", meetingID, err)
	}
	return nil
}

type meetingContent struct {
	MeetingID  string        `json:"meetingId"`
	Content    string        `json:"content"`
	Visibility si.Visibility `json:"visibility"`
}

// AddTalkingPoint attaches content to a meeting as a talking point.
func (c *Client) AddTalkingPoint(ctx context.Context, meetingID, content string, visibility si.Visibility) error {
	body := []meetingContent{{MeetingID: meetingID, Content: content, Visibility: visibility}}
	path := "/meetings/" + url.PathEscape(meetingID) + "/talkingpoints"
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("adding talking point to %s: %w", meetingID, err)
	}
	return nil
}

// AddNote attaches content to a meeting as a note.
func (c *Client) AddNote(ctx context.Context, meetingID, content string, visibility si.Visibility) error {
	body := meetingContent{MeetingID: meetingID, Content: content, Visibility: visibility}
	path := "/meetings/" + url.PathEscape(meetingID) + "/notes"
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("adding note to %s: %w", meetingID, err)
	}
	return nil
}

// do sends one API request. in is JSON encoded when non-nil; out is decoded
// from the response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + apiPath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", jsonContentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
			baseURL:    c.baseURL,
			tokenEnv:   c.tokenEnv,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
