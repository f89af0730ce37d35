package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"si-go/internal/si"
)

// RecordedRequest is a request seen by FakeServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// FakeServer serves the subset of the Small Improvements API the client uses,
// backed by a FakeRemote. Requests without the expected bearer token get a 401.
type FakeServer struct {
	*httptest.Server
	Remote *FakeRemote
	Token  string

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakeServer starts a FakeServer. It is closed when the test completes.
func NewFakeServer(t *testing.T, remote *FakeRemote, token string) *FakeServer {
	t.Helper()

	s := &FakeServer{Remote: remote, Token: token}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// Requests returns every request received so far.
func (s *FakeServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request. It panics if there was none.
func (s *FakeServer) LastRequest() RecordedRequest {
	reqs := s.Requests()
	return reqs[len(reqs)-1]
}

func (s *FakeServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.authenticate)

	r.Route("/api/v2", func(r chi.Router) {
		r.Get("/users/me", s.handleMe)
		r.Get("/users/medium", s.handleTeam)

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", s.handleListMeetings)
			r.Post("/", s.handleCreateMeeting)
			r.Patch("/{meetingID}", s.handleShareMeeting)
			r.Post("/{meetingID}/talkingpoints", s.handleTalkingPoints)
			r.Post("/{meetingID}/notes", s.handleNote)
		})
	})

	return r
}

func (s *FakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *FakeServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *FakeServer) handleMe(w http.ResponseWriter, r *http.Request) {
	me, err := s.Remote.GetMe(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (s *FakeServer) handleTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.Remote.GetTeam(r.Context(), r.URL.Query().Get("managerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	if team == nil {
		team = []si.RemoteTeammate{}
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *FakeServer) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var query si.MeetingQuery
	for key, dst := range map[string]*time.Time{"startDate": &query.StartDate, "endDate": &query.EndDate} {
		if v := q.Get(key); v != "" {
			parsed, err := time.Parse(si.CalendarDateFormat, v)
			if err != nil {
				http.Error(w, "bad "+key, http.StatusBadRequest)
				return
			}
			*dst = parsed
		}
	}

	meetings, err := s.Remote.GetMeetings(r.Context(), q.Get("participants"), query)
	if err != nil {
		writeError(w, err)
		return
	}
	if meetings == nil {
		meetings = []si.Meeting{}
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (s *FakeServer) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Participants []struct {
			ID string `json:"id"`
		} `json:"participants"`
		Date    string `json:"date"`
		IsDraft bool   `json:"isDraft"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Participants) != 2 {
		http.Error(w, "bad meeting", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		http.Error(w, "bad date", http.StatusBadRequest)
		return
	}

	status := si.MeetingShared
	if req.IsDraft {
		status = si.MeetingDraft
	}

	meeting, err := s.Remote.CreateMeeting(r.Context(), req.Participants[0].ID, req.Participants[1].ID, date, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meeting)
}

func (s *FakeServer) handleShareMeeting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status si.MeetingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status != si.MeetingShared {
		http.Error(w, "bad status", http.StatusBadRequest)
		return
	}

	if err := s.Remote.ShareMeeting(r.Context(), chi.URLParam(r, "meetingID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contentRequest struct {
	MeetingID  string        `json:"meetingId"`
	Content    string        `json:"content"`
	Visibility si.Visibility `json:"visibility"`
}

func (s *FakeServer) handleTalkingPoints(w http.ResponseWriter, r *http.Request) {
	var req []contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad talking points", http.StatusBadRequest)
		return
	}

	meetingID := chi.URLParam(r, "meetingID")
	for _, tp := range req {
		if tp.MeetingID != meetingID {
			http.Error(w, "meeting id mismatch", http.StatusBadRequest)
			return
		}
		if err := s.Remote.AddTalkingPoint(r.Context(), meetingID, tp.Content, tp.Visibility); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *FakeServer) handleNote(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad note", http.StatusBadRequest)
		return
	}

	meetingID := chi.URLParam(r, "meetingID")
	if req.MeetingID != meetingID {
		http.Error(w, "meeting id mismatch", http.StatusBadRequest)
		return
	}
	if err := s.Remote.AddNote(r.Context(), meetingID, req.Content, req.Visibility); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
