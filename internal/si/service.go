package si

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// DefaultBaseURL is used until a sync reports the tenant's own base URL.
const DefaultBaseURL = "https://www.small-improvements.com"

// DefaultSubdomain is offered when setup asks for the tenant.
const DefaultSubdomain = "www"

// BaseURLForSubdomain returns the tenant URL for subdomain.
func BaseURLForSubdomain(subdomain string) string {
	subdomain = strings.TrimSpace(subdomain)
	if subdomain == "" {
		subdomain = DefaultSubdomain
	}
	return fmt.Sprintf("https://%s.small-improvements.com", subdomain)
}

// SIService is the layer the CLI talks to. It owns no global state: every
// dependency is passed in at construction.
type SIService struct {
	store     CacheStore
	remote    Remote
	sync      *TeamSync
	scheduler *Scheduler
	logger    Logger
}

// NewSIService creates a new SIService with the provided dependencies.
func NewSIService(store CacheStore, remote Remote, logger Logger, clock Clock) *SIService {
	return &SIService{
		store:     store,
		remote:    remote,
		sync:      NewTeamSync(store, logger),
		scheduler: NewScheduler(remote, clock, logger),
		logger:    logger,
	}
}

// IsSetup reports whether a cache document exists.
func (s *SIService) IsSetup() bool {
	return s.store.IsInitialized()
}

// SyncTeam fetches the current user and their reports and merges them into
// the cache. overwrite discards all local data first.
func (s *SIService) SyncTeam(ctx context.Context, overwrite bool) (*CacheDocument, error) {
	me, err := s.remote.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	roster, err := s.remote.GetTeam(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching team: %w", err)
	}

	return s.sync.Sync(me, me.Manager, roster, overwrite)
}

// Document loads the cache document.
func (s *SIService) Document() (*CacheDocument, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}
	return doc, nil
}

// Me returns the cached identity of the user.
func (s *SIService) Me() (*Me, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	if doc.Me == nil || doc.Me.ID == "" {
		return nil, fmt.Errorf("cache has no user identity, run setup again")
	}
	return doc.Me, nil
}

// BaseURL returns the cached tenant base URL, or DefaultBaseURL.
func (s *SIService) BaseURL() string {
	doc, err := s.store.Load()
	if err != nil || doc.BaseURL == "" {
		return DefaultBaseURL
	}
	return doc.BaseURL
}

// ManagerAndTeam returns the roster in display order: the manager first,
// then reports sorted by cache key. Selection indices refer to this order.
func (s *SIService) ManagerAndTeam() ([]*Teammate, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	return OrderedRoster(doc), nil
}

// OrderedRoster flattens doc into the order used for display and selection.
func OrderedRoster(doc *CacheDocument) []*Teammate {
	var roster []*Teammate
	if doc.Manager != nil {
		roster = append(roster, doc.Manager)
	}

	keys := make([]string, 0, len(doc.Team))
	for k, t := range doc.Team {
		if t != nil {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	for _, k := range keys {
		roster = append(roster, doc.Team[k])
	}
	return roster
}

// AddNickname sets a local nickname on the cached teammate with the same ID.
func (s *SIService) AddNickname(teammate *Teammate, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return fmt.Errorf("nickname cannot be empty")
	}

	doc, err := s.Document()
	if err != nil {
		return err
	}

	target := findByID(doc.Team, teammate.ID)
	if target == nil && doc.Manager != nil && doc.Manager.ID == teammate.ID {
		target = doc.Manager
	}
	if target == nil {
		return fmt.Errorf("teammate %s is not in the cached team", teammate.Name)
	}

	target.Nickname = nickname
	if err := s.store.Save(doc); err != nil {
		return fmt.Errorf("saving nickname: %w", err)
	}

	s.logger.Info("nickname added", "teammate", teammate.ID, "nickname", nickname)
	return nil
}

// FindUpcomingMeeting returns the next meeting with teammateID, or nil.
func (s *SIService) FindUpcomingMeeting(ctx context.Context, teammateID string) (*Meeting, error) {
	return s.scheduler.FindUpcoming(ctx, teammateID)
}

// FindOrCreateMeeting returns the next meeting with teammateID, creating it
// if needed. draft starts a newly created meeting unshared.
func (s *SIService) FindOrCreateMeeting(ctx context.Context, teammateID string, draft bool) (*Meeting, error) {
	me, err := s.Me()
	if err != nil {
		return nil, err
	}
	return s.scheduler.FindOrCreate(ctx, me.ID, teammateID, draft)
}

// MeetingURL returns the web link for a meeting.
func (s *SIService) MeetingURL(meeting *Meeting) string {
	return fmt.Sprintf("%s/app/meeting/%s", s.BaseURL(), meeting.ID)
}

// ShareMeeting shares a draft meeting with its participants.
func (s *SIService) ShareMeeting(ctx context.Context, meetingID string) error {
	if err := s.remote.ShareMeeting(ctx, meetingID); err != nil {
		return fmt.Errorf("sharing meeting: %w", err)
	}
	s.logger.Info("meeting shared", "meeting", meetingID)
	return nil
}

// AddTalkingPoint adds content as a talking point to a meeting.
func (s *SIService) AddTalkingPoint(ctx context.Context, meetingID, content string, opts NoteOptions) error {
	if err := s.remote.AddTalkingPoint(ctx, meetingID, TextToMarkup(content), opts.Visibility()); err != nil {
		return fmt.Errorf("adding talking point: %w", err)
	}
	s.logger.Info("talking point added", "meeting", meetingID, "visibility", string(opts.Visibility()))
	return nil
}

// AddNote adds content as a note to a meeting.
func (s *SIService) AddNote(ctx context.Context, meetingID, content string, opts NoteOptions) error {
	if err := s.remote.AddNote(ctx, meetingID, TextToMarkup(content), opts.Visibility()); err != nil {
		return fmt.Errorf("adding note: %w", err)
	}
	s.logger.Info("note added", "meeting", meetingID, "visibility", string(opts.Visibility()))
	return nil
}
