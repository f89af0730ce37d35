package si

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Relationship describes how a cached teammate relates to the cache owner.
type Relationship string

const (
	RelationshipManager Relationship = "manager"
	RelationshipReport  Relationship = "report"
)

// Teammate is a cached roster entry. Nickname is set locally and never
// touched by sync. Keys the cache does not know about are kept in Extra and
// written back unchanged.
type Teammate struct {
	ID           string
	FirstName    string
	Name         string
	Nickname     string
	Relationship Relationship
	Extra        map[string]json.RawMessage
}

// DisplayName is the nickname when one is set, otherwise the first name.
func (t *Teammate) DisplayName() string {
	if t.Nickname != "" {
		return t.Nickname
	}
	return t.FirstName
}

var teammateKeys = []string{"id", "firstName", "name", "nickname", "relationship"}

func (t Teammate) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"id":           t.ID,
		"firstName":    t.FirstName,
		"name":         t.Name,
		"relationship": t.Relationship,
	}
	if t.Nickname != "" {
		known["nickname"] = t.Nickname
	}
	return marshalWithExtra(known, t.Extra)
}

func (t *Teammate) UnmarshalJSON(data []byte) error {
	var known struct {
		ID           string       `json:"id"`
		FirstName    string       `json:"firstName"`
		Name         string       `json:"name"`
		Nickname     string       `json:"nickname"`
		Relationship Relationship `json:"relationship"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := splitExtra(data, teammateKeys)
	if err != nil {
		return err
	}
	*t = Teammate{
		ID:           known.ID,
		FirstName:    known.FirstName,
		Name:         known.Name,
		Nickname:     known.Nickname,
		Relationship: known.Relationship,
		Extra:        extra,
	}
	return nil
}

// Me identifies the owner of the cache document.
type Me struct {
	ID        string
	IsManager bool
	Extra     map[string]json.RawMessage
}

var meKeys = []string{"id", "isManager"}

func (m Me) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(map[string]any{
		"id":        m.ID,
		"isManager": m.IsManager,
	}, m.Extra)
}

func (m *Me) UnmarshalJSON(data []byte) error {
	var known struct {
		ID        string `json:"id"`
		IsManager bool   `json:"isManager"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := splitExtra(data, meKeys)
	if err != nil {
		return err
	}
	*m = Me{ID: known.ID, IsManager: known.IsManager, Extra: extra}
	return nil
}

// CacheDocument is the whole persisted state for one user. Team is keyed by
// the teammate's name at the time it was first synced.
type CacheDocument struct {
	Me      *Me
	BaseURL string
	Manager *Teammate
	Team    map[string]*Teammate
	Extra   map[string]json.RawMessage
}

// NewCacheDocument returns an empty document ready to be merged into.
func NewCacheDocument() *CacheDocument {
	return &CacheDocument{Team: make(map[string]*Teammate)}
}

var documentKeys = []string{"me", "baseUrl", "manager", "team"}

func (d CacheDocument) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"baseUrl": d.BaseURL,
	}
	if d.Me != nil {
		known["me"] = d.Me
	}
	if d.Manager != nil {
		known["manager"] = d.Manager
	}
	team := d.Team
	if team == nil {
		team = map[string]*Teammate{}
	}
	known["team"] = team
	return marshalWithExtra(known, d.Extra)
}

func (d *CacheDocument) UnmarshalJSON(data []byte) error {
	var known struct {
		Me      *Me                  `json:"me"`
		BaseURL string               `json:"baseUrl"`
		Manager *Teammate            `json:"manager"`
		Team    map[string]*Teammate `json:"team"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := splitExtra(data, documentKeys)
	if err != nil {
		return err
	}
	if known.Team == nil {
		known.Team = make(map[string]*Teammate)
	}
	*d = CacheDocument{
		Me:      known.Me,
		BaseURL: known.BaseURL,
		Manager: known.Manager,
		Team:    known.Team,
		Extra:   extra,
	}
	return nil
}

// EncodeDocument renders doc as indented JSON with sorted keys.
func EncodeDocument(doc *CacheDocument) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding cache document: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, fmt.Errorf("indenting cache document: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDocument parses data produced by EncodeDocument (or edited by hand).
// Invalid input is reported as ErrCacheCorrupt.
func DecodeDocument(data []byte) (*CacheDocument, error) {
	var doc CacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return &doc, nil
}

// marshalWithExtra merges known fields over extra ones. Maps marshal with
// sorted keys, which keeps the cache file diff-friendly.
func marshalWithExtra(known map[string]any, extra map[string]json.RawMessage) ([]byte, error) {
	merged := make(map[string]any, len(known)+len(extra))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// splitExtra returns every top-level key of data that is not in known.
func splitExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// MeetingStatus is the sharing state of a meeting.
type MeetingStatus string

const (
	MeetingDraft  MeetingStatus = "DRAFT"
	MeetingShared MeetingStatus = "SHARED"
)

// CalendarDateFormat is how the service serializes meeting dates.
const CalendarDateFormat = "2006-01-02"

// Participant is a user attending a meeting.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Meeting is a one-on-one as returned by the service. It is never cached.
type Meeting struct {
	ID           string        `json:"id"`
	CalendarDate string        `json:"calendarDate"`
	IsDraft      bool          `json:"isDraft"`
	Status       MeetingStatus `json:"status,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
}

// Company is the tenant a user belongs to.
type Company struct {
	BaseURL string `json:"baseUrl"`
}

// RemoteTeammate is a roster entry as returned by the service.
type RemoteTeammate struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	Name      string `json:"name"`
	IsActive  bool   `json:"isActive"`
}

// RemoteUser is the authenticated user as returned by the service.
type RemoteUser struct {
	ID        string           `json:"id"`
	FirstName string           `json:"firstName"`
	Name      string           `json:"name"`
	Reports   []RemoteTeammate `json:"reports,omitempty"`
	Manager   *RemoteTeammate  `json:"manager,omitempty"`
	Company   *Company         `json:"company,omitempty"`
}

// Visibility controls who can see a note or talking point.
type Visibility string

const (
	VisibilityShared  Visibility = "SHARED"
	VisibilityPrivate Visibility = "PRIVATE"
)

// NoteOptions configures note and talking point creation.
type NoteOptions struct {
	Private bool
}

// Visibility maps the options to the service's visibility value.
func (o NoteOptions) Visibility() Visibility {
	if o.Private {
		return VisibilityPrivate
	}
	return VisibilityShared
}
