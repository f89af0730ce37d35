package si

import (
	"errors"
	"fmt"
)

// TeamSync merges freshly fetched roster data into the cached document
// without losing local annotations.
type TeamSync struct {
	store  CacheStore
	logger Logger
}

// NewTeamSync creates a TeamSync that reads and writes store.
func NewTeamSync(store CacheStore, logger Logger) *TeamSync {
	return &TeamSync{store: store, logger: logger}
}

// Sync reconciles the remote view of the user, their manager and their
// reports with the cached document and saves the result.
//
// With overwrite set, the document is rebuilt from the remote data alone.
// Otherwise the cached document is the starting point: teammates are matched
// by ID only, so nicknames and any unknown keys survive, and cache keys never
// change once assigned. Inactive remote teammates are skipped and cached
// teammates are never removed.
func (s *TeamSync) Sync(me *RemoteUser, manager *RemoteTeammate, roster []RemoteTeammate, overwrite bool) (*CacheDocument, error) {
	if me == nil {
		return nil, fmt.Errorf("sync requires the current user")
	}

	doc := s.startingDocument(overwrite)

	if doc.Me == nil {
		doc.Me = &Me{}
	}
	doc.Me.ID = me.ID
	doc.Me.IsManager = len(me.Reports) > 0

	doc.BaseURL = ""
	if me.Company != nil {
		doc.BaseURL = me.Company.BaseURL
	}

	// The manager entry is updated in place, so its nickname and unknown keys
	// survive a rename or a change of manager.
	if manager != nil {
		if doc.Manager == nil {
			doc.Manager = &Teammate{}
		}
		doc.Manager.ID = manager.ID
		doc.Manager.FirstName = manager.FirstName
		doc.Manager.Name = manager.Name
		doc.Manager.Relationship = RelationshipManager
	}

	added, updated, skipped := 0, 0, 0
	for _, remote := range roster {
		if !remote.IsActive {
			skipped++
			continue
		}

		if existing := findByID(doc.Team, remote.ID); existing != nil {
			existing.ID = remote.ID
			existing.FirstName = remote.FirstName
			existing.Name = remote.Name
			existing.Relationship = RelationshipReport
			updated++
			continue
		}

		doc.Team[remote.Name] = &Teammate{
			ID:           remote.ID,
			FirstName:    remote.FirstName,
			Name:         remote.Name,
			Relationship: RelationshipReport,
		}
		added++
	}

	if err := s.store.Save(doc); err != nil {
		return nil, fmt.Errorf("saving synced team: %w", err)
	}

	s.logger.Info("team synced", "added", added, "updated", updated, "skipped", skipped, "overwrite", overwrite)
	return doc, nil
}

// startingDocument returns the document the merge starts from. A missing or
// unreadable cache is not an error: sync must work on a pristine system.
func (s *TeamSync) startingDocument(overwrite bool) *CacheDocument {
	if overwrite {
		return NewCacheDocument()
	}

	doc, err := s.store.Load()
	switch {
	case err == nil:
		if doc.Team == nil {
			doc.Team = make(map[string]*Teammate)
		}
		return doc
	case errors.Is(err, ErrCacheNotFound):
		s.logger.Debug("no cached team, starting fresh")
	case errors.Is(err, ErrCacheCorrupt):
		s.logger.Warn("cached team is corrupt, starting fresh", "error", err)
	default:
		s.logger.Warn("could not read cached team, starting fresh", "error", err)
	}
	return NewCacheDocument()
}

// findByID returns the cached teammate with the given ID, or nil.
func findByID(team map[string]*Teammate, id string) *Teammate {
	for _, t := range team {
		if t != nil && t.ID == id {
			return t
		}
	}
	return nil
}
