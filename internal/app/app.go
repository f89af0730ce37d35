package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"si-go/internal/cache"
	"si-go/internal/client"
	"si-go/internal/config"
	"si-go/internal/encryption"
	"si-go/internal/si"
)

// Options carries per-invocation settings that do not belong in the config file.
type Options struct {
	Token   string
	Verbose bool

	// Optional overrides, mostly for tests.
	Stderr     io.Writer
	HTTPClient *http.Client
	Clock      si.Clock
}

// SIApp is the application layer between the CLI and SIService.
// It constructs all dependencies from config, runs multi-teammate commands
// one teammate at a time, and records the outcome of the operation on Close.
type SIApp struct {
	cfg       *config.Config
	store     si.CacheStore
	encryptor si.Encryptor
	client    *client.Client
	service   *si.SIService
	clock     si.Clock
	logger    *slog.Logger
	op        *Operation
	logFile   *os.File
}

// NewSIApp creates a fully wired SIApp from the given config.
// operation identifies the CLI command being run (e.g. "SyncTeam", "AddNote").
// The caller must call Close when done.
func NewSIApp(cfg *config.Config, operation string, opts Options) (*SIApp, error) {
	clock := opts.Clock
	if clock == nil {
		clock = si.RealClock{}
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	store, err := cache.NewStoreFromConfig(cfg.Cache, cfg.Profile, enc)
	if err != nil {
		return nil, fmt.Errorf("creating cache store: %w", err)
	}

	op := NewOperation(operation, clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, opts.Verbose, stderr)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	clientOpts := []client.Option{client.WithTokenEnv(cfg.TokenEnv)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(opts.HTTPClient))
	}
	c := client.New(opts.Token, cfg.BaseURL, clientOpts...)

	svc := si.NewSIService(store, c, &slogAdapter{l: logger}, clock)
	if cfg.BaseURL == "" {
		c.SetBaseURL(svc.BaseURL())
	}

	logger.Debug("operation started", "operation", operation, "cache", cfg.Cache.Type, "base_url", c.BaseURL())

	return &SIApp{
		cfg:       cfg,
		store:     store,
		encryptor: enc,
		client:    c,
		service:   svc,
		clock:     clock,
		logger:    logger,
		op:        op,
		logFile:   logFile,
	}, nil
}

// Operation returns the operation this app was created for.
func (a *SIApp) Operation() *Operation {
	return a.op
}

// BaseURL returns the tenant URL API calls go to.
func (a *SIApp) BaseURL() string {
	return a.client.BaseURL()
}

// IsSetup reports whether a cache document exists.
func (a *SIApp) IsSetup() bool {
	return a.service.IsSetup()
}

// Setup points the client at subdomain's tenant, creates encryption keys if
// needed, and rebuilds the cache from scratch. A base_url in the config
// takes precedence over subdomain.
func (a *SIApp) Setup(ctx context.Context, subdomain string) (*si.CacheDocument, error) {
	if a.cfg.BaseURL == "" {
		a.client.SetBaseURL(si.BaseURLForSubdomain(subdomain))
	}

	if a.encryptor != nil && !a.encryptor.IsConfigured() {
		if err := a.encryptor.Setup(); err != nil {
			return nil, a.track(fmt.Errorf("setting up encryption: %w", err))
		}
		a.logger.Info("encryption keys created", "type", a.cfg.Encryption.Type)
	}

	doc, err := a.service.SyncTeam(ctx, true)
	if err != nil {
		return nil, a.track(err)
	}
	return doc, nil
}

// SyncTeam merges the current remote roster into the cache.
func (a *SIApp) SyncTeam(ctx context.Context) (*si.CacheDocument, error) {
	doc, err := a.service.SyncTeam(ctx, false)
	if err != nil {
		return nil, a.track(err)
	}
	return doc, nil
}

// ManagerAndTeam returns the cached roster in display order.
func (a *SIApp) ManagerAndTeam() ([]*si.Teammate, error) {
	roster, err := a.service.ManagerAndTeam()
	if err != nil {
		return nil, a.track(err)
	}
	return roster, nil
}

// AddNickname stores a local nickname for teammate.
func (a *SIApp) AddNickname(teammate *si.Teammate, nickname string) error {
	return a.track(a.service.AddNickname(teammate, nickname))
}

// AddTalkingPoint adds content to the next meeting with each teammate,
// creating meetings as needed. Teammates are processed in order and the
// first failure stops the run.
func (a *SIApp) AddTalkingPoint(ctx context.Context, teammates []*si.Teammate, content string, draft bool, opts si.NoteOptions) ([]*si.Meeting, error) {
	return a.attach(ctx, teammates, draft, func(meetingID string) error {
		return a.service.AddTalkingPoint(ctx, meetingID, content, opts)
	})
}

// AddNote adds content as a note to the next meeting with each teammate,
// creating meetings as needed.
func (a *SIApp) AddNote(ctx context.Context, teammates []*si.Teammate, content string, draft bool, opts si.NoteOptions) ([]*si.Meeting, error) {
	return a.attach(ctx, teammates, draft, func(meetingID string) error {
		return a.service.AddNote(ctx, meetingID, content, opts)
	})
}

func (a *SIApp) attach(ctx context.Context, teammates []*si.Teammate, draft bool, add func(meetingID string) error) ([]*si.Meeting, error) {
	var meetings []*si.Meeting
	for _, t := range teammates {
		meeting, err := a.service.FindOrCreateMeeting(ctx, t.ID, draft)
		if err != nil {
			return meetings, a.track(fmt.Errorf("finding meeting with %s: %w", t.Name, err))
		}
		if err := add(meeting.ID); err != nil {
			return meetings, a.track(fmt.Errorf("meeting with %s: %w", t.Name, err))
		}
		meetings = append(meetings, meeting)
	}
	return meetings, nil
}

// ShareMeetings shares the upcoming meeting with each teammate. It returns
// the teammates who have no upcoming meeting.
func (a *SIApp) ShareMeetings(ctx context.Context, teammates []*si.Teammate) ([]*si.Teammate, error) {
	var without []*si.Teammate
	for _, t := range teammates {
		meeting, err := a.service.FindUpcomingMeeting(ctx, t.ID)
		if err != nil {
			return without, a.track(fmt.Errorf("finding meeting with %s: %w", t.Name, err))
		}
		if meeting == nil {
			without = append(without, t)
			continue
		}
		if err := a.service.ShareMeeting(ctx, meeting.ID); err != nil {
			return without, a.track(err)
		}
	}
	return without, nil
}

// UpcomingMeetingURL returns the link to the next meeting with teammate, or
// "" when there is none.
func (a *SIApp) UpcomingMeetingURL(ctx context.Context, teammate *si.Teammate) (string, error) {
	meeting, err := a.service.FindUpcomingMeeting(ctx, teammate.ID)
	if err != nil {
		return "", a.track(err)
	}
	if meeting == nil {
		return "", nil
	}
	return a.service.MeetingURL(meeting), nil
}

// track marks the operation failed when err is non-nil and passes err through.
func (a *SIApp) track(err error) error {
	if err != nil {
		a.op.Fail()
		a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
	}
	return err
}

// Close records the outcome of the operation and closes all resources.
func (a *SIApp) Close() error {
	var firstErr error

	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"duration", a.op.Duration(a.clock.Now()),
	)

	if err := closeStore(a.store); err != nil {
		firstErr = fmt.Errorf("closing cache store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// closeStore releases stores that hold a connection, such as sqlite.
func closeStore(store si.CacheStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
