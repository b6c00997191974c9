package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"fbcal/internal/ics"
	appLog "fbcal/internal/log"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

// LegacyICS configures the superseded ICS busy-source path, used only when
// no JSON feed URL is configured. The window and schedule context that the
// feed would normally deliver come from local configuration instead.
type LegacyICS struct {
	Sources      []ics.Source
	OwnerZone    string
	WeekStartDay int
	HorizonDays  int
	Weekly       []model.WorkingHoursRule
}

// State is the store's current view: the latest snapshot (nil until the
// first successful refresh) plus the interpreted outcome of the last fetch.
type State struct {
	Snapshot  *Snapshot
	Result    Result
	FetchedAt time.Time
}

// Store is a poll-and-replace cache of the derived availability model.
// Refreshes are requested over a channel (cron, HTTP, startup) and serviced
// by Run; each successful refresh swaps in a complete new Snapshot.
type Store struct {
	client  *Client
	svc     *timezone.Service
	feedURL string
	legacy  *LegacyICS

	refreshCh chan struct{}

	mu            sync.RWMutex
	state         State
	nextAllowedAt time.Time
}

// NewStore creates a Store fetching feedURL, or the legacy ICS sources when
// feedURL is empty and legacy is configured.
func NewStore(client *Client, svc *timezone.Service, feedURL string, legacy *LegacyICS) *Store {
	return &Store{
		client:    client,
		svc:       svc,
		feedURL:   feedURL,
		legacy:    legacy,
		refreshCh: make(chan struct{}, 1),
	}
}

// Refresh requests an asynchronous refresh. Requests collapse while one is
// already pending.
func (s *Store) Refresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Current returns the latest state.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Run services refresh requests until ctx is canceled. An initial refresh
// runs immediately.
func (s *Store) Run(ctx context.Context) {
	if err := s.RefreshNow(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.refreshCh:
			if err := s.RefreshNow(ctx); err != nil {
				appLog.Error("refresh failed", err)
			}
		}
	}
}

// RefreshNow performs one synchronous refresh. Refreshes arriving before
// the API's next-allowed time are skipped.
func (s *Store) RefreshNow(ctx context.Context) error {
	s.mu.RLock()
	next := s.nextAllowedAt
	s.mu.RUnlock()
	if !next.IsZero() && time.Now().Before(next) {
		appLog.Info("refresh skipped; rate limited", "next_allowed_at", next.Format(time.RFC3339))
		return nil
	}

	if s.feedURL != "" {
		return s.refreshFromFeed(ctx)
	}
	if s.legacy != nil && len(s.legacy.Sources) > 0 {
		return s.refreshFromICS(ctx)
	}
	return errors.New("no feed URL or ICS sources configured")
}

func (s *Store) refreshFromFeed(ctx context.Context) error {
	outcome, err := s.client.Fetch(ctx, s.feedURL)
	if err != nil {
		s.setResult(Result{Kind: ResultUnavailable, Message: UnavailableMessage})
		return err
	}

	result := Interpret(outcome.Status, outcome.Body)
	if result.Kind != ResultOk {
		s.setResult(result)
		if result.Kind == ResultRateLimited && result.RateLimit != nil {
			if t, perr := time.Parse(time.RFC3339, result.RateLimit.NextAllowedAtUtc); perr == nil {
				s.mu.Lock()
				s.nextAllowedAt = t
				s.mu.Unlock()
			}
		}
		appLog.Info("feed refresh not ok", "kind", result.Kind.String(), "status", outcome.Status)
		return nil
	}

	var resp Response
	if err := json.Unmarshal(outcome.Body, &resp); err != nil {
		s.setResult(Result{Kind: ResultUnavailable, Message: UnavailableMessage})
		return err
	}

	snap := BuildSnapshot(s.svc, &resp)
	s.setSnapshot(snap)
	appLog.Info("feed refresh ok",
		"owner_zone", snap.OwnerZone,
		"days", len(snap.Days),
		"weeks", len(snap.Weeks),
		"busy", len(snap.Busy),
		"from_cache", outcome.FromCache,
	)
	return nil
}

// refreshFromICS builds a snapshot from legacy ICS sources: the window is
// derived from the local clock and configuration rather than the feed.
func (s *Store) refreshFromICS(ctx context.Context) error {
	horizon := s.legacy.HorizonDays
	if horizon <= 0 {
		horizon = 14
	}
	ownerZone := s.legacy.OwnerZone
	if ownerZone == "" {
		ownerZone = "Etc/UTC"
	}

	now := time.Now().In(s.svc.Location(ownerZone))
	startDate := now.Format("2006-01-02")
	endDate := now.AddDate(0, 0, horizon-1).Format("2006-01-02")

	rangeStart := now.AddDate(0, 0, -1)
	rangeEnd := now.AddDate(0, 0, horizon+1)

	var allBusy []model.BusyInterval
	var fetchErr error
	for _, src := range s.legacy.Sources {
		outcome, err := s.client.Fetch(ctx, src.URL)
		if err != nil || outcome.Status != 200 {
			if err == nil {
				err = errors.New("unexpected ICS status")
			}
			appLog.Error("ics source fetch failed", err, "id", src.ID)
			fetchErr = err
			continue
		}
		events, err := ics.Parse(src, outcome.Body)
		if err != nil {
			appLog.Error("ics source parse failed", err, "id", src.ID)
			continue
		}
		allBusy = append(allBusy, ics.ExpandBusy(s.svc, events, ics.ExpandConfig{
			Zone:       ownerZone,
			RangeStart: rangeStart,
			RangeEnd:   rangeEnd,
		})...)
	}

	if len(allBusy) == 0 && fetchErr != nil {
		s.setResult(Result{Kind: ResultUnavailable, Message: UnavailableMessage})
		return fetchErr
	}

	resp := &Response{
		Calendar: CalendarContext{TimeZone: ownerZone, WeekStartDay: s.legacy.WeekStartDay},
		Window:   Window{StartDate: startDate, EndDateInclusive: endDate},
		WorkingHours: WorkingHours{
			Weekly: s.legacy.Weekly,
		},
	}
	snap := BuildSnapshot(s.svc, resp)
	snap.Busy = allBusy

	s.setSnapshot(snap)
	appLog.Info("ics refresh ok", "days", len(snap.Days), "busy", len(snap.Busy))
	return nil
}

func (s *Store) setSnapshot(snap *Snapshot) {
	s.mu.Lock()
	s.state = State{
		Snapshot:  snap,
		Result:    Result{Kind: ResultOk},
		FetchedAt: time.Now(),
	}
	s.nextAllowedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Store) setResult(r Result) {
	s.mu.Lock()
	s.state.Result = r
	s.state.FetchedAt = time.Now()
	// A failed refresh keeps the previous snapshot; the caller decides
	// whether to keep showing it.
	s.mu.Unlock()
}
