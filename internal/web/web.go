package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"fbcal/internal/config"
	"fbcal/internal/export"
	"fbcal/internal/feed"
	"fbcal/internal/grid"
	appLog "fbcal/internal/log"
	"fbcal/internal/model"
	"fbcal/internal/schedule"
	"fbcal/internal/timezone"
)

// Server exposes the availability grid and the plain-text export over HTTP.
// All schedule data comes from the feed store's current snapshot; handlers
// never fetch anything themselves.
type Server struct {
	cfg   *config.Config
	store *feed.Store
	svc   *timezone.Service
	mux   *http.ServeMux
}

func NewServer(cfg *config.Config, store *feed.Store, svc *timezone.Service) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		svc:   svc,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="fbcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/availability", s.handleAvailability)
	s.mux.HandleFunc("/api/export.txt", s.handleExport)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRefresh asks the store to refresh soon. The actual work happens on
// the store's goroutine; this returns immediately.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.store.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

// availabilityResponse is the JSON shape for /api/availability.
type availabilityResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`

	OwnerZone    string           `json:"ownerZone,omitempty"`
	ViewerZone   string           `json:"viewerZone"`
	ViewerLabel  string           `json:"viewerLabel"`
	Zones        []model.ViewZone `json:"zones"`
	WeekStartDay int              `json:"weekStartDay,omitempty"`
	GeneratedAt  *time.Time       `json:"generatedAt,omitempty"`

	StartHour int   `json:"startHour,omitempty"`
	EndHour   int   `json:"endHour,omitempty"`
	Hours     []int `json:"hours,omitempty"`

	Weeks [][]dayDTO `json:"weeks,omitempty"`
}

type dayDTO struct {
	Date     string           `json:"date"`
	Weekday  int              `json:"weekday"`
	InWindow bool             `json:"inWindow"`
	Work     *workIntervalDTO `json:"work,omitempty"`
	Cells    []cellDTO        `json:"cells"`
	Busy     []busyDTO        `json:"busy"`
}

type workIntervalDTO struct {
	StartMin int `json:"startMin"`
	EndMin   int `json:"endMin"`
}

type cellDTO struct {
	Hour      int     `json:"hour"`
	Kind      string  `json:"kind"`
	TopPct    float64 `json:"topPct,omitempty"`
	HeightPct float64 `json:"heightPct,omitempty"`
}

type busyDTO struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"allDay"`
	TopPx    float64   `json:"topPx"`
	HeightPx float64   `json:"heightPx"`
}

func cellKindString(k grid.CellKind) string {
	switch k {
	case grid.CellFull:
		return "full"
	case grid.CellPartial:
		return "partial"
	default:
		return "none"
	}
}

// resolveViewerZone picks the viewer timezone for a request. An explicit,
// supported tz parameter wins; otherwise the configured default applies.
// Unsupported values never leak through, so the grid only ever renders in
// zones the picker offers.
func (s *Server) resolveViewerZone(r *http.Request) string {
	if tz := r.URL.Query().Get("tz"); tz != "" {
		if model.IsSupportedViewZone(tz) {
			return tz
		}
		appLog.Debug("unsupported viewer timezone requested", "tz", tz)
	}
	if model.IsSupportedViewZone(s.cfg.ViewTimezone) {
		return s.cfg.ViewTimezone
	}
	return "America/New_York"
}

// handleAvailability returns the full grid for the current snapshot,
// rendered for one viewer timezone.
//
// GET /api/availability?tz=America/Chicago
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	viewerZone := s.resolveViewerZone(r)

	resp := availabilityResponse{
		ViewerZone:  viewerZone,
		ViewerLabel: model.LabelForViewZone(viewerZone),
		Zones:       model.ViewZones,
	}

	state := s.store.Current()
	if state.Snapshot == nil || state.Result.Kind != feed.ResultOk {
		kind := state.Result.Kind
		if state.Snapshot == nil && kind == feed.ResultOk {
			// Nothing fetched yet.
			kind = feed.ResultUnavailable
		}
		resp.Status = kind.String()
		resp.Message = state.Result.Message
		if resp.Message == "" {
			resp.Message = feed.UnavailableMessage
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	snap := state.Snapshot
	resp.Status = feed.ResultOk.String()
	resp.OwnerZone = snap.OwnerZone
	resp.WeekStartDay = snap.WeekStartDay
	if snap.GeneratedAt != nil {
		t := snap.GeneratedAt.Time()
		resp.GeneratedAt = &t
	}

	byWeekday := schedule.ByWeekday(snap.Weekly)

	// One hour range for the whole grid, covering every rendered day.
	allDays := make([]model.OwnerDay, 0)
	for _, week := range snap.Weeks {
		allDays = append(allDays, week...)
	}
	startHour, endHour := schedule.HourBounds(s.svc, allDays, byWeekday,
		snap.OwnerZone, viewerZone, s.cfg.GridStartHour, s.cfg.GridEndHour)
	resp.StartHour = startHour
	resp.EndHour = endHour
	resp.Hours = grid.HourSlots(startHour, endHour)

	cellHeight := float64(s.cfg.CellHeight)

	resp.Weeks = make([][]dayDTO, 0, len(snap.Weeks))
	for _, week := range snap.Weeks {
		intervals := schedule.ViewIntervalsForDays(s.svc, week, byWeekday,
			snap.OwnerZone, viewerZone, s.cfg.GridStartHour, s.cfg.GridEndHour)

		weekOut := make([]dayDTO, 0, len(week))
		for i, day := range week {
			d := dayDTO{
				Date:     day.OwnerDate,
				Weekday:  day.Weekday,
				InWindow: day.InWindow,
			}

			iv := intervals[i]
			if iv != nil {
				d.Work = &workIntervalDTO{StartMin: iv.StartMin, EndMin: iv.EndMin}
			}

			d.Cells = make([]cellDTO, 0, len(resp.Hours))
			for _, hour := range resp.Hours {
				cell := grid.ClassifyHourCell(day.InWindow, iv, hour)
				out := cellDTO{Hour: hour, Kind: cellKindString(cell.Kind)}
				if cell.Kind == grid.CellPartial {
					out.TopPct = cell.TopPct
					out.HeightPct = cell.HeightPct
				}
				d.Cells = append(d.Cells, out)
			}

			d.Busy = make([]busyDTO, 0)
			for _, vb := range grid.RenderBusyIntervalsForDay(s.svc, day, snap.Busy,
				viewerZone, startHour, endHour, cellHeight) {
				d.Busy = append(d.Busy, busyDTO{
					Start:    vb.VisibleStart.Time(),
					End:      vb.VisibleEnd.Time(),
					AllDay:   vb.Kind == model.BusyAllDay,
					TopPx:    vb.TopPx,
					HeightPx: vb.HeightPx,
				})
			}

			weekOut = append(weekOut, d)
		}
		resp.Weeks = append(resp.Weeks, weekOut)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleExport returns the plain-text availability digest as a download.
//
// GET /api/export.txt?tz=America/Denver
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	viewerZone := s.resolveViewerZone(r)

	state := s.store.Current()
	if state.Snapshot == nil || state.Result.Kind != feed.ResultOk {
		msg := state.Result.Message
		if msg == "" {
			msg = feed.UnavailableMessage
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}
	snap := state.Snapshot

	var window *export.Window
	if snap.Window != nil {
		window = &export.Window{
			StartDate:        snap.Window.StartDate,
			EndDateInclusive: snap.Window.EndDateInclusive,
		}
	}

	text := export.BuildText(s.svc, export.Args{
		Days:        snap.Days,
		Busy:        snap.Busy,
		Weekly:      snap.Weekly,
		OwnerZone:   snap.OwnerZone,
		ViewerZone:  viewerZone,
		Window:      window,
		GeneratedAt: snap.GeneratedAt,
	})

	name := export.SuggestedFileName(window, snap.Days, viewerZone)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
