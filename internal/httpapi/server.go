package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
	apimw "github.com/hamed0406/slotwatch/internal/httpapi/middleware"
	"github.com/hamed0406/slotwatch/internal/repo"
)

// NotificationView is satisfied by *notify.Gate.
type NotificationView interface {
	SentLast24h() int
	Recent() map[domain.LocationCode][]string
}

// Server is the read-only status API over the running poller.
type Server struct {
	Logger    *zap.Logger
	Locations []domain.Location
	States    repo.StateStore
	Polls     repo.PollSnapshot
	Gate      NotificationView
}

func NewServer(l *zap.Logger, locs []domain.Location, states repo.StateStore, polls repo.PollSnapshot, gate NotificationView) *Server {
	return &Server{Logger: l, Locations: locs, States: states, Polls: polls, Gate: gate}
}

// Router wires the routes. Reads need a public or admin key and are rate
// limited per client; the message history needs an admin key.
func (s *Server) Router(keys apimw.Keys, origins []string, publicRPM, publicBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(corsHandler(origins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(publicRPM, publicBurst))
		r.Get("/api/locations", s.handleListLocations)
		r.Get("/api/locations/{code}", s.handleGetLocation)
		r.Get("/api/polls/latest", s.handleLatestPolls)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Get("/api/notifications", s.handleNotifications)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key"},
		MaxAge:         300,
	})
}

type locationView struct {
	Code               domain.LocationCode `json:"code"`
	LocationID         int                 `json:"location_id"`
	Alert              bool                `json:"alert"`
	BestSlot           string              `json:"best_slot,omitempty"`
	BestSlotAt         *time.Time          `json:"best_slot_at,omitempty"`
	LastNotificationAt *time.Time          `json:"last_notification_at,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Server) view(loc domain.Location, st domain.LocationState) locationView {
	return locationView{
		Code:               loc.Code,
		LocationID:         loc.LocationID,
		Alert:              loc.Alert,
		BestSlot:           st.BestSlotRaw,
		BestSlotAt:         timePtr(st.BestSlot),
		LastNotificationAt: timePtr(st.LastNotificationAt),
	}
}

func (s *Server) states(r *http.Request) (map[domain.LocationCode]domain.LocationState, error) {
	list, err := s.States.List(r.Context())
	if err != nil {
		return nil, err
	}
	m := make(map[domain.LocationCode]domain.LocationState, len(list))
	for _, st := range list {
		m[st.Code] = st
	}
	return m, nil
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	m, err := s.states(r)
	if err != nil {
		s.Logger.Error("list_states_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	out := make([]locationView, 0, len(s.Locations))
	for _, loc := range s.Locations {
		out = append(out, s.view(loc, m[loc.Code]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	code := domain.LocationCode(strings.ToUpper(chi.URLParam(r, "code")))
	for _, loc := range s.Locations {
		if loc.Code != code {
			continue
		}
		m, err := s.states(r)
		if err != nil {
			s.Logger.Error("list_states_error", zap.Error(err))
			http.Error(w, "list error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, s.view(loc, m[code]))
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown location"})
}

func (s *Server) handleLatestPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := s.Polls.Latest(r.Context())
	if err != nil {
		s.Logger.Error("latest_polls_error", zap.Error(err))
		http.Error(w, "latest error", http.StatusInternalServerError)
		return
	}
	if polls == nil {
		polls = []domain.PollRecord{}
	}
	writeJSON(w, http.StatusOK, polls)
}

type notificationsView struct {
	SentLast24h int                              `json:"sent_last_24h"`
	Recent      map[domain.LocationCode][]string `json:"recent"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, notificationsView{
		SentLast24h: s.Gate.SentLast24h(),
		Recent:      s.Gate.Recent(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
