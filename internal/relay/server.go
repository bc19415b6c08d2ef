package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/op/go-logging.v1"

	"groupkeys/internal/domain"
	"groupkeys/internal/metrics"
)

const (
	maxBodyBytes = 1 << 20
	// maxInbox bounds queued distributions per recipient.
	maxInbox = 4096
)

// Server is an in-memory relay. Nothing survives a restart.
type Server struct {
	log *logging.Logger
	mux *http.ServeMux

	mu      sync.Mutex
	members map[domain.ChannelID][]domain.Member
	inbox   map[domain.UserID][]domain.SenderKeyDistribution
}

// NewServer returns a relay server with its routes registered.
func NewServer(log *logging.Logger) *Server {
	s := &Server{
		log:     log,
		mux:     http.NewServeMux(),
		members: make(map[domain.ChannelID][]domain.Member),
		inbox:   make(map[domain.UserID][]domain.SenderKeyDistribution),
	}
	s.mux.HandleFunc("GET /channels/{channel}/members", s.count("members_get", s.getMembers))
	s.mux.HandleFunc("PUT /channels/{channel}/members", s.count("members_put", s.putMembers))
	s.mux.HandleFunc("POST /sender-keys/{user}", s.count("sender_keys_post", s.postSenderKey))
	s.mux.HandleFunc("GET /sender-keys/{user}", s.count("sender_keys_get", s.drainSenderKeys))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	return s
}

// Handler returns the relay's HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) count(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RelayRequests.WithLabelValues(route).Inc()
		h(w, r)
	}
}

func (s *Server) getMembers(w http.ResponseWriter, r *http.Request) {
	channel := domain.ChannelID(r.PathValue("channel"))
	s.mu.Lock()
	out := append([]domain.Member{}, s.members[channel]...)
	s.mu.Unlock()
	writeJSON(w, out)
}

func (s *Server) putMembers(w http.ResponseWriter, r *http.Request) {
	channel := domain.ChannelID(r.PathValue("channel"))
	var ms []domain.Member
	if !readJSON(w, r, &ms) {
		return
	}
	for _, m := range ms {
		if m.UserID == "" {
			http.Error(w, "member without user id", http.StatusBadRequest)
			return
		}
	}
	s.mu.Lock()
	s.members[channel] = ms
	s.mu.Unlock()
	s.log.Noticef("Channel %s now has %d members", channel, len(ms))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postSenderKey(w http.ResponseWriter, r *http.Request) {
	user := domain.UserID(r.PathValue("user"))
	var d domain.SenderKeyDistribution
	if !readJSON(w, r, &d) {
		return
	}
	s.mu.Lock()
	if len(s.inbox[user]) >= maxInbox {
		s.mu.Unlock()
		http.Error(w, "inbox full", http.StatusInsufficientStorage)
		return
	}
	s.inbox[user] = append(s.inbox[user], d)
	s.mu.Unlock()
	s.log.Debugf("Queued sender key %s from %s for %s", d.DistributionID, d.From, user)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) drainSenderKeys(w http.ResponseWriter, r *http.Request) {
	user := domain.UserID(r.PathValue("user"))
	s.mu.Lock()
	out := s.inbox[user]
	delete(s.inbox, user)
	s.mu.Unlock()
	if out == nil {
		out = []domain.SenderKeyDistribution{}
	}
	writeJSON(w, out)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
