// Package signalingtest runs scripted webrtc-direct listeners for tests.
package signalingtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// AnswerFunc produces the body and status code for a received envelope.
type AnswerFunc func(envelope string) (body string, status int)

// Server is an httptest server answering GET /?signal=... through mux.
type Server struct {
	*httptest.Server

	answer AnswerFunc

	mu        sync.Mutex
	envelopes []string
}

func NewServer(answer AnswerFunc) *Server {
	s := &Server{answer: answer}

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleSignal).
		Methods(http.MethodGet).
		Queries("signal", "{signal}")

	s.Server = httptest.NewServer(router)
	return s
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	envelope := mux.Vars(r)["signal"]

	s.mu.Lock()
	s.envelopes = append(s.envelopes, envelope)
	s.mu.Unlock()

	body, status := s.answer(envelope)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// HostPort is the listener address without a scheme.
func (s *Server) HostPort() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// Envelopes returns every signal received so far.
func (s *Server) Envelopes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.envelopes...)
}
