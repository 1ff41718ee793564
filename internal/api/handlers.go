package api

import (
	"net/http"
	"strconv"

	"github.com/sshsshje/sshsshje/internal/errors"
)

func (s *Server) system(w http.ResponseWriter, r *http.Request) {
	v, err := s.src.System(r.Context())
	respond(w, r, v, err)
}

func (s *Server) services(w http.ResponseWriter, r *http.Request) {
	v, err := s.src.Services(r.Context())
	respond(w, r, v, err)
}

func (s *Server) containers(w http.ResponseWriter, r *http.Request) {
	v, err := s.src.Containers(r.Context())
	respond(w, r, v, err)
}

func (s *Server) applications(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.src.Applications(r.Context()))
}

func (s *Server) security(w http.ResponseWriter, r *http.Request) {
	v, err := s.src.Security(r.Context())
	respond(w, r, v, err)
}

func (s *Server) diagnostics(w http.ResponseWriter, r *http.Request) {
	v, err := s.src.Diagnostics(r.Context())
	respond(w, r, v, err)
}

// history accepts ?days=N, clamped to 1..7 by the source. Default 1.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, errors.New(errors.ErrInput, "days must be an integer", ""))
			return
		}
		days = n
	}
	v, err := s.src.History(r.Context(), days)
	respond(w, r, v, err)
}

type restartRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (s *Server) restart(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[restartRequest](w, r)
	if !ok {
		return
	}
	v, err := s.src.Restart(r.Context(), req.Type, req.Name)
	respond(w, r, v, err)
}

type resolveRequest struct {
	IssueID string `json:"issue_id"`
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[resolveRequest](w, r)
	if !ok {
		return
	}
	if req.IssueID == "" {
		writeError(w, r, errors.New(errors.ErrInput, "issue_id is required", ""))
		return
	}
	v, err := s.src.Resolve(r.Context(), req.IssueID)
	respond(w, r, v, err)
}

// health always answers 200; the body says whether the host is reachable.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.src.Health(r.Context()))
}
