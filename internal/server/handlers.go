package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"photodup/internal/api"
	"photodup/internal/index"
	"photodup/internal/logging"
	"photodup/internal/trash"
)

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cursor, err := queryInt(r, "cursor", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid cursor")
		return
	}
	limit, err := queryInt(r, "limit", s.pageSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPage(s.catalog.PairsPage(cursor, limit)))
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromGroupView(s.catalog.CurrentGroup()))
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromGroupView(s.catalog.SkipGroup()))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		ID *int `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: id required")
		return
	}
	if err := s.catalog.Delete(r.Context(), *body.ID); err != nil {
		if errors.Is(err, index.ErrUnknownID) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResult{OK: true, DeletedID: *body.ID})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entry, err := s.bin.RestoreLast(r.Context())
	if err != nil {
		if errors.Is(err, trash.ErrNothingToRestore) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// The restored file only reappears in a fresh generation.
	if err := s.catalog.Rebuild(r.Context()); err != nil {
		s.logger.Warn("rebuild after undo failed", logging.Error(err))
	}
	s.writeJSON(w, http.StatusOK, api.UndoResult{OK: true, Restored: entry.RelPath})
}

func (s *Server) handleSubfolders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	names, err := s.catalog.ListSubfolders()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := api.Subfolders{Subfolders: names}
	if payload.Subfolders == nil {
		payload.Subfolders = []string{}
	}
	if current := s.catalog.Subfolder(); current != "" {
		payload.Current = &current
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSetSubfolder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Subfolder string `json:"subfolder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.catalog.SetSubfolder(r.Context(), body.Subfolder); err != nil {
		if errors.Is(err, index.ErrInvalidSubfolder) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SetSubfolderResult{OK: true, Subfolder: s.catalog.Subfolder()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := api.FromStats(s.catalog.Stats())
	status.Root = s.root
	status.PermanentDelete = s.permanent
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/img/")
	id, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "invalid image id")
		return
	}
	path, err := s.catalog.RecordPath(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.Error{Message: message})
}
