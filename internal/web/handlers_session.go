package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/JonMunkholm/PeopleImport/internal/logging"
	"github.com/go-chi/chi/v5"
)

type createSessionRequest struct {
	Headers []string     `json:"headers"`
	Rows    []core.Row   `json:"rows"`
	Mapping core.Mapping `json:"mapping"`
}

type createSessionResponse struct {
	SessionID string       `json:"session_id"`
	Headers   []string     `json:"headers"`
	Mapping   core.Mapping `json:"mapping"`
	RowCount  int          `json:"rowCount"`
}

// handleCreateSession starts a validation run over parsed rows. Without a
// mapping one is inferred from the headers.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, s.cfg.Server.MaxBodySize, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Mapping == nil && len(req.Headers) == 0 {
		respondError(w, r, core.ErrNoHeaders)
		return
	}

	mapping := req.Mapping
	if mapping == nil {
		mapping = core.InferMapping(req.Headers)
	}

	ctx := withRequestMetadata(r.Context(), r)
	id, err := s.service.StartValidation(ctx, req.Headers, req.Rows, mapping)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "session_id", id).Info("session created",
		"rows", len(req.Rows),
		"mapped", len(mapping),
	)

	writeJSONStatus(w, http.StatusAccepted, createSessionResponse{
		SessionID: id,
		Headers:   req.Headers,
		Mapping:   mapping,
		RowCount:  len(req.Rows),
	})
}

type sessionResponse struct {
	core.SessionInfo
	Page           int               `json:"page,omitempty"`
	PageSize       int               `json:"pageSize,omitempty"`
	Rows           []core.Row        `json:"rows,omitempty"`
	GroupedErrors  []core.GroupedRow `json:"groupedErrors,omitempty"`
	GroupedChanges []core.GroupedRow `json:"groupedChanges,omitempty"`
	History        []string          `json:"history,omitempty"`
	HistoryPos     int               `json:"historyPos"`
}

// handleGetSession returns session info and, once validation has finished,
// one page of rows with the grouped errors and changes for those rows.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	info, err := s.service.Info(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := sessionResponse{SessionInfo: info, HistoryPos: -1}

	editor, err := s.service.Editor(id)
	if errors.Is(err, core.ErrSessionNotReady) {
		writeJSON(w, resp)
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	pageNum := parseIntParam(r, "page", 1)
	size := min(parseIntParam(r, "pageSize", defaultPageSize), maxPageSize)

	st := editor.State()
	start, end := page(len(st.Rows), pageNum, size)

	resp.Page = pageNum
	resp.PageSize = size
	resp.Rows = st.Rows[start:end]
	resp.GroupedErrors = rowsInRange(st.GroupedErrors, start, end)
	resp.GroupedChanges = rowsInRange(st.GroupedChanges, start, end)
	resp.History, resp.HistoryPos = editor.History().Labels()

	writeJSON(w, resp)
}

func rowsInRange(grouped []core.GroupedRow, start, end int) []core.GroupedRow {
	var out []core.GroupedRow
	for _, g := range grouped {
		if g.Row >= start && g.Row < end {
			out = append(out, g)
		}
	}
	return out
}

// handleProgress streams run progress via Server-Sent Events.
// The event id is the progress percentage; a reconnecting client passes the
// last one it saw as lastEventId (or Last-Event-ID) to skip older events.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondStatus(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			percent := progress.Percent()
			if percent <= lastEventID && !progress.IsComplete && progress.Error == "" {
				continue
			}
			lastEventID = percent

			data, err := json.Marshal(progress)
			if err != nil {
				logging.WithFields(r.Context(), "session_id", id).Error("encode progress", "error", err)
				return
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleCloseSession cancels any running validation and drops the session.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.service.CloseSession(id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
