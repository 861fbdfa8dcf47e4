package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/JonMunkholm/PeopleImport/internal/logging"
	"github.com/JonMunkholm/PeopleImport/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// editResponse summarizes the table after a mutation.
type editResponse struct {
	Label       string            `json:"label,omitempty"`
	Affected    int               `json:"affected,omitempty"`
	RowCount    int               `json:"rowCount"`
	ErrorCount  int               `json:"errorCount"`
	ChangeCount int               `json:"changeCount"`
	CanUndo     bool              `json:"canUndo"`
	CanRedo     bool              `json:"canRedo"`
	Errors      []core.GroupedRow `json:"groupedErrors"`
}

// summarize reports e's state. An empty label falls back to the label of the
// most recent undoable mutation.
func summarize(e *core.Editor, label string) editResponse {
	if label == "" {
		if labels, pos := e.History().Labels(); pos >= 0 {
			label = labels[pos]
		}
	}
	st := e.State()
	return editResponse{
		Label:       label,
		RowCount:    len(st.Rows),
		ErrorCount:  len(st.Errors),
		ChangeCount: len(st.Changes),
		CanUndo:     e.History().CanUndo(),
		CanRedo:     e.History().CanRedo(),
		Errors:      st.GroupedErrors,
	}
}

// editor resolves the session's editor, writing the error response itself
// when it cannot.
func (s *Server) editor(w http.ResponseWriter, r *http.Request) (*core.Editor, bool) {
	e, err := s.service.Editor(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return e, true
}

type rowRequest struct {
	Row core.Row `json:"row"`
}

// handleEditRow replaces one row and re-validates it.
func (s *Server) handleEditRow(w http.ResponseWriter, r *http.Request) {
	s.writeRow(w, r, core.EditReplace)
}

// handleAddRow inserts a row at ?at= (default: the end).
func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	s.writeRow(w, r, core.EditAdd)
}

func (s *Server) writeRow(w http.ResponseWriter, r *http.Request, mode core.EditMode) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}

	var index int
	if mode == core.EditReplace {
		i, err := rowParam(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		index = i
	} else {
		index = e.Len()
		if at := r.URL.Query().Get("at"); at != "" {
			i, err := strconv.Atoi(at)
			if err != nil {
				respondError(w, r, fmt.Errorf("%w: at must be a number", errInvalidRequest))
				return
			}
			index = i
		}
	}

	var req rowRequest
	if err := decodeJSON(w, r, s.cfg.Server.MaxBodySize, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Row == nil {
		respondError(w, r, fmt.Errorf("%w: missing row", errInvalidRequest))
		return
	}

	if err := e.EditRow(req.Row, index, mode); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, summarize(e, ""))
}

// handleDuplicateRow inserts a copy of a row directly below it.
func (s *Server) handleDuplicateRow(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	index, err := rowParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := e.DuplicateRow(index); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, summarize(e, ""))
}

type deleteRowsRequest struct {
	Rows []int `json:"rows"`
}

// handleDeleteRows removes rows by zero-based index.
func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req deleteRowsRequest
	if err := decodeJSON(w, r, s.cfg.Server.MaxBodySize, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := e.DeleteRows(req.Rows); err != nil {
		respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "session_id", chi.URLParam(r, "sessionID")).
		Info("rows deleted", "count", len(req.Rows))

	resp := summarize(e, "")
	resp.Affected = len(req.Rows)
	writeJSON(w, resp)
}

type findReplaceRequest struct {
	Find    string `json:"find"`
	Field   string `json:"field"`
	Replace string `json:"replace"`
	Exact   bool   `json:"exact"`
}

// handleFindReplace replaces matching cell text across the table.
func (s *Server) handleFindReplace(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req findReplaceRequest
	if err := decodeJSON(w, r, s.cfg.Server.MaxBodySize, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Field == "" {
		req.Field = core.FieldAll
	}

	n, err := e.FindReplace(req.Find, req.Field, req.Replace, req.Exact)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := summarize(e, "")
	if n == 0 {
		resp.Label = ""
	}
	resp.Affected = n
	writeJSON(w, resp)
}

// handleMatches lists cells matching ?find= in ?field= (default all).
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	field := q.Get("field")
	if field == "" {
		field = core.FieldAll
	}
	exact, _ := strconv.ParseBool(q.Get("exact"))

	matches, err := e.FindMatches(q.Get("find"), field, exact)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if matches == nil {
		matches = []core.CellRef{}
	}
	writeJSON(w, map[string]any{"matches": matches, "count": len(matches)})
}

// handleUndo reverts the last mutation.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	label, err := e.Undo()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, summarize(e, label))
}

// handleRedo re-applies the last undone mutation.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	label, err := e.Redo()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, summarize(e, label))
}

// handleErrorsFragment renders one page of grouped errors as HTML.
func (s *Server) handleErrorsFragment(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}

	grouped := e.State().GroupedErrors
	size := min(parseIntParam(r, "pageSize", defaultPageSize), maxPageSize)
	start, end := page(len(grouped), parseIntParam(r, "page", 1), size)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	c := templates.ErrorList(chi.URLParam(r, "sessionID"), grouped[start:end], len(grouped))
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error list", "error", err)
	}
}
