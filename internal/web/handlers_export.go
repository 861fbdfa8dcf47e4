package web

import (
	"bytes"
	"net/http"
	"time"

	"github.com/JonMunkholm/PeopleImport/internal/export"
	"github.com/JonMunkholm/PeopleImport/internal/logging"
)

// handleExport downloads the session's cleaned rows.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, ok := s.editor(w, r)
	if !ok {
		return
	}

	rows := e.State().Rows
	var buf bytes.Buffer
	if err := export.Rows(&buf, format, rows); err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("rows exported", "format", format, "rows", len(rows))
	sendFile(w, format, export.FileName("people", format, time.Now()), buf.Bytes())
}

// handleTemplate downloads an empty import template.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Template(&buf, format); err != nil {
		respondError(w, r, err)
		return
	}
	sendFile(w, format, export.FileName("people_template", format, time.Now()), buf.Bytes())
}

func sendFile(w http.ResponseWriter, format export.Format, name string, data []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
