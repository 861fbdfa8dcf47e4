package web

import (
	"net/http"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/JonMunkholm/PeopleImport/internal/logging"
)

type inferMappingRequest struct {
	Headers []string `json:"headers"`
}

type inferMappingResponse struct {
	Mapping core.Mapping `json:"mapping"`
	Quality int          `json:"quality"`
	core.HeaderSplit
	Unassigned []core.Field `json:"unassigned"`
}

// handleInferMapping proposes a header-to-field mapping.
func (s *Server) handleInferMapping(w http.ResponseWriter, r *http.Request) {
	var req inferMappingRequest
	if err := decodeJSON(w, r, s.cfg.Server.MaxBodySize, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.Headers) == 0 {
		respondError(w, r, core.ErrNoHeaders)
		return
	}

	mapping := core.InferMapping(req.Headers)
	logging.FromContext(r.Context()).Debug("mapping inferred",
		"headers", len(req.Headers),
		"mapped", len(mapping),
	)

	writeJSON(w, inferMappingResponse{
		Mapping:     mapping,
		Quality:     core.HeaderQuality(req.Headers),
		HeaderSplit: core.SplitHeaders(mapping, req.Headers),
		Unassigned:  core.UnmappedFields(mapping),
	})
}

type mappingFieldsRequest struct {
	Mapping core.Mapping `json:"mapping"`
	Header  string       `json:"header"`

	// Field, when present, reassigns Header before listing. An empty string
	// unmaps it.
	Field *core.Field `json:"field,omitempty"`
}

type mappingFieldsResponse struct {
	Mapping   core.Mapping `json:"mapping"`
	Available []fieldInfo  `json:"available"`
	Unmapped  []core.Field `json:"unmapped"`
}

type fieldInfo struct {
	Field       core.Field `json:"field"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
}

// handleMappingFields lists the fields a header may be mapped to, optionally
// after reassigning it.
func (s *Server) handleMappingFields(w http.ResponseWriter, r *http.Request) {
	var req mappingFieldsRequest
	if err := decodeJSON(w, r, s.cfg.Server.MaxBodySize, &req); err != nil {
		respondError(w, r, err)
		return
	}

	mapping := req.Mapping
	if req.Field != nil {
		next, err := core.SetMapping(mapping, req.Header, *req.Field)
		if err != nil {
			respondError(w, r, err)
			return
		}
		mapping = next
	}
	if mapping == nil {
		mapping = core.Mapping{}
	}

	available := core.FieldsAvailable(mapping, req.Header)
	infos := make([]fieldInfo, len(available))
	for i, f := range available {
		infos[i] = fieldInfo{Field: f, Label: core.Label(f), Description: core.FieldDescriptions[f]}
	}

	writeJSON(w, mappingFieldsResponse{
		Mapping:   mapping,
		Available: infos,
		Unmapped:  core.UnmappedFields(mapping),
	})
}
