package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds request bodies; a roster of ten names is tiny.
const maxBodyBytes = 64 << 10

// RacesHandler serves the race session endpoints.
type RacesHandler struct {
	deps Dependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps Dependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// createRaceRequest mirrors the OpenAPI schema for POST /races. Names may
// come as a list, as newline separated text, or both.
type createRaceRequest struct {
	Names  []string `json:"names"`
	Roster string   `json:"roster"`
}

func (c createRaceRequest) names() []string {
	out := append([]string(nil), c.Names...)
	if c.Roster != "" {
		out = append(out, strings.Split(strings.ReplaceAll(c.Roster, "\r\n", "\n"), "\n")...)
	}
	return out
}

func (c createRaceRequest) validate() error {
	if len(c.Names) == 0 && strings.TrimSpace(c.Roster) == "" {
		return NewKind("create race", ErrBadRequest, "missing names or roster")
	}
	return nil
}

// HandleCreate handles POST /races.
func (h *RacesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRaceRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeError(ctx, w, WrapKind("create race", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.deps.CreateRace(ctx, req.names())
	if err != nil {
		writeError(ctx, w, Wrap("create race", err))
		return
	}
	w.Header().Set("Location", "/races/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /races/{id}.
func (h *RacesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.GetRace(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap("get race", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRerun handles POST /races/{id}/rerun.
func (h *RacesHandler) HandleRerun(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Rerun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap("rerun race", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleReset handles POST /races/{id}/reset.
func (h *RacesHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap("reset race", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleResults handles GET /races/{id}/results. With ?format=text the
// plain-text block is returned instead of JSON.
func (h *RacesHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, Wrap("race results", err))
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, res.Text())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDelete handles DELETE /races/{id}.
func (h *RacesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(r.Context(), w, Wrap("delete race", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
