package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iac-studio/blueprint/internal/api/types"
	"github.com/iac-studio/blueprint/internal/project/layout"
	"github.com/iac-studio/blueprint/internal/services"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
	"github.com/iac-studio/blueprint/pkg/utils"
)

type GraphsHandler struct {
	svc      services.ProjectService
	validate Validator
	width    float64
}

// NewGraphsHandler lays diagrams out on width unless the request passes
// ?width=.
func NewGraphsHandler(svc services.ProjectService, v Validator, width float64) *GraphsHandler {
	return &GraphsHandler{svc: svc, validate: v, width: width}
}

func (h *GraphsHandler) diagram(r *http.Request) (*layout.Diagram, error) {
	width := h.width
	if v := r.URL.Query().Get("width"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || w <= 0 || w > 20000 {
			return nil, appErr.Newf(appErr.CodeInvalid, "width must be a positive number up to 20000, got %q", v)
		}
		width = w
	}
	return h.svc.Diagram(r.Context(), chi.URLParam(r, "id"), width)
}

// Layout returns the positioned diagram as JSON with an ETag.
func (h *GraphsHandler) Layout(w http.ResponseWriter, r *http.Request) {
	d, err := h.diagram(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := json.Marshal(d)
	if err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeInternal, "encode diagram failed"))
		return
	}
	etag := `"` + utils.Fingerprint(body) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeData(w, r, http.StatusOK, json.RawMessage(body))
}

func (h *GraphsHandler) SVG(w http.ResponseWriter, r *http.Request) {
	d, err := h.diagram(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := layout.Render(d, layout.NewSVG(&buf)); err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeInternal, "render svg failed"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *GraphsHandler) DOT(w http.ResponseWriter, r *http.Request) {
	d, err := h.diagram(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := layout.WriteDOT(d, &buf); err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeInternal, "render dot failed"))
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *GraphsHandler) Versions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListGraphVersions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, nonNil(items))
}

func (h *GraphsHandler) Version(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		writeError(w, r, appErr.Newf(appErr.CodeInvalid, "invalid graph version %q", chi.URLParam(r, "version")))
		return
	}
	g, err := h.svc.GetGraphVersion(r.Context(), chi.URLParam(r, "id"), version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, g)
}

func (h *GraphsHandler) Current(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetCurrentGraph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, g)
}

// Restore makes an earlier snapshot version the current one.
func (h *GraphsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req types.GraphVersionRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := h.svc.RestoreGraphVersion(r.Context(), chi.URLParam(r, "id"), req.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, g)
}
