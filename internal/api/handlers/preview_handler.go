package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iac-studio/blueprint/internal/preview"
	"github.com/iac-studio/blueprint/internal/services"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

type PreviewHandler struct {
	svc services.ProjectService
}

func NewPreviewHandler(svc services.ProjectService) *PreviewHandler {
	return &PreviewHandler{svc: svc}
}

func (h *PreviewHandler) Files(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	files, err := preview.Render(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, files)
}

// Zip serves every preview file as one download.
func (h *PreviewHandler) Zip(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	files, err := preview.Render(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := preview.WriteZip(&buf, files, p.UpdatedAt); err != nil {
		writeError(w, r, appErr.Wrap(err, appErr.CodeInternal, "build preview bundle failed"))
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+preview.BundleName(p)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
