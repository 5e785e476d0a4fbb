package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iac-studio/blueprint/internal/api/middleware"
	"github.com/iac-studio/blueprint/internal/api/types"
	"github.com/iac-studio/blueprint/internal/project"
	"github.com/iac-studio/blueprint/internal/services"
)

type ProjectsHandler struct {
	svc      services.ProjectService
	validate Validator
}

func NewProjectsHandler(svc services.ProjectService, v Validator) *ProjectsHandler {
	return &ProjectsHandler{svc: svc, validate: v}
}

// List returns samples first, then stored projects, paged with page and
// page_size.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items[start:end],
		Meta: &types.Meta{
			RequestID: middleware.GetRequestID(r.Context()),
			Page:      page,
			PageSize:  size,
			Total:     int64(len(items)),
		},
	})
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectCreateRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.CreateProject(r.Context(), &services.CreateProjectInput{
		Meta:        req.Meta(),
		NetworkName: req.Network.Name,
		Network: project.NetworkSpec{
			CIDRBlock:      req.Network.CIDRBlock,
			SubnetCIDRMask: req.Network.SubnetCIDRMask,
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, p)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectUpdateRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	meta := req.Meta()
	p, err := h.svc.UpdateProjectSettings(r.Context(), chi.URLParam(r, "id"), &meta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
