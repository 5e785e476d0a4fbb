package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iac-studio/blueprint/internal/api/types"
	"github.com/iac-studio/blueprint/internal/project"
	"github.com/iac-studio/blueprint/internal/project/layout"
	"github.com/iac-studio/blueprint/internal/services"
)

type ResourcesHandler struct {
	svc      services.ProjectService
	validate Validator
}

func NewResourcesHandler(svc services.ProjectService, v Validator) *ResourcesHandler {
	return &ResourcesHandler{svc: svc, validate: v}
}

func (h *ResourcesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req types.ResourceRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.AddResource(r.Context(), chi.URLParam(r, "id"), resourceInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, res)
}

func (h *ResourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req types.ResourceRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.UpdateResource(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "rid"), resourceInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

func (h *ResourcesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveResource(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "rid")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dependencyView struct {
	Resource   project.Resource   `json:"resource"`
	Merged     []string           `json:"dependencies"`
	Dependents []project.Resource `json:"dependents"`
	CanDelete  bool               `json:"canDelete"`
	Reason     string             `json:"reason,omitempty"`
	Candidates []project.Resource `json:"candidates"`
}

func (h *ResourcesHandler) Dependencies(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Dependencies(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "rid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dependencyView{
		Resource:   rep.Resource,
		Merged:     nonNil(rep.Merged),
		Dependents: nonNil(rep.Dependents),
		CanDelete:  rep.CanDelete,
		Reason:     rep.Reason,
		Candidates: nonNil(rep.Candidates),
	})
}

type resourceTypeView struct {
	Kind        project.Kind   `json:"kind"`
	Description string         `json:"description"`
	Color       string         `json:"color"`
	Restricted  bool           `json:"restricted"`
	Targets     []project.Kind `json:"validTargets"`
}

// Types lists the resource kinds with the custom dependency targets each
// may use.
func (h *ResourcesHandler) Types(w http.ResponseWriter, r *http.Request) {
	out := make([]resourceTypeView, 0, len(project.Kinds))
	for _, k := range project.Kinds {
		targets, restricted := project.ValidTargets(k)
		out = append(out, resourceTypeView{
			Kind:        k,
			Description: k.Description(),
			Color:       layout.Color(k),
			Restricted:  restricted,
			Targets:     nonNil(targets),
		})
	}
	writeData(w, r, http.StatusOK, out)
}

func resourceInput(req types.ResourceRequest) *services.ResourceInput {
	return &services.ResourceInput{
		Type:               req.Type,
		IsCustom:           req.IsCustom,
		Name:               req.Name,
		Code:               req.Code,
		Properties:         req.Properties,
		Dependencies:       req.Dependencies,
		CustomDependencies: req.CustomDependencies,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
